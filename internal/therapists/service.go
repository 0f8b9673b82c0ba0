package therapists

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/pagination"
)

// DirectoryPage is one page of the public counsellor directory.
type DirectoryPage struct {
	Counsellors []models.Counsellor
	Page        pagination.Page
}

// Detail is a counsellor profile with its most recent reviews.
type Detail struct {
	Counsellor *models.Counsellor
	Reviews    []models.Review
	ReviewPage pagination.Page
}

// Dashboard summarises a counsellor's practice for their home screen.
type Dashboard struct {
	Counsellor        *models.Counsellor
	UpcomingSessions  int64
	PendingBookings   int64
	CompletedSessions int64
	TotalEarnings     decimal.Decimal
}

// Service serves the public directory and the counsellor dashboard.
type Service interface {
	List(ctx context.Context, filter ListFilter) (*DirectoryPage, error)
	Get(ctx context.Context, id uuid.UUID, reviewPage pagination.Params) (*Detail, error)
	DashboardForUser(ctx context.Context, userID uuid.UUID) (*Dashboard, error)
}

type service struct {
	repo     Repository
	profiles accounts.ProfileRepository
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the therapist directory service.
func NewService(repo Repository, profileRepo accounts.ProfileRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		profiles: profileRepo,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*DirectoryPage, error) {
	if filter.Sort != "" && !filter.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort order").
			WithDetails(map[string]any{"sort": string(filter.Sort)})
	}
	if filter.Gender != nil && !filter.Gender.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown gender filter")
	}
	if filter.MaxFee != nil && filter.MaxFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max fee must not be negative")
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &DirectoryPage{
		Counsellors: rows,
		Page:        pagination.PageFor(filter.Page, total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, reviewPage pagination.Params) (*Detail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id required")
	}
	counsellor, err := s.repo.FindVisibleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, total, err := s.repo.ListReviews(ctx, id, reviewPage)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Counsellor: counsellor,
		Reviews:    reviews,
		ReviewPage: pagination.PageFor(reviewPage, total),
	}, nil
}

// DashboardForUser resolves the caller's counsellor profile and aggregates
// their booking pipeline.
func (s *service) DashboardForUser(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	counsellor, err := s.profiles.FindCounsellorByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	counts, err := s.repo.CountBookings(ctx, counsellor.ID, today)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Counsellor:        counsellor,
		UpcomingSessions:  counts.UpcomingSessions,
		PendingBookings:   counts.PendingBookings,
		CompletedSessions: counts.CompletedSessions,
		TotalEarnings:     counts.TotalEarnings,
	}, nil
}
