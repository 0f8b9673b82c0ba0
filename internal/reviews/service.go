package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubmitInput is a new review from a client.
type SubmitInput struct {
	CounsellorID uuid.UUID
	Rating       int
	Comment      *string
}

// UpdateInput edits an existing review.
type UpdateInput struct {
	Rating  int
	Comment *string
}

// Service manages client reviews of counsellors.
type Service interface {
	Submit(ctx context.Context, clientUserID uuid.UUID, input SubmitInput) (*models.Review, error)
	Update(ctx context.Context, clientUserID, reviewID uuid.UUID, input UpdateInput) (*models.Review, error)
	Delete(ctx context.Context, clientUserID, reviewID uuid.UUID) error
}

type service struct {
	tx       txRunner
	repo     Repository
	profiles accounts.ProfileRepository
	sessions sessionChecker
	logg     *logger.Logger
}

// NewService builds the reviews service.
func NewService(
	tx txRunner,
	repo Repository,
	db *gorm.DB,
	profileRepo accounts.ProfileRepository,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		profiles: profileRepo,
		sessions: &gormSessionChecker{db: db},
		logg:     logg,
	}, nil
}

func (s *service) Submit(ctx context.Context, clientUserID uuid.UUID, input SubmitInput) (*models.Review, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if input.CounsellorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id required")
	}

	client, err := s.profiles.FindClientByUserID(ctx, clientUserID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only clients can review counsellors")
		}
		return nil, err
	}
	if _, err := s.profiles.FindCounsellorByID(ctx, input.CounsellorID); err != nil {
		return nil, err
	}

	paid, err := s.sessions.HasPaidSession(ctx, client.ID, input.CounsellorID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reviews require a paid session with the counsellor")
	}

	existing, err := s.repo.FindByPair(ctx, input.CounsellorID, client.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "counsellor already reviewed")
	}

	review := &models.Review{
		ID:           uuid.New(),
		CounsellorID: input.CounsellorID,
		ClientID:     client.ID,
		Rating:       input.Rating,
		Comment:      normalizeComment(input.Comment),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, review); err != nil {
			return err
		}
		return repo.RecomputeAggregate(ctx, input.CounsellorID)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"counsellor_id": input.CounsellorID,
		"rating":        input.Rating,
	}), "review submitted")
	return review, nil
}

func (s *service) Update(ctx context.Context, clientUserID, reviewID uuid.UUID, input UpdateInput) (*models.Review, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	review, err := s.ownedReview(ctx, clientUserID, reviewID)
	if err != nil {
		return nil, err
	}

	review.Rating = input.Rating
	review.Comment = normalizeComment(input.Comment)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, review); err != nil {
			return err
		}
		return repo.RecomputeAggregate(ctx, review.CounsellorID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) Delete(ctx context.Context, clientUserID, reviewID uuid.UUID) error {
	review, err := s.ownedReview(ctx, clientUserID, reviewID)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(ctx, review.ID); err != nil {
			return err
		}
		return repo.RecomputeAggregate(ctx, review.CounsellorID)
	})
}

// ownedReview loads the review and checks the caller's client profile owns it.
func (s *service) ownedReview(ctx context.Context, clientUserID, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	client, err := s.profiles.FindClientByUserID(ctx, clientUserID)
	if err != nil {
		return nil, err
	}
	if review.ClientID != client.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another client")
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// sessionChecker verifies the client actually paid for a session with the
// counsellor before allowing a review.
type sessionChecker interface {
	HasPaidSession(ctx context.Context, clientID, counsellorID uuid.UUID) (bool, error)
}

type gormSessionChecker struct {
	db *gorm.DB
}

func (c *gormSessionChecker) HasPaidSession(ctx context.Context, clientID, counsellorID uuid.UUID) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("client_id = ? AND counsellor_id = ? AND payment_status = ?",
			clientID, counsellorID, enums.BookingPaymentStatusPaid).
		Count(&count).Error
	return count > 0, err
}
