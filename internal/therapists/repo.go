package therapists

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/pagination"
)

// SortOrder names the supported directory orderings.
type SortOrder string

const (
	SortRating     SortOrder = "rating"
	SortFeeAsc     SortOrder = "fee_asc"
	SortFeeDesc    SortOrder = "fee_desc"
	SortExperience SortOrder = "experience"
)

// IsValid reports whether the sort order is one of the supported values.
func (s SortOrder) IsValid() bool {
	switch s {
	case SortRating, SortFeeAsc, SortFeeDesc, SortExperience:
		return true
	}
	return false
}

// ListFilter narrows the public directory. Zero values leave a dimension
// unfiltered.
type ListFilter struct {
	Search           string
	SpecializationID uint
	LanguageID       uint
	Gender           *enums.Gender
	MaxFee           *decimal.Decimal
	Sort             SortOrder
	Page             pagination.Params
}

// DashboardCounts aggregates a counsellor's booking pipeline and earnings.
type DashboardCounts struct {
	UpcomingSessions  int64
	PendingBookings   int64
	CompletedSessions int64
	TotalEarnings     decimal.Decimal
}

// Repository reads the public counsellor directory and its review trail.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]models.Counsellor, int64, error)
	FindVisibleByID(ctx context.Context, id uuid.UUID) (*models.Counsellor, error)
	ListReviews(ctx context.Context, counsellorID uuid.UUID, page pagination.Params) ([]models.Review, int64, error)
	CountBookings(ctx context.Context, counsellorID uuid.UUID, today time.Time) (DashboardCounts, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a directory repository backed by the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Counsellor, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Counsellor{}).
		Joins("JOIN users ON users.id = counsellors.user_id").
		Where("counsellors.is_approved = ? AND counsellors.profile_visible = ?", true, true)

	if search := strings.TrimSpace(filter.Search); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(users.first_name || ' ' || users.last_name) LIKE ? OR LOWER(COALESCE(counsellors.bio, '')) LIKE ?",
			needle, needle,
		)
	}
	if filter.SpecializationID != 0 {
		query = query.Where(
			"counsellors.id IN (SELECT counsellor_id FROM counsellor_specializations WHERE specialization_id = ?)",
			filter.SpecializationID,
		)
	}
	if filter.LanguageID != 0 {
		query = query.Where(
			"counsellors.id IN (SELECT counsellor_id FROM counsellor_languages WHERE language_id = ?)",
			filter.LanguageID,
		)
	}
	if filter.Gender != nil {
		query = query.Where("counsellors.gender = ?", *filter.Gender)
	}
	if filter.MaxFee != nil {
		query = query.Where("counsellors.session_fee <= ?", *filter.MaxFee)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Counsellor
	err := query.
		Order(orderClause(filter.Sort)).
		Limit(page.Limit).
		Offset(page.Offset).
		Preload("User").
		Preload("Specializations").
		Preload("Approaches").
		Preload("Languages").
		Preload("AgeGroups").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func orderClause(sort SortOrder) string {
	switch sort {
	case SortFeeAsc:
		return "counsellors.session_fee ASC"
	case SortFeeDesc:
		return "counsellors.session_fee DESC"
	case SortExperience:
		return "counsellors.years_experience DESC"
	default:
		return "counsellors.rating DESC, counsellors.total_reviews DESC"
	}
}

func (r *repository) FindVisibleByID(ctx context.Context, id uuid.UUID) (*models.Counsellor, error) {
	var counsellor models.Counsellor
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_approved = ? AND profile_visible = ?", id, true, true).
		Preload("User").
		Preload("Specializations").
		Preload("Approaches").
		Preload("Languages").
		Preload("AgeGroups").
		First(&counsellor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counsellor not found")
		}
		return nil, err
	}
	return &counsellor, nil
}

func (r *repository) ListReviews(ctx context.Context, counsellorID uuid.UUID, page pagination.Params) ([]models.Review, int64, error) {
	page = page.Normalize()

	var total int64
	base := r.db.WithContext(ctx).Model(&models.Review{}).Where("counsellor_id = ?", counsellorID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("counsellor_id = ?", counsellorID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) CountBookings(ctx context.Context, counsellorID uuid.UUID, today time.Time) (DashboardCounts, error) {
	var counts DashboardCounts

	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("counsellor_id = ? AND status = ? AND session_date >= ?",
			counsellorID, enums.BookingStatusConfirmed, today).
		Count(&counts.UpcomingSessions).Error
	if err != nil {
		return counts, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("counsellor_id = ? AND status = ?", counsellorID, enums.BookingStatusPending).
		Count(&counts.PendingBookings).Error
	if err != nil {
		return counts, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("counsellor_id = ? AND status = ?", counsellorID, enums.BookingStatusCompleted).
		Count(&counts.CompletedSessions).Error
	if err != nil {
		return counts, err
	}

	var earnings struct {
		Amount decimal.Decimal
	}
	err = r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Joins("JOIN bookings ON bookings.id = payments.booking_id").
		Where("bookings.counsellor_id = ? AND payments.status = ?", counsellorID, enums.PaymentStatusSuccess).
		Select("COALESCE(SUM(payments.amount), 0) AS amount").
		Scan(&earnings).Error
	if err != nil {
		return counts, err
	}
	counts.TotalEarnings = earnings.Amount
	return counts, nil
}
