package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
)

// Repository persists reviews and keeps the counsellor rating aggregate in
// step with the review rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	FindByPair(ctx context.Context, counsellorID, clientID uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecomputeAggregate(ctx context.Context, counsellorID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a review repository backed by the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, err
	}
	return &review, nil
}

// FindByPair returns nil, nil when the client has not reviewed the counsellor.
func (r *repository) FindByPair(ctx context.Context, counsellorID, clientID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("counsellor_id = ? AND client_id = ?", counsellorID, clientID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *repository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error
}

// RecomputeAggregate rewrites the counsellor's rating and review count from
// the surviving review rows.
func (r *repository) RecomputeAggregate(ctx context.Context, counsellorID uuid.UUID) error {
	var stats struct {
		Avg   float64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("counsellor_id = ?", counsellorID).
		Scan(&stats).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Counsellor{}).
		Where("id = ?", counsellorID).
		Updates(map[string]any{
			"rating":        stats.Avg,
			"total_reviews": stats.Count,
		}).Error
}
