package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
)

// Repository persists availability slots and owns the reservation primitive.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, slot *models.AvailabilitySlot) error
	CreateBatch(ctx context.Context, slots []models.AvailabilitySlot) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error)
	FindFree(ctx context.Context, counsellorID uuid.UUID, date time.Time, startTime string) (*models.AvailabilitySlot, error)
	ListWindow(ctx context.Context, counsellorID uuid.UUID, from, to time.Time) ([]models.AvailabilitySlot, error)
	ListFreeForDate(ctx context.Context, counsellorID uuid.UUID, date time.Time) ([]models.AvailabilitySlot, error)
	Reserve(ctx context.Context, slotID uuid.UUID) error
	Release(ctx context.Context, slotID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a slot repository backed by the provided DB handle.
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

func (r *repository) Create(ctx context.Context, slot *models.AvailabilitySlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *repository) CreateBatch(ctx context.Context, slots []models.AvailabilitySlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "availability slot not found")
		}
		return nil, err
	}
	return &slot, nil
}

func (r *repository) FindFree(ctx context.Context, counsellorID uuid.UUID, date time.Time, startTime string) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("counsellor_id = ? AND date = ? AND start_time = ? AND is_booked = ?", counsellorID, dateOnly(date), startTime, false).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *repository) ListWindow(ctx context.Context, counsellorID uuid.UUID, from, to time.Time) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("counsellor_id = ? AND date >= ? AND date <= ?", counsellorID, dateOnly(from), dateOnly(to)).
		Order("date ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *repository) ListFreeForDate(ctx context.Context, counsellorID uuid.UUID, date time.Time) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("counsellor_id = ? AND date = ? AND is_booked = ?", counsellorID, dateOnly(date), false).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

// Reserve flips is_booked with a single conditional update so concurrent
// bookings cannot claim the same slot.
func (r *repository) Reserve(ctx context.Context, slotID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("id = ? AND is_booked = ?", slotID, false).
		Update("is_booked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.AvailabilitySlot{}).Where("id = ?", slotID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "availability slot not found")
		}
		return pkgerrors.New(pkgerrors.CodeSlotReserved, "slot is already reserved")
	}
	return nil
}

// Release marks the slot free again. Releasing a free slot is a no-op.
func (r *repository) Release(ctx context.Context, slotID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("id = ?", slotID).
		Update("is_booked", false).Error
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
