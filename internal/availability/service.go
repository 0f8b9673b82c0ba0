package availability

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
)

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidTimeOfDay reports whether value is a wall-clock HH:MM string.
func ValidTimeOfDay(value string) bool {
	return timeOfDayRe.MatchString(value)
}

// SlotInput describes one slot to open on a counsellor's calendar.
type SlotInput struct {
	StartTime       string
	EndTime         string
	DurationMinutes int
}

// CreateSlotsInput opens a batch of slots on a single date.
type CreateSlotsInput struct {
	Date  time.Time
	Slots []SlotInput
}

// Service manages counsellor calendars and the public availability view.
type Service interface {
	CreateSlots(ctx context.Context, counsellorID uuid.UUID, input CreateSlotsInput) ([]models.AvailabilitySlot, error)
	ListSlots(ctx context.Context, counsellorID uuid.UUID, from, to time.Time) ([]models.AvailabilitySlot, error)
	PublicForDate(ctx context.Context, counsellorID uuid.UUID, date time.Time) ([]models.AvailabilitySlot, error)
}

type service struct {
	repo        Repository
	logg        *logger.Logger
	minLeadDays int
	now         func() time.Time
}

// NewService builds the availability service.
func NewService(repo Repository, logg *logger.Logger, minLeadDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if minLeadDays < 0 {
		return nil, fmt.Errorf("min lead days must not be negative")
	}
	return &service{
		repo:        repo,
		logg:        logg,
		minLeadDays: minLeadDays,
		now:         time.Now,
	}, nil
}

func (s *service) CreateSlots(ctx context.Context, counsellorID uuid.UUID, input CreateSlotsInput) ([]models.AvailabilitySlot, error) {
	if counsellorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id required")
	}
	if len(input.Slots) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one slot required")
	}
	if input.Date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date required")
	}

	slots := make([]models.AvailabilitySlot, 0, len(input.Slots))
	for _, in := range input.Slots {
		if err := validateSlotInput(in); err != nil {
			return nil, err
		}
		slots = append(slots, models.AvailabilitySlot{
			ID:              uuid.New(),
			CounsellorID:    counsellorID,
			Date:            dateOnly(input.Date),
			StartTime:       in.StartTime,
			EndTime:         in.EndTime,
			DurationMinutes: in.DurationMinutes,
		})
	}

	if err := s.repo.CreateBatch(ctx, slots); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "creating availability slots")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"counsellor_id": counsellorID,
		"date":          dateOnly(input.Date).Format("2006-01-02"),
		"slot_count":    len(slots),
	}), "availability slots created")
	return slots, nil
}

func (s *service) ListSlots(ctx context.Context, counsellorID uuid.UUID, from, to time.Time) ([]models.AvailabilitySlot, error) {
	if counsellorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id required")
	}
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window end precedes start")
	}
	return s.repo.ListWindow(ctx, counsellorID, from, to)
}

// PublicForDate lists free slots for a date. Dates inside the booking lead
// window come back empty since they can no longer be booked.
func (s *service) PublicForDate(ctx context.Context, counsellorID uuid.UUID, date time.Time) ([]models.AvailabilitySlot, error) {
	if counsellorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id required")
	}
	if !MeetsLeadTime(s.now(), date, s.minLeadDays) {
		return []models.AvailabilitySlot{}, nil
	}
	return s.repo.ListFreeForDate(ctx, counsellorID, date)
}

// MeetsLeadTime reports whether date is at least minDays full days after now's
// calendar date.
func MeetsLeadTime(now, date time.Time, minDays int) bool {
	earliest := dateOnly(now).AddDate(0, 0, minDays)
	return !dateOnly(date).Before(earliest)
}

func validateSlotInput(in SlotInput) error {
	if !timeOfDayRe.MatchString(in.StartTime) {
		return pkgerrors.New(pkgerrors.CodeValidation, "start time must be HH:MM").WithDetails(map[string]any{"start_time": in.StartTime})
	}
	if !timeOfDayRe.MatchString(in.EndTime) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end time must be HH:MM").WithDetails(map[string]any{"end_time": in.EndTime})
	}
	if in.EndTime <= in.StartTime {
		return pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}
	if in.DurationMinutes <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}
	return nil
}
