package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/internal/availability"
	"github.com/mindbridge-care/mindbridge-backend/internal/payments"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/metrics"
	"github.com/mindbridge-care/mindbridge-backend/pkg/razorpay"
	"github.com/mindbridge-care/mindbridge-backend/pkg/references"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	CreateOrder(ctx context.Context, params razorpay.OrderParams) (*razorpay.Order, error)
	KeyID() string
}

// Options captures the booking policy knobs.
type Options struct {
	MinLeadDays     int
	Currency        string
	DefaultDuration int
}

// CreateBookingInput is the client's booking request.
type CreateBookingInput struct {
	CounsellorID uuid.UUID
	SessionDate  time.Time
	SessionTime  string
	Duration     int
	Notes        *string
}

// OrderDescriptor is handed to the frontend to open gateway checkout.
type OrderDescriptor struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// CreateBookingResult bundles the created records and the gateway order.
type CreateBookingResult struct {
	Booking *models.Booking
	Payment *models.Payment
	Order   OrderDescriptor
}

// Service orchestrates the booking lifecycle.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*CreateBookingResult, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	ListForClientUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	ListForCounsellorUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	Cancel(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error)
	Complete(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error)
}

type service struct {
	tx       txRunner
	bookings Repository
	payments payments.Repository
	slots    availability.Repository
	profiles accounts.ProfileRepository
	gateway  gateway
	logg     *logger.Logger
	metrics  *metrics.BookingMetrics
	opts     Options
	now      func() time.Time
}

// NewService builds the booking orchestrator.
func NewService(
	tx txRunner,
	bookingRepo Repository,
	paymentRepo payments.Repository,
	slotRepo availability.Repository,
	profileRepo accounts.ProfileRepository,
	gw gateway,
	logg *logger.Logger,
	bookingMetrics *metrics.BookingMetrics,
	opts Options,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if bookingRepo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if paymentRepo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if slotRepo == nil {
		return nil, fmt.Errorf("slot repository required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.MinLeadDays < 0 {
		return nil, fmt.Errorf("min lead days must not be negative")
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = 60
	}
	return &service{
		tx:       tx,
		bookings: bookingRepo,
		payments: paymentRepo,
		slots:    slotRepo,
		profiles: profileRepo,
		gateway:  gw,
		logg:     logg,
		metrics:  bookingMetrics,
		opts:     opts,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*CreateBookingResult, error) {
	started := s.now()
	result, err := s.create(ctx, userID, input)
	outcome := "created"
	if err != nil {
		outcome = outcomeFor(err)
	}
	s.metrics.IncBooking(outcome)
	s.metrics.ObserveCreateDuration(outcome, s.now().Sub(started))
	return result, err
}

func (s *service) create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*CreateBookingResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.CounsellorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id required")
	}
	if !availability.ValidTimeOfDay(input.SessionTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session time must be HH:MM").WithDetails(map[string]any{"session_time": input.SessionTime})
	}
	if input.Duration < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must not be negative")
	}

	client, err := s.profiles.FindClientByUserID(ctx, userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only clients can book sessions")
		}
		return nil, err
	}

	if !availability.MeetsLeadTime(s.now(), input.SessionDate, s.opts.MinLeadDays) {
		return nil, pkgerrors.New(pkgerrors.CodeLeadTime,
			fmt.Sprintf("sessions must be booked at least %d days in advance", s.opts.MinLeadDays)).
			WithDetails(map[string]any{"min_lead_days": s.opts.MinLeadDays})
	}

	counsellor, err := s.profiles.FindCounsellorByID(ctx, input.CounsellorID)
	if err != nil {
		return nil, err
	}
	if !counsellor.IsApproved || !counsellor.ProfileVisible {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counsellor not found")
	}

	var out *CreateBookingResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bookingRepo := s.bookings.WithTx(tx)
		paymentRepo := s.payments.WithTx(tx)
		slotRepo := s.slots.WithTx(tx)

		duration := input.Duration
		if duration == 0 {
			duration = counsellor.SessionDuration
		}
		if duration <= 0 {
			duration = s.opts.DefaultDuration
		}

		var slotID *uuid.UUID
		slot, err := slotRepo.FindFree(ctx, counsellor.ID, input.SessionDate, input.SessionTime)
		if err != nil {
			return err
		}
		if slot != nil {
			if err := slotRepo.Reserve(ctx, slot.ID); err != nil {
				return err
			}
			slotID = &slot.ID
			if input.Duration == 0 && slot.DurationMinutes > 0 {
				duration = slot.DurationMinutes
			}
		}

		bookingRef, err := references.NewUnique(ctx, references.BookingPrefix, bookingRepo.ReferenceExists)
		if err != nil {
			return err
		}

		booking := &models.Booking{
			ID:            uuid.New(),
			Reference:     bookingRef,
			ClientID:      client.ID,
			CounsellorID:  counsellor.ID,
			SlotID:        slotID,
			SessionDate:   input.SessionDate,
			SessionTime:   input.SessionTime,
			Duration:      duration,
			SessionFee:    counsellor.SessionFee,
			MeetLink:      counsellor.MeetLink,
			ClientNotes:   input.Notes,
			Status:        enums.BookingStatusPending,
			PaymentStatus: enums.BookingPaymentStatusPending,
		}
		if err := bookingRepo.Create(ctx, booking); err != nil {
			return err
		}

		paymentRef, err := references.NewUnique(ctx, references.PaymentPrefix, paymentRepo.ReferenceExists)
		if err != nil {
			return err
		}

		payment := &models.Payment{
			ID:        uuid.New(),
			Reference: paymentRef,
			BookingID: booking.ID,
			Amount:    counsellor.SessionFee,
			Currency:  s.opts.Currency,
			Status:    enums.PaymentStatusPending,
		}
		if err := paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		order, err := s.gateway.CreateOrder(ctx, razorpay.OrderParams{
			Amount:   counsellor.SessionFee,
			Currency: s.opts.Currency,
			Receipt:  bookingRef,
			Notes: map[string]string{
				"booking_reference": bookingRef,
				"payment_reference": paymentRef,
			},
		})
		if err != nil {
			return err
		}

		payment.GatewayOrderID = &order.ID
		if err := paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		out = &CreateBookingResult{
			Booking: booking,
			Payment: payment,
			Order: OrderDescriptor{
				OrderID:  order.ID,
				Amount:   order.Amount,
				Currency: order.Currency,
				KeyID:    s.gateway.KeyID(),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithBookingRef(ctx, out.Booking.Reference), map[string]any{
		"payment_reference": out.Payment.Reference,
		"counsellor_id":     counsellor.ID,
		"session_date":      input.SessionDate.Format("2006-01-02"),
	}), "booking created")
	return out, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking reference required")
	}
	return s.bookings.FindByReference(ctx, reference)
}

func (s *service) ListForClientUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	client, err := s.profiles.FindClientByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.bookings.ListByClient(ctx, client.ID)
}

func (s *service) ListForCounsellorUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	counsellor, err := s.profiles.FindCounsellorByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.bookings.ListByCounsellor(ctx, counsellor.ID)
}

// Cancel moves a booking the caller owns to cancelled and frees its slot.
// Refunds are handled out of band.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking reference required")
	}
	client, err := s.profiles.FindClientByUserID(ctx, userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only clients can cancel their bookings")
		}
		return nil, err
	}

	var out *models.Booking
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bookingRepo := s.bookings.WithTx(tx)
		slotRepo := s.slots.WithTx(tx)

		booking, err := bookingRepo.FindByReference(ctx, reference)
		if err != nil {
			return err
		}
		if booking.ClientID != client.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		if !booking.Status.CanTransitionTo(enums.BookingStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("booking in status %s cannot be cancelled", booking.Status)).
				WithDetails(map[string]any{"status": string(booking.Status)})
		}

		now := s.now()
		booking.Status = enums.BookingStatusCancelled
		booking.CancelledAt = &now
		if err := bookingRepo.Update(ctx, booking); err != nil {
			return err
		}
		if booking.SlotID != nil {
			if err := slotRepo.Release(ctx, *booking.SlotID); err != nil {
				return err
			}
		}
		out = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncBooking("cancelled")
	s.logg.Info(s.logg.WithBookingRef(ctx, out.Reference), "booking cancelled")
	return out, nil
}

// Complete marks a confirmed booking as completed. Only the counsellor who
// held the session may do this.
func (s *service) Complete(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking reference required")
	}
	counsellor, err := s.profiles.FindCounsellorByUserID(ctx, userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only counsellors can complete sessions")
		}
		return nil, err
	}

	booking, err := s.bookings.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if booking.CounsellorID != counsellor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	if !booking.Status.CanTransitionTo(enums.BookingStatusCompleted) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("booking in status %s cannot be completed", booking.Status)).
			WithDetails(map[string]any{"status": string(booking.Status)})
	}

	now := s.now()
	booking.Status = enums.BookingStatusCompleted
	booking.CompletedAt = &now
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.metrics.IncBooking("completed")
	s.logg.Info(s.logg.WithBookingRef(ctx, booking.Reference), "booking completed")
	return booking, nil
}

func outcomeFor(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "error"
	}
	switch typed.Code() {
	case pkgerrors.CodeGateway:
		return "gateway_error"
	case pkgerrors.CodeSlotReserved:
		return "slot_conflict"
	case pkgerrors.CodeLeadTime:
		return "lead_time"
	default:
		return "rejected"
	}
}
