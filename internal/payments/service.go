package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/internal/availability"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type signatureVerifier interface {
	VerifySignature(orderID, paymentID, signature string) bool
}

// VerifyInput carries the gateway checkout callback fields.
type VerifyInput struct {
	BookingReference string
	OrderID          string
	PaymentID        string
	Signature        string
}

// VerifyResult reports the reconciled state.
type VerifyResult struct {
	Booking *models.Booking
	Payment *models.Payment
}

// Service reconciles gateway outcomes into slot/booking/payment state.
type Service interface {
	Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error)
	ReportFailure(ctx context.Context, bookingReference, description string, payload map[string]any) error
	ListAttempts(ctx context.Context, bookingReference string) ([]models.Payment, error)
}

type service struct {
	tx       txRunner
	payments Repository
	bookings bookingStore
	slots    availability.Repository
	profiles accounts.ProfileRepository
	verifier signatureVerifier
	logg     *logger.Logger
	metrics  *metrics.BookingMetrics
	now      func() time.Time
}

// NewService builds the payment reconciliation service.
func NewService(
	tx txRunner,
	paymentRepo Repository,
	db *gorm.DB,
	slotRepo availability.Repository,
	profileRepo accounts.ProfileRepository,
	verifier signatureVerifier,
	logg *logger.Logger,
	bookingMetrics *metrics.BookingMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if paymentRepo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if slotRepo == nil {
		return nil, fmt.Errorf("slot repository required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		payments: paymentRepo,
		bookings: newBookingStore(db),
		slots:    slotRepo,
		profiles: profileRepo,
		verifier: verifier,
		logg:     logg,
		metrics:  bookingMetrics,
		now:      time.Now,
	}, nil
}

func (s *service) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	if input.BookingReference == "" || input.OrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking reference, order id, payment id, and signature are required")
	}

	booking, err := s.bookings.FindByReference(ctx, input.BookingReference)
	if err != nil {
		return nil, err
	}
	payment, err := s.payments.FindLatestByBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if payment.GatewayOrderID == nil || *payment.GatewayOrderID != input.OrderID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment found for gateway order")
	}

	if !s.verifier.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
		s.logg.Warn(s.logg.WithFields(s.logg.WithBookingRef(ctx, input.BookingReference), map[string]any{
			"gateway_order_id":   input.OrderID,
			"gateway_payment_id": input.PaymentID,
		}), "payment signature verification failed")

		if payment.Status != enums.PaymentStatusSuccess {
			if err := s.markSignatureFailure(ctx, booking, payment); err != nil {
				return nil, err
			}
		}
		s.metrics.IncPayment("signature_invalid")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")
	}

	// Gateways retry callbacks; a replay of an already reconciled payment is
	// acknowledged without re-running the success transaction.
	if payment.Status == enums.PaymentStatusSuccess {
		s.metrics.IncPayment("duplicate")
		return &VerifyResult{Booking: booking, Payment: payment}, nil
	}

	now := s.now()
	payload := mustJSON(map[string]any{
		"razorpay_order_id":   input.OrderID,
		"razorpay_payment_id": input.PaymentID,
		"razorpay_signature":  input.Signature,
	})

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentRepo := s.payments.WithTx(tx)
		bookingStore := s.bookings.WithTx(tx)
		profileRepo := s.profiles.WithTx(tx)

		firstPairing, err := bookingStore.CountPaidForPair(ctx, booking.ClientID, booking.CounsellorID)
		if err != nil {
			return err
		}

		payment.Status = enums.PaymentStatusSuccess
		payment.GatewayPaymentID = &input.PaymentID
		payment.GatewaySignature = &input.Signature
		payment.GatewayPayload = &payload
		payment.PaidAt = &now
		if err := paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		booking.PaymentStatus = enums.BookingPaymentStatusPaid
		booking.Status = enums.BookingStatusConfirmed
		booking.ConfirmedAt = &now
		if err := bookingStore.Update(ctx, booking); err != nil {
			return err
		}

		if err := profileRepo.RecordClientSession(ctx, booking.ClientID, booking.SessionDate); err != nil {
			return err
		}
		return profileRepo.RecordCounsellorSession(ctx, booking.CounsellorID, firstPairing == 0)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPayment("success")
	s.logg.Info(s.logg.WithField(s.logg.WithBookingRef(ctx, booking.Reference),
		"payment_reference", payment.Reference), "payment verified")
	return &VerifyResult{Booking: booking, Payment: payment}, nil
}

// markSignatureFailure records the failed attempt without touching the slot
// or the booking lifecycle status, leaving a retry possible.
func (s *service) markSignatureFailure(ctx context.Context, booking *models.Booking, payment *models.Payment) error {
	message := "signature verification failed"
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentRepo := s.payments.WithTx(tx)
		bookingStore := s.bookings.WithTx(tx)

		payment.Status = enums.PaymentStatusFailed
		payment.ErrorMessage = &message
		if err := paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		booking.PaymentStatus = enums.BookingPaymentStatusFailed
		return bookingStore.Update(ctx, booking)
	})
}

func (s *service) ReportFailure(ctx context.Context, bookingReference, description string, payload map[string]any) error {
	if bookingReference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking reference required")
	}
	if description == "" {
		description = "payment failed"
	}

	booking, err := s.bookings.FindByReference(ctx, bookingReference)
	if err != nil {
		return err
	}
	payment, err := s.payments.FindLatestByBooking(ctx, booking.ID)
	if err != nil {
		return err
	}
	// A confirmed session keeps its slot. Failure reports that arrive after
	// successful reconciliation are rejected, not applied.
	if payment.Status == enums.PaymentStatusSuccess {
		return pkgerrors.New(pkgerrors.CodeConflict, "payment already reconciled")
	}

	encoded := mustJSON(payload)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentRepo := s.payments.WithTx(tx)
		bookingStore := s.bookings.WithTx(tx)
		slotRepo := s.slots.WithTx(tx)

		payment.Status = enums.PaymentStatusFailed
		payment.ErrorMessage = &description
		if payload != nil {
			payment.GatewayPayload = &encoded
		}
		if err := paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		booking.PaymentStatus = enums.BookingPaymentStatusFailed
		if err := bookingStore.Update(ctx, booking); err != nil {
			return err
		}

		if booking.SlotID != nil {
			return slotRepo.Release(ctx, *booking.SlotID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncPayment("failed")
	s.logg.Info(s.logg.WithField(s.logg.WithBookingRef(ctx, booking.Reference),
		"payment_reference", payment.Reference), "payment failure recorded")
	return nil
}

func (s *service) ListAttempts(ctx context.Context, bookingReference string) ([]models.Payment, error) {
	booking, err := s.bookings.FindByReference(ctx, bookingReference)
	if err != nil {
		return nil, err
	}
	return s.payments.ListByBooking(ctx, booking.ID)
}

func mustJSON(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// bookingStore gives reconciliation direct access to booking rows without
// pulling in the booking orchestration package.
type bookingStore interface {
	WithTx(tx *gorm.DB) bookingStore
	FindByReference(ctx context.Context, reference string) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	CountPaidForPair(ctx context.Context, clientID, counsellorID uuid.UUID) (int64, error)
}

type gormBookingStore struct {
	db *gorm.DB
}

func newBookingStore(db *gorm.DB) bookingStore {
	return &gormBookingStore{db: db}
}

func (s *gormBookingStore) WithTx(tx *gorm.DB) bookingStore {
	if tx == nil {
		return s
	}
	return &gormBookingStore{db: tx}
}

func (s *gormBookingStore) FindByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, err
	}
	return &booking, nil
}

func (s *gormBookingStore) Update(ctx context.Context, booking *models.Booking) error {
	return s.db.WithContext(ctx).Save(booking).Error
}

func (s *gormBookingStore) CountPaidForPair(ctx context.Context, clientID, counsellorID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("client_id = ? AND counsellor_id = ? AND payment_status = ?", clientID, counsellorID, enums.BookingPaymentStatusPaid).
		Count(&count).Error
	return count, err
}
