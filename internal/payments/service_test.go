package payments

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/internal/availability"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
)

type testTx struct {
	db *gorm.DB
}

func (t testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type fakeVerifier struct {
	ok bool
}

func (f fakeVerifier) VerifySignature(orderID, paymentID, signature string) bool {
	return f.ok
}

type fixture struct {
	db         *gorm.DB
	client     models.ClientProfile
	counsellor models.Counsellor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.Counsellor{},
		&models.AvailabilitySlot{},
		&models.Booking{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := models.ClientProfile{ID: uuid.New(), UserID: uuid.New()}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	counsellor := models.Counsellor{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		LicenseNumber:  "LIC-2002",
		SessionFee:     decimal.RequireFromString("1200.00"),
		IsApproved:     true,
		ProfileVisible: true,
	}
	if err := db.Create(&counsellor).Error; err != nil {
		t.Fatalf("seed counsellor: %v", err)
	}
	return &fixture{db: db, client: client, counsellor: counsellor}
}

func (f *fixture) newService(t *testing.T, verifierOK bool) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(
		testTx{db: f.db},
		NewRepository(f.db),
		f.db,
		availability.NewRepository(f.db),
		accounts.NewProfileRepository(f.db),
		fakeVerifier{ok: verifierOK},
		logg,
		nil,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

// seedPendingBooking creates a reserved slot, a pending booking, and a
// pending payment carrying the given gateway order id.
func (f *fixture) seedPendingBooking(t *testing.T, orderID string) (*models.Booking, *models.Payment, *models.AvailabilitySlot) {
	t.Helper()
	slot := &models.AvailabilitySlot{
		ID:              uuid.New(),
		CounsellorID:    f.counsellor.ID,
		Date:            time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		EndTime:         "11:00",
		DurationMinutes: 60,
		IsBooked:        true,
	}
	if err := f.db.Create(slot).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	booking := &models.Booking{
		ID:            uuid.New(),
		Reference:     "MBK-" + strings.ToUpper(uuid.NewString()[:10]),
		ClientID:      f.client.ID,
		CounsellorID:  f.counsellor.ID,
		SlotID:        &slot.ID,
		SessionDate:   slot.Date,
		SessionTime:   slot.StartTime,
		Duration:      60,
		SessionFee:    decimal.RequireFromString("1200.00"),
		Status:        enums.BookingStatusPending,
		PaymentStatus: enums.BookingPaymentStatusPending,
	}
	if err := f.db.Create(booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		Reference:      "PAY-" + strings.ToUpper(uuid.NewString()[:10]),
		BookingID:      booking.ID,
		Amount:         booking.SessionFee,
		Currency:       "INR",
		GatewayOrderID: &orderID,
		Status:         enums.PaymentStatusPending,
	}
	if err := f.db.Create(payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return booking, payment, slot
}

func TestVerifySuccess(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, true)
	ctx := context.Background()
	booking, payment, _ := f.seedPendingBooking(t, "order_abc")

	result, err := svc.Verify(ctx, VerifyInput{
		BookingReference: booking.Reference,
		OrderID:          "order_abc",
		PaymentID:        "pay_xyz",
		Signature:        "sig",
	})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if result.Booking.Status != enums.BookingStatusConfirmed {
		t.Fatalf("expected confirmed booking, got %s", result.Booking.Status)
	}
	if result.Booking.PaymentStatus != enums.BookingPaymentStatusPaid {
		t.Fatalf("expected paid booking, got %s", result.Booking.PaymentStatus)
	}
	if result.Booking.ConfirmedAt == nil {
		t.Fatal("expected confirmed_at to be set")
	}

	var stored models.Payment
	if err := f.db.First(&stored, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if stored.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success payment, got %s", stored.Status)
	}
	if stored.GatewayPaymentID == nil || *stored.GatewayPaymentID != "pay_xyz" {
		t.Fatal("expected gateway payment id stored")
	}
	if stored.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}

	var clientRow models.ClientProfile
	if err := f.db.First(&clientRow, "id = ?", f.client.ID).Error; err != nil {
		t.Fatalf("load client: %v", err)
	}
	if clientRow.TotalSessions != 1 {
		t.Fatalf("expected client total_sessions 1, got %d", clientRow.TotalSessions)
	}
	if clientRow.LastSessionDate == nil {
		t.Fatal("expected last_session_date to be set")
	}

	var counsellorRow models.Counsellor
	if err := f.db.First(&counsellorRow, "id = ?", f.counsellor.ID).Error; err != nil {
		t.Fatalf("load counsellor: %v", err)
	}
	if counsellorRow.TotalSessions != 1 || counsellorRow.TotalClients != 1 {
		t.Fatalf("expected counters 1/1, got sessions=%d clients=%d", counsellorRow.TotalSessions, counsellorRow.TotalClients)
	}
}

func TestVerifySecondBookingSamePairKeepsClientCount(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, true)
	ctx := context.Background()

	first, _, _ := f.seedPendingBooking(t, "order_1")
	if _, err := svc.Verify(ctx, VerifyInput{
		BookingReference: first.Reference, OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
	}); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	second, _, _ := f.seedPendingBooking(t, "order_2")
	if _, err := svc.Verify(ctx, VerifyInput{
		BookingReference: second.Reference, OrderID: "order_2", PaymentID: "pay_2", Signature: "sig",
	}); err != nil {
		t.Fatalf("second verify: %v", err)
	}

	var counsellorRow models.Counsellor
	if err := f.db.First(&counsellorRow, "id = ?", f.counsellor.ID).Error; err != nil {
		t.Fatalf("load counsellor: %v", err)
	}
	if counsellorRow.TotalSessions != 2 {
		t.Fatalf("expected total_sessions 2, got %d", counsellorRow.TotalSessions)
	}
	if counsellorRow.TotalClients != 1 {
		t.Fatalf("expected total_clients to stay 1, got %d", counsellorRow.TotalClients)
	}
}

func TestVerifyInvalidSignature(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, false)
	ctx := context.Background()
	booking, payment, slot := f.seedPendingBooking(t, "order_abc")

	_, err := svc.Verify(ctx, VerifyInput{
		BookingReference: booking.Reference,
		OrderID:          "order_abc",
		PaymentID:        "pay_xyz",
		Signature:        "forged",
	})
	if err == nil {
		t.Fatal("expected signature error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeSignature {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeSignature, err)
	}

	var storedPayment models.Payment
	if err := f.db.First(&storedPayment, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if storedPayment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", storedPayment.Status)
	}

	var storedBooking models.Booking
	if err := f.db.First(&storedBooking, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if storedBooking.PaymentStatus != enums.BookingPaymentStatusFailed {
		t.Fatalf("expected failed payment status, got %s", storedBooking.PaymentStatus)
	}
	if storedBooking.Status != enums.BookingStatusPending {
		t.Fatalf("expected lifecycle status untouched, got %s", storedBooking.Status)
	}

	// The slot stays reserved so the client can retry payment.
	var storedSlot models.AvailabilitySlot
	if err := f.db.First(&storedSlot, "id = ?", slot.ID).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if !storedSlot.IsBooked {
		t.Fatal("expected slot to remain reserved")
	}
}

func TestVerifyOrderMismatch(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, true)
	booking, _, _ := f.seedPendingBooking(t, "order_abc")

	_, err := svc.Verify(context.Background(), VerifyInput{
		BookingReference: booking.Reference,
		OrderID:          "order_other",
		PaymentID:        "pay_xyz",
		Signature:        "sig",
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeNotFound, err)
	}
}

func TestReportFailureReleasesSlot(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, true)
	ctx := context.Background()
	booking, payment, slot := f.seedPendingBooking(t, "order_abc")

	err := svc.ReportFailure(ctx, booking.Reference, "card declined", map[string]any{"code": "BAD_CARD"})
	if err != nil {
		t.Fatalf("ReportFailure returned error: %v", err)
	}

	var storedPayment models.Payment
	if err := f.db.First(&storedPayment, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if storedPayment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", storedPayment.Status)
	}
	if storedPayment.ErrorMessage == nil || *storedPayment.ErrorMessage != "card declined" {
		t.Fatal("expected failure description stored")
	}
	if storedPayment.GatewayPayload == nil || !strings.Contains(*storedPayment.GatewayPayload, "BAD_CARD") {
		t.Fatal("expected gateway payload stored")
	}

	var storedSlot models.AvailabilitySlot
	if err := f.db.First(&storedSlot, "id = ?", slot.ID).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if storedSlot.IsBooked {
		t.Fatal("expected slot released")
	}

	var storedBooking models.Booking
	if err := f.db.First(&storedBooking, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if storedBooking.PaymentStatus != enums.BookingPaymentStatusFailed {
		t.Fatalf("expected failed payment status, got %s", storedBooking.PaymentStatus)
	}
}

func TestVerifyReplayKeepsCountersStable(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, true)
	ctx := context.Background()
	booking, _, _ := f.seedPendingBooking(t, "order_abc")

	input := VerifyInput{
		BookingReference: booking.Reference,
		OrderID:          "order_abc",
		PaymentID:        "pay_xyz",
		Signature:        "sig",
	}
	if _, err := svc.Verify(ctx, input); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	result, err := svc.Verify(ctx, input)
	if err != nil {
		t.Fatalf("replayed verify: %v", err)
	}
	if result.Booking.Status != enums.BookingStatusConfirmed {
		t.Fatalf("expected confirmed booking, got %s", result.Booking.Status)
	}
	if result.Payment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success payment, got %s", result.Payment.Status)
	}

	var clientRow models.ClientProfile
	if err := f.db.First(&clientRow, "id = ?", f.client.ID).Error; err != nil {
		t.Fatalf("load client: %v", err)
	}
	if clientRow.TotalSessions != 1 {
		t.Fatalf("expected client total_sessions to stay 1, got %d", clientRow.TotalSessions)
	}

	var counsellorRow models.Counsellor
	if err := f.db.First(&counsellorRow, "id = ?", f.counsellor.ID).Error; err != nil {
		t.Fatalf("load counsellor: %v", err)
	}
	if counsellorRow.TotalSessions != 1 || counsellorRow.TotalClients != 1 {
		t.Fatalf("expected counters to stay 1/1, got sessions=%d clients=%d",
			counsellorRow.TotalSessions, counsellorRow.TotalClients)
	}
}

func TestReportFailureAfterSuccessRejected(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, true)
	ctx := context.Background()
	booking, payment, slot := f.seedPendingBooking(t, "order_abc")

	if _, err := svc.Verify(ctx, VerifyInput{
		BookingReference: booking.Reference,
		OrderID:          "order_abc",
		PaymentID:        "pay_xyz",
		Signature:        "sig",
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	err := svc.ReportFailure(ctx, booking.Reference, "late failure", nil)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeConflict, err)
	}

	var storedPayment models.Payment
	if err := f.db.First(&storedPayment, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if storedPayment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success payment untouched, got %s", storedPayment.Status)
	}

	var storedBooking models.Booking
	if err := f.db.First(&storedBooking, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if storedBooking.Status != enums.BookingStatusConfirmed ||
		storedBooking.PaymentStatus != enums.BookingPaymentStatusPaid {
		t.Fatalf("expected confirmed/paid booking, got %s/%s",
			storedBooking.Status, storedBooking.PaymentStatus)
	}

	var storedSlot models.AvailabilitySlot
	if err := f.db.First(&storedSlot, "id = ?", slot.ID).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if !storedSlot.IsBooked {
		t.Fatal("expected slot to stay reserved for the confirmed session")
	}
}

func TestVerifyInvalidSignatureAfterSuccessKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking, payment, _ := f.seedPendingBooking(t, "order_abc")

	if _, err := f.newService(t, true).Verify(ctx, VerifyInput{
		BookingReference: booking.Reference,
		OrderID:          "order_abc",
		PaymentID:        "pay_xyz",
		Signature:        "sig",
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	_, err := f.newService(t, false).Verify(ctx, VerifyInput{
		BookingReference: booking.Reference,
		OrderID:          "order_abc",
		PaymentID:        "pay_xyz",
		Signature:        "forged",
	})
	if err == nil {
		t.Fatal("expected signature error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeSignature {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeSignature, err)
	}

	var storedPayment models.Payment
	if err := f.db.First(&storedPayment, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if storedPayment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success payment untouched, got %s", storedPayment.Status)
	}

	var storedBooking models.Booking
	if err := f.db.First(&storedBooking, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if storedBooking.PaymentStatus != enums.BookingPaymentStatusPaid {
		t.Fatalf("expected paid booking untouched, got %s", storedBooking.PaymentStatus)
	}
}

func TestListAttemptsOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	svc := f.newService(t, true)
	ctx := context.Background()
	booking, first, _ := f.seedPendingBooking(t, "order_abc")

	retryOrder := "order_retry"
	retry := &models.Payment{
		ID:             uuid.New(),
		Reference:      "PAY-" + strings.ToUpper(uuid.NewString()[:10]),
		BookingID:      booking.ID,
		Amount:         booking.SessionFee,
		Currency:       "INR",
		GatewayOrderID: &retryOrder,
		Status:         enums.PaymentStatusPending,
		CreatedAt:      time.Now().Add(time.Minute),
	}
	if err := f.db.Create(retry).Error; err != nil {
		t.Fatalf("seed retry payment: %v", err)
	}

	attempts, err := svc.ListAttempts(ctx, booking.Reference)
	if err != nil {
		t.Fatalf("ListAttempts returned error: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].ID != retry.ID || attempts[1].ID != first.ID {
		t.Fatal("expected newest attempt first")
	}
}
