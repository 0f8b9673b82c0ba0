package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/internal/auth"
	"github.com/mindbridge-care/mindbridge-backend/internal/availability"
	"github.com/mindbridge-care/mindbridge-backend/internal/bookings"
	"github.com/mindbridge-care/mindbridge-backend/internal/payments"
	"github.com/mindbridge-care/mindbridge-backend/internal/reviews"
	"github.com/mindbridge-care/mindbridge-backend/internal/therapists"
	pkgAuth "github.com/mindbridge-care/mindbridge-backend/pkg/auth"
	"github.com/mindbridge-care/mindbridge-backend/pkg/auth/session"
	"github.com/mindbridge-care/mindbridge-backend/pkg/config"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/pagination"
	"github.com/mindbridge-care/mindbridge-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessToken string) error {
	return nil
}

type stubAccountService struct{}

func (stubAccountService) Register(ctx context.Context, req accounts.RegisterRequest) (*accounts.RegisterResult, error) {
	return &accounts.RegisterResult{}, nil
}

func (stubAccountService) Me(ctx context.Context, userID uuid.UUID) (*accounts.Account, error) {
	return &accounts.Account{}, nil
}

type stubAvailabilityService struct{}

func (stubAvailabilityService) CreateSlots(ctx context.Context, counsellorID uuid.UUID, input availability.CreateSlotsInput) ([]models.AvailabilitySlot, error) {
	return nil, nil
}

func (stubAvailabilityService) ListSlots(ctx context.Context, counsellorID uuid.UUID, from, to time.Time) ([]models.AvailabilitySlot, error) {
	return nil, nil
}

func (stubAvailabilityService) PublicForDate(ctx context.Context, counsellorID uuid.UUID, date time.Time) ([]models.AvailabilitySlot, error) {
	return nil, nil
}

type stubBookingService struct{}

func (stubBookingService) Create(ctx context.Context, userID uuid.UUID, input bookings.CreateBookingInput) (*bookings.CreateBookingResult, error) {
	return &bookings.CreateBookingResult{}, nil
}

func (stubBookingService) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return &models.Booking{}, nil
}

func (stubBookingService) ListForClientUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return nil, nil
}

func (stubBookingService) ListForCounsellorUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return nil, nil
}

func (stubBookingService) Cancel(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error) {
	return &models.Booking{}, nil
}

func (stubBookingService) Complete(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error) {
	return &models.Booking{}, nil
}

type stubPaymentService struct{}

func (stubPaymentService) Verify(ctx context.Context, input payments.VerifyInput) (*payments.VerifyResult, error) {
	return &payments.VerifyResult{}, nil
}

func (stubPaymentService) ReportFailure(ctx context.Context, bookingReference, description string, payload map[string]any) error {
	return nil
}

func (stubPaymentService) ListAttempts(ctx context.Context, bookingReference string) ([]models.Payment, error) {
	return nil, nil
}

type stubTherapistService struct{}

func (stubTherapistService) List(ctx context.Context, filter therapists.ListFilter) (*therapists.DirectoryPage, error) {
	return &therapists.DirectoryPage{}, nil
}

func (stubTherapistService) Get(ctx context.Context, id uuid.UUID, reviewPage pagination.Params) (*therapists.Detail, error) {
	return &therapists.Detail{Counsellor: &models.Counsellor{ID: id}}, nil
}

func (stubTherapistService) DashboardForUser(ctx context.Context, userID uuid.UUID) (*therapists.Dashboard, error) {
	return &therapists.Dashboard{Counsellor: &models.Counsellor{}}, nil
}

type stubReviewService struct{}

func (stubReviewService) Submit(ctx context.Context, clientUserID uuid.UUID, input reviews.SubmitInput) (*models.Review, error) {
	return &models.Review{}, nil
}

func (stubReviewService) Update(ctx context.Context, clientUserID, reviewID uuid.UUID, input reviews.UpdateInput) (*models.Review, error) {
	return &models.Review{}, nil
}

func (stubReviewService) Delete(ctx context.Context, clientUserID, reviewID uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionChecker{},
		prometheus.NewRegistry(),
		stubAuthService{},
		stubAccountService{},
		stubAvailabilityService{},
		stubBookingService{},
		stubPaymentService{},
		stubTherapistService{},
		stubReviewService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	profileID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:    uuid.New(),
		Role:      role,
		ProfileID: &profileID,
		JTI:       session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestTherapistDirectoryIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	list := httptest.NewRequest(http.MethodGet, "/api/v1/therapists", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public directory got %d", resp.Code)
	}

	detail := httptest.NewRequest(http.MethodGet, "/api/v1/therapists/"+uuid.NewString(), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, detail)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public detail got %d", resp.Code)
	}
}

func TestLoginRouteWired(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"email":"a@example.com","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestCounsellorGroupRequiresCounsellorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	client := httptest.NewRequest(http.MethodGet, "/api/v1/counsellor/dashboard", nil)
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client on dashboard got %d", resp.Code)
	}

	counsellor := httptest.NewRequest(http.MethodGet, "/api/v1/counsellor/dashboard", nil)
	counsellor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCounsellor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, counsellor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for counsellor dashboard got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin ping got %d", resp.Code)
	}
}
