package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mindbridge-care/mindbridge-backend/api/controllers"
	"github.com/mindbridge-care/mindbridge-backend/api/middleware"
	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/internal/auth"
	"github.com/mindbridge-care/mindbridge-backend/internal/availability"
	"github.com/mindbridge-care/mindbridge-backend/internal/bookings"
	"github.com/mindbridge-care/mindbridge-backend/internal/payments"
	"github.com/mindbridge-care/mindbridge-backend/internal/reviews"
	"github.com/mindbridge-care/mindbridge-backend/internal/therapists"
	"github.com/mindbridge-care/mindbridge-backend/pkg/auth/session"
	"github.com/mindbridge-care/mindbridge-backend/pkg/config"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	metricsRegistry *prometheus.Registry,
	authService auth.Service,
	accountService accounts.Service,
	availabilityService availability.Service,
	bookingService bookings.Service,
	paymentService payments.Service,
	therapistService therapists.Service,
	reviewService reviews.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// Public directory: browsing counsellors needs no account.
	r.Route("/api/v1/therapists", func(r chi.Router) {
		r.Get("/", controllers.TherapistList(therapistService, logg))
		r.Get("/{counsellorId}", controllers.TherapistDetail(therapistService, logg))
		r.Get("/{counsellorId}/slots", controllers.PublicSlots(availabilityService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(accountService, authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/me", controllers.AccountMe(accountService, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.BookingCreate(bookingService, logg))
			r.Get("/me", controllers.MyBookings(bookingService, logg))
			r.Get("/{reference}", controllers.BookingDetail(bookingService, logg))
			r.Post("/{reference}/cancel", controllers.BookingCancel(bookingService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/verify", controllers.PaymentVerify(paymentService, logg))
			r.Post("/failure", controllers.PaymentFailure(paymentService, logg))
			r.Get("/{reference}/attempts", controllers.PaymentAttempts(paymentService, logg))
		})

		r.Route("/counsellor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleCounsellor), logg))
			r.Post("/slots", controllers.SlotsCreate(availabilityService, logg))
			r.Get("/slots", controllers.SlotsList(availabilityService, logg))
			r.Get("/bookings", controllers.CounsellorBookings(bookingService, logg))
			r.Post("/bookings/{reference}/complete", controllers.BookingComplete(bookingService, logg))
			r.Get("/dashboard", controllers.CounsellorDashboard(therapistService, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleClient), logg))
			r.Post("/", controllers.ReviewSubmit(reviewService, logg))
			r.Patch("/{reviewId}", controllers.ReviewUpdate(reviewService, logg))
			r.Delete("/{reviewId}", controllers.ReviewDelete(reviewService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/ping", controllers.AdminPing())
		})
	})

	return r
}
