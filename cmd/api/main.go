package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mindbridge-care/mindbridge-backend/api/routes"
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
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/metrics"
	"github.com/mindbridge-care/mindbridge-backend/pkg/migrate"
	"github.com/mindbridge-care/mindbridge-backend/pkg/razorpay"
	"github.com/mindbridge-care/mindbridge-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	razorpayClient, err := razorpay.New(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := accounts.NewUserRepository(gormDB)
	profileRepo := accounts.NewProfileRepository(gormDB)
	taxonomyRepo := accounts.NewTaxonomyRepository(gormDB)
	slotRepo := availability.NewRepository(gormDB)
	bookingRepo := bookings.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)

	accountService, err := accounts.NewService(dbClient, userRepo, profileRepo, taxonomyRepo, logg, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		ProfileRepo:    profileRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	availabilityService, err := availability.NewService(slotRepo, logg, cfg.Booking.MinLeadDays)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(dbClient, paymentRepo, gormDB, slotRepo, profileRepo, razorpayClient, logg, bookingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	bookingService, err := bookings.NewService(
		dbClient,
		bookingRepo,
		paymentRepo,
		slotRepo,
		profileRepo,
		razorpayClient,
		logg,
		bookingMetrics,
		bookings.Options{
			MinLeadDays:     cfg.Booking.MinLeadDays,
			Currency:        cfg.Booking.Currency,
			DefaultDuration: cfg.Booking.DefaultDurationMinutes,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	therapistService, err := therapists.NewService(therapists.NewRepository(gormDB), profileRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create therapist service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(dbClient, reviews.NewRepository(gormDB), gormDB, profileRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			registry,
			authService,
			accountService,
			availabilityService,
			bookingService,
			paymentService,
			therapistService,
			reviewService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
