package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ashinemobile/booking-backend/internal/booking"
	"github.com/ashinemobile/booking-backend/internal/config"
	httpapi "github.com/ashinemobile/booking-backend/internal/http"
	"github.com/ashinemobile/booking-backend/internal/jobs"
	"github.com/ashinemobile/booking-backend/internal/logging"
	"github.com/ashinemobile/booking-backend/internal/mail"
	"github.com/ashinemobile/booking-backend/internal/notify"
	"github.com/ashinemobile/booking-backend/internal/observability"
	"github.com/ashinemobile/booking-backend/internal/ratelimit"
	"github.com/ashinemobile/booking-backend/internal/repo"
	"github.com/ashinemobile/booking-backend/internal/services"
)

func newServeCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booking API",
		Long: `Run the booking API. Configuration comes from the environment, optionally
seeded from a .env file; see internal/config for every variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

func runServe(ctx context.Context, envFile string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	limiter, closeStore, err := newLimiter(ctx, cfg.RateLimit, log.Logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := newBookingService(cfg, log.Logger)
	if err != nil {
		return err
	}

	sched := jobs.NewScheduler(log.Logger)
	if err := sched.SchedulePurge(cfg.IdempotencyPurgeSchedule, &jobs.IdempotencyPurge{DB: db}); err != nil {
		return err
	}
	sched.Start()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Booking: svc, Limiter: limiter, DB: db}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.RateLimit.Store).
			Bool("mail_configured", cfg.Mail.Configured()).
			Bool("sms", cfg.SMS.Enabled()).
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	sched.Stop(sctx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// newLimiter builds the booking limiter on the configured store. An
// unreachable Redis is only logged: store errors fail open per request.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig, logger zerolog.Logger) (*ratelimit.Limiter, func() error, error) {
	limit := ratelimit.Limit{Max: cfg.Max, Window: cfg.Window}

	switch cfg.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; rate limiting fails open until it is")
		}
		return ratelimit.New(ratelimit.NewRedisStore(rdb, cfg.Redis.Prefix), limit), rdb.Close, nil
	case "", "memory":
		store := ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(cfg.Sweep))
		return ratelimit.New(store, limit), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown rate limit store %q", cfg.Store)
}

// newBookingService wires mail and SMS delivery from cfg. Without a
// SendGrid key the service is built with no mailer and answers every valid
// booking with the not-configured error.
func newBookingService(cfg config.Config, logger zerolog.Logger) (*services.BookingService, error) {
	renderer, err := mail.NewRenderer(cfg.Site.Brand, booking.DefaultCatalog())
	if err != nil {
		return nil, err
	}

	svc := &services.BookingService{Renderer: renderer, From: cfg.Mail.From}
	if cfg.Mail.Configured() {
		sg := mail.NewSendGridSender(cfg.Mail.SendGridAPIKey)
		svc.Mailer = mail.WithTimeout(mail.NewThrottled(sg, cfg.Mail.RateRPS, cfg.Mail.RateBurst), cfg.Mail.DispatchTimeout)
	} else {
		logger.Warn().Msg("SENDGRID_API_KEY not set; bookings are rejected until it is")
	}
	if cfg.SMS.Enabled() {
		svc.SMS = notify.NewTwilioNotifier(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From, cfg.SMS.To)
		svc.SMSTimeout = cfg.Mail.DispatchTimeout
	}
	return svc, nil
}
