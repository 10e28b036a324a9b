package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pujar/labbill/internal/config"
	"github.com/pujar/labbill/internal/domain/billing"
	"github.com/pujar/labbill/internal/domain/report"
	"github.com/pujar/labbill/internal/platform/db"
	"github.com/pujar/labbill/internal/platform/handoff"
	"github.com/pujar/labbill/internal/platform/middleware"
)

const version = "0.1.0"

// sweepInterval is how often idle sessions and expired handoff slots are
// cleared.
const sweepInterval = time.Minute

func main() {
	rootCmd := &cobra.Command{
		Use:          "labbill",
		Short:        "Hospital laboratory billing service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(renderCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the billing API and report server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newLogger writes console output in development and JSON otherwise.
// Production drops debug events.
func newLogger(cfg *config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	if cfg.IsProduction() {
		return logger.Level(zerolog.InfoLevel)
	}
	return logger.Level(zerolog.DebugLevel)
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	logger := newLogger(cfg)
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load timezone")
	}
	ref, err := config.LoadReferenceData(cfg.ReferenceDataFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load reference data")
	}

	// Handoff channel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, closeStore, err := handoff.Open(ctx, handoff.Options{
		Backend:     cfg.HandoffBackend,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.HandoffBackend).Msg("failed to open handoff store")
	}
	defer closeStore()
	logger.Info().Str("backend", cfg.HandoffBackend).Dur("ttl", cfg.HandoffTTL).Msg("handoff store ready")

	// Domain services
	now := func() time.Time { return time.Now().In(loc) }
	sessions := billing.NewSessionStore(now)
	billingSvc := billing.NewService(ref, sessions, store, logger)
	billingSvc.SetClock(now)
	billingSvc.SetHandoffTTL(cfg.HandoffTTL)

	branding := report.NewBranding(cfg.HospitalName, cfg.DepartmentName)
	branding.PDFFont = cfg.PDFFontFile
	renderer := report.NewRenderer(store, branding)

	go runSweeper(ctx, sessions, cfg.SessionIdleTimeout, store, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = report.NewTemplates()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))

	// API and page groups
	apiV1 := e.Group("/api/v1", middleware.SecurityHeaders(middleware.APIPolicy))
	pages := e.Group("", middleware.SecurityHeaders(middleware.ReportPolicy))

	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)
	report.NewHandler(renderer, cfg.BuilderURL, logger).RegisterRoutes(pages, apiV1)

	// Health check
	e.GET("/health", db.HealthHandler(version, handoffCheck(cfg.HandoffBackend, store)))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func handoffCheck(backend string, store handoff.Store) db.Check {
	if backend == "" {
		backend = handoff.BackendMemory
	}
	check := db.Check{Name: "handoff_" + backend, Pinger: store}
	if pg, ok := store.(*handoff.PostgresStore); ok {
		check.Stats = func() any { return pg.PoolStats() }
	}
	return check
}

// runSweeper drops idle builder sessions and expired handoff slots until
// ctx is cancelled.
func runSweeper(ctx context.Context, sessions *billing.SessionStore, idle time.Duration, store handoff.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, sessions, idle, store, logger)
		}
	}
}

func sweep(ctx context.Context, sessions *billing.SessionStore, idle time.Duration, store handoff.Store, logger zerolog.Logger) {
	if n := sessions.Sweep(idle); n > 0 {
		logger.Debug().Int("sessions", n).Msg("idle sessions removed")
	}
	switch s := store.(type) {
	case *handoff.MemoryStore:
		if n := s.Purge(); n > 0 {
			logger.Debug().Int("slots", n).Msg("expired handoff slots removed")
		}
	case *handoff.PostgresStore:
		if err := s.Purge(ctx); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("handoff purge failed")
		}
	}
}
