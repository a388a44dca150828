package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/astralworks/starlog/internal/api"
	"github.com/astralworks/starlog/internal/clock"
	"github.com/astralworks/starlog/internal/config"
	"github.com/astralworks/starlog/internal/health"
	"github.com/astralworks/starlog/internal/metrics"
	"github.com/astralworks/starlog/internal/narrative"
	"github.com/astralworks/starlog/internal/notify"
	"github.com/astralworks/starlog/internal/settlement"
	"github.com/astralworks/starlog/internal/store"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Bool("narrative_enabled", cfg.NarrativeEnabled()).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("starting starlog")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Storage
	st, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// Metrics
	m := metrics.New()

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("database", func(ctx context.Context) health.Status {
		if err := st.DB().PingContext(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Narrative generation (optional — falls back to deterministic templates)
	var completer narrative.TextCompleter
	if cfg.NarrativeEnabled() {
		completer = narrative.NewAnthropicClient(cfg.AnthropicAPIKey,
			narrative.WithModel(cfg.NarrativeModel))
		logger.Info().Str("model", cfg.NarrativeModel).Msg("narrative generation enabled")
	} else {
		logger.Info().Msg("narrative API not configured — using fallback templates")
	}

	var templates *narrative.ToneTemplates
	if cfg.ToneTemplatesPath != "" {
		templates, err = narrative.LoadToneTemplates(cfg.ToneTemplatesPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.ToneTemplatesPath).
				Msg("failed to load tone templates (non-fatal)")
		}
	}
	gen := narrative.NewGenerator(completer, templates, logger)

	// Session event notifications (optional)
	var notifier notify.Notifier = notify.Nop{}
	if cfg.SlackEnabled() {
		notifier = notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, logger)
		logger.Info().Str("channel", cfg.SlackChannel).Msg("Slack notifications enabled")
	} else {
		logger.Info().Msg("Slack not configured — skipping notifications")
	}

	// Settlement service
	svc := settlement.New(st, clock.System(), gen, notifier, m, logger)

	// API server
	handlers := api.NewHandlers(svc, st, checker, clock.System(), logger)
	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: api.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, m, logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("api server error")
		}
	}()

	// Background sweeper: force-abandons sessions nobody touched for too long
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				swept, err := svc.SweepStale(ctx, cfg.SweepStaleness)
				if err != nil {
					logger.Error().Err(err).Msg("sweep failed")
				} else if swept > 0 {
					logger.Info().Int("swept", swept).Msg("stale sessions abandoned")
				}
			}
		}
	}()

	// Background retention: prunes old terminal sessions and viewed penalties
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := st.RunRetention(ctx, cfg.RetentionDays); err != nil {
					logger.Error().Err(err).Msg("retention run failed")
				}
			}
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	cancel()

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("starlog stopped")
}
