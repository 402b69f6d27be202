package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/candidai/interview-gateway/internal/api"
	"github.com/candidai/interview-gateway/internal/audio"
	"github.com/candidai/interview-gateway/internal/clock"
	"github.com/candidai/interview-gateway/internal/config"
	"github.com/candidai/interview-gateway/internal/live"
	"github.com/candidai/interview-gateway/internal/llm"
	"github.com/candidai/interview-gateway/internal/observability"
	"github.com/candidai/interview-gateway/internal/relay"
	"github.com/candidai/interview-gateway/internal/resilience"
	"github.com/candidai/interview-gateway/internal/session"
	"github.com/candidai/interview-gateway/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("model", cfg.GeminiModel).
		Str("live_model", cfg.GeminiLiveModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Interview Gateway starting")

	// Snapshot store: Redis when configured, in-process otherwise
	var store storage.Store
	var redisStore *storage.RedisStore
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err = storage.NewRedisStoreFromURL(ctx, cfg.RedisURL, time.Duration(cfg.SnapshotTTLHours)*time.Hour)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		redisStore.SetRetryConfig(&resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        500 * time.Millisecond,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		})
		store = redisStore
		logger.Info().Msg("Snapshot storage backed by Redis")
	} else {
		store = storage.NewMemoryStore()
		logger.Warn().Msg("REDIS_URL not set; sessions will not survive a restart")
	}

	// Generation backend with a circuit breaker around call setup
	breaker := resilience.NewCircuitBreaker(
		"gemini",
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)
	client := llm.NewClient(
		cfg.GeminiAPIKey,
		llm.WithBaseURL(cfg.GeminiBaseURL),
		llm.WithModel(cfg.GeminiModel),
		llm.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.GenerationTimeout) * time.Second}),
		llm.WithCircuitBreaker(breaker),
		llm.WithBriefingTTL(time.Duration(cfg.BriefingCacheTTL)*time.Second),
	)

	// Session engine
	sessionConfig := session.Config{
		QuiescenceWindow: time.Duration(cfg.QuiescenceMs) * time.Millisecond,
		CooldownSeconds:  cfg.CooldownSeconds,
		AutoTrigger:      cfg.AutoTrigger,
		DefaultLang:      cfg.Language,
	}
	manager := session.NewManager(sessionConfig, clock.Real(), session.NewLLMGenerator(client), store, logger)

	// Audio relay: one live Gemini session per client connection
	reconnect := &resilience.ReconnectConfig{
		MaxAttempts: cfg.ReconnectMaxAttempts,
		Backoff:     time.Duration(cfg.ReconnectBackoff) * time.Millisecond,
		Multiplier:  2.0,
		MaxBackoff:  30 * time.Second,
	}
	liveFactory := func() live.Session {
		return live.NewGeminiSession(cfg.GeminiAPIKey, cfg.GeminiLiveModel, live.WithReconnectConfig(reconnect))
	}
	vadConfig := &audio.VADConfig{
		EnergyThreshold: cfg.VADEnergyThreshold,
		SilenceFrames:   cfg.VADSilenceFrames,
		FrameSize:       cfg.SampleRate / 50, // 20ms frames
	}
	registry := relay.NewRegistry()
	relayHandler := relay.NewHandler(registry, liveFactory, manager, vadConfig, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /api/live", relayHandler)

	// REST surface
	api.NewServer(manager, client, logger).Register(mux)

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness checks
	checks := map[string]observability.HealthCheckFunc{
		"gemini": func(ctx context.Context) (bool, error) {
			if breaker.GetState() == resilience.StateOpen {
				return false, fmt.Errorf("circuit breaker open")
			}
			return true, nil
		},
	}
	if redisStore != nil {
		checks["redis"] = func(ctx context.Context) (bool, error) {
			if err := redisStore.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: trigger responses are long-lived SSE streams.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		endpoint := fmt.Sprintf("ws://localhost:%s/api/live", cfg.Port)
		if cfg.GatewayURL != "" {
			endpoint = cfg.GatewayURL + "/api/live"
		}
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", endpoint).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
