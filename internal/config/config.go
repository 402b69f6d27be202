package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the interview gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Public base URL for this service (e.g. https://xxx.ngrok-free.dev when behind ngrok).
	// Used for logging the WebSocket endpoint; clients connect to wss://<this-host>/api/live.
	// Optional; if unset, logs ws://localhost:PORT/api/live.
	GatewayURL string `envconfig:"GATEWAY_URL" default:""`

	// Gemini API configuration
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel     string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiLiveModel string `envconfig:"GEMINI_LIVE_MODEL" default:"gemini-2.5-flash-native-audio-preview-09-2025"`
	GeminiBaseURL   string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`

	// Language for prompts and user-facing errors (en, id)
	Language string `envconfig:"LANGUAGE" default:"en"`

	// Assist pipeline configuration
	AutoTrigger       bool `envconfig:"AUTO_TRIGGER" default:"true"`       // Fire suggestions automatically after silence
	QuiescenceMs      int  `envconfig:"QUIESCENCE_MS" default:"1000"`      // Idle window after the last final transcript before an auto trigger
	CooldownSeconds   int  `envconfig:"COOLDOWN_SECONDS" default:"10"`     // Lockout after a rate-limit signal
	BriefingCacheTTL  int  `envconfig:"BRIEFING_CACHE_TTL" default:"3600"` // Company briefing memoization TTL in seconds
	GenerationTimeout int  `envconfig:"GENERATION_TIMEOUT" default:"60"`   // Seconds before an in-flight generation call is abandoned

	// Snapshot storage (crash recovery). If REDIS_URL is empty the gateway
	// falls back to an in-process store and sessions do not survive restarts.
	RedisURL         string `envconfig:"REDIS_URL" default:""`
	SnapshotTTLHours int    `envconfig:"SNAPSHOT_TTL_HOURS" default:"24"`

	// Audio processing configuration
	SampleRate         int     `envconfig:"SAMPLE_RATE" default:"16000"`          // PCM16 mono sample rate expected from clients
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"` // RMS energy threshold for the speaking indicator
	VADSilenceFrames   int     `envconfig:"VAD_SILENCE_FRAMES" default:"15"`      // Frames of silence to mark speech end

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`         // Maximum reconnection attempts
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"`           // Reconnection backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.QuiescenceMs <= 0 {
		return fmt.Errorf("QUIESCENCE_MS must be positive, got %d", c.QuiescenceMs)
	}
	if c.CooldownSeconds <= 0 {
		return fmt.Errorf("COOLDOWN_SECONDS must be positive, got %d", c.CooldownSeconds)
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
