package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"starlog.db"`

	// HTTP API
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AuthMode       string        `envconfig:"AUTH_MODE" default:"api-key"` // "api-key", "jwt", or "none"
	APIKey         string        `envconfig:"API_KEY"`
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	JWTTTL         time.Duration `envconfig:"JWT_TTL" default:"24h"`
	RateLimitRPS   int           `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"200"`
	CORSOrigins    string        `envconfig:"CORS_ORIGINS"`

	// Narrative generation (optional — deterministic fallback when unset)
	AnthropicAPIKey   string `envconfig:"ANTHROPIC_API_KEY"`
	NarrativeModel    string `envconfig:"NARRATIVE_MODEL" default:"claude-sonnet-4-5"`
	ToneTemplatesPath string `envconfig:"TONE_TEMPLATES_PATH"`

	// Slack notifications (optional)
	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackChannel  string `envconfig:"SLACK_CHANNEL"`

	// Stale session sweep
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
	SweepStaleness time.Duration `envconfig:"SWEEP_STALENESS" default:"12h"`

	// Data retention
	RetentionDays int `envconfig:"RETENTION_DAYS" default:"365"`
}

// SlackEnabled returns true if Slack notifications are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// NarrativeEnabled returns true if an Anthropic API key is configured.
func (c *Config) NarrativeEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// CORSOriginList returns the parsed list of allowed CORS origins.
// Returns nil if not configured.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case "api-key":
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=api-key requires API_KEY")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	case "none":
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.SweepStaleness <= 0 {
		return fmt.Errorf("SWEEP_STALENESS must be positive")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
