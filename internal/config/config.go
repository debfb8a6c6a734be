package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultHeliconeBaseURL = "https://oai.hconeai.com/v1"
	DefaultModel           = "gpt-3.5-turbo"
)

type Config struct {
	// Server
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"`

	// Completion service
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	// Fixed to DefaultModel unless OPENAI_MODEL overrides it.
	Model          string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Helicone proxy
	HeliconeAPIKey  string `env:"HELICONE_API_KEY"`
	// Fixed to DefaultHeliconeBaseURL unless HELICONE_BASE_URL overrides it.
	HeliconeBaseURL string `env:"HELICONE_BASE_URL" envDefault:"https://oai.hconeai.com/v1"`

	// Rate limiting
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	RedisURL           string `env:"REDIS_URL"`

	// Take the client address from X-Forwarded-For / X-Real-IP. Only safe
	// behind a proxy that sets those headers itself.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Frontend
	FrontendURL string `env:"FRONTEND_URL" envDefault:"*"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

// ForwardingEnabled reports whether a completion-service key is configured.
func (c *Config) ForwardingEnabled() bool {
	return c.OpenAIAPIKey != ""
}
