// Package config provides the static configuration registry of the CRM
// client: webhook endpoints, UI element identifiers, price tables and
// timeouts. Raw settings are loaded from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings holds the externally supplied configuration.
// Durations are expressed in milliseconds to match the backend contract.
type Settings struct {
	// Webhook endpoints
	BaseURL            string `env:"MINICRM_BASE_URL"`
	SearchPath         string `env:"MINICRM_SEARCH_PATH"`
	GatewayPath        string `env:"MINICRM_GATEWAY_PATH"`
	AgentPath          string `env:"MINICRM_AGENT_PATH"`
	QualificationPath  string `env:"MINICRM_QUALIFICATION_PATH"`
	EmailPath          string `env:"MINICRM_EMAIL_PATH"`
	EnterpriseFormPath string `env:"MINICRM_ENTERPRISE_FORM_PATH"`

	// Requests
	TimeoutMillis       int `env:"MINICRM_TIMEOUT_MS"`
	SearchTimeoutMillis int `env:"MINICRM_SEARCH_TIMEOUT_MS"`
	MaxRetries          int `env:"MINICRM_MAX_RETRIES"`
	RetryDelayMillis    int `env:"MINICRM_RETRY_DELAY_MS"`

	// Outbound pacing (requests per second per webhook, 0 disables)
	RateLimit float64 `env:"MINICRM_RATE_LIMIT"`
	RateBurst int     `env:"MINICRM_RATE_BURST"`

	// Search
	SearchDelayMillis int `env:"MINICRM_SEARCH_DELAY_MS"`
	SearchMinLength   int `env:"MINICRM_SEARCH_MIN_LENGTH"`
	MaxSearchResults  int `env:"MINICRM_MAX_SEARCH_RESULTS"`
	CacheTTLMillis    int `env:"MINICRM_CACHE_TTL_MS"`

	// Optional shared cache backend
	RedisURL string `env:"MINICRM_REDIS_URL"`

	// Logging and serving
	LogLevel   string `env:"MINICRM_LOG_LEVEL"`
	LogPretty  bool   `env:"MINICRM_LOG_PRETTY"`
	ListenAddr string `env:"MINICRM_LISTEN_ADDR"`
}

// DefaultSettings returns the settings the application shipped with.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:             "https://n8n.dsolution-ia.fr/webhook",
		SearchPath:          "/recherche_entreprise",
		GatewayPath:         "/gateway_entities",
		AgentPath:           "/crm_agent",
		QualificationPath:   "/gateway_entities",
		EmailPath:           "/gateway_entities",
		EnterpriseFormPath:  "/gateway_entities",
		TimeoutMillis:       10000,
		SearchTimeoutMillis: 15000,
		MaxRetries:          3,
		RetryDelayMillis:    1000,
		RateLimit:           0,
		RateBurst:           1,
		SearchDelayMillis:   300,
		SearchMinLength:     2,
		MaxSearchResults:    20,
		CacheTTLMillis:      300000,
		LogLevel:            "info",
		ListenAddr:          ":8080",
	}
}

// LoadSettings starts from DefaultSettings and overrides every field whose
// environment variable is set.
func LoadSettings() (Settings, error) {
	s := DefaultSettings()
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports settings that would make every call fail.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("base url is required")
	}
	if s.TimeoutMillis <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %d)", s.TimeoutMillis)
	}
	if s.SearchTimeoutMillis <= 0 {
		return fmt.Errorf("search timeout must be > 0 (got %d)", s.SearchTimeoutMillis)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0 (got %d)", s.MaxRetries)
	}
	if s.RetryDelayMillis < 0 {
		return fmt.Errorf("retry delay must be >= 0 (got %d)", s.RetryDelayMillis)
	}
	if s.SearchMinLength < 0 {
		return fmt.Errorf("search min length must be >= 0 (got %d)", s.SearchMinLength)
	}
	return nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
