package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultPort           = 8080
	defaultLedgerCapacity = 1000
	defaultHandlerTimeout = 10 * time.Second
	defaultRateLimitBurst = 20
	defaultLogLevel       = "info"
)

// Config contains runtime configuration required by the service.
type Config struct {
	// Secret is the shared webhook secret. Required: the server refuses
	// to start unauthenticated.
	Secret string

	Port           int
	LedgerCapacity int
	LedgerDBURL    string
	HandlerTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
}

// Load reads configuration from environment variables.
//
// WEBHOOK_SECRET is mandatory. LEDGER_DB_URL is optional; when set, the
// delivery ledger is backed by Postgres instead of process memory.
// RATE_LIMIT_RPS of 0 disables rate limiting.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("port", defaultPort)
	v.SetDefault("ledger_capacity", defaultLedgerCapacity)
	v.SetDefault("handler_timeout", defaultHandlerTimeout)
	v.SetDefault("rate_limit_rps", 0.0)
	v.SetDefault("rate_limit_burst", defaultRateLimitBurst)
	v.SetDefault("log_level", defaultLogLevel)

	// AutomaticEnv only resolves keys viper already knows about, so the
	// keys without defaults are bound explicitly.
	v.AutomaticEnv()
	for _, key := range []string{"webhook_secret", "ledger_db_url"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Secret:         strings.TrimSpace(v.GetString("webhook_secret")),
		Port:           v.GetInt("port"),
		LedgerCapacity: v.GetInt("ledger_capacity"),
		LedgerDBURL:    v.GetString("ledger_db_url"),
		HandlerTimeout: v.GetDuration("handler_timeout"),
		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
		LogLevel:       v.GetString("log_level"),
	}

	if cfg.Secret == "" {
		return Config{}, errors.New("WEBHOOK_SECRET required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT must be in (0,65535], got %d", cfg.Port)
	}
	if cfg.LedgerCapacity <= 0 {
		return Config{}, fmt.Errorf("LEDGER_CAPACITY must be positive, got %d", cfg.LedgerCapacity)
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, errors.New("HANDLER_TIMEOUT must be positive")
	}

	return cfg, nil
}
