// Package config loads the server configuration from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config errors
var (
	ErrCSRFKeyRequired = errors.New("PARKY_CSRF_KEY is required in production")
	ErrCSRFKeyFormat   = errors.New("PARKY_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrRateLimit       = errors.New("PARKY_RATE_LIMIT must be positive")
	ErrResendFrom      = errors.New("PARKY_RESEND_FROM is required when PARKY_RESEND_KEY is set")
	ErrAdminPassword   = errors.New("PARKY_ADMIN_PASSWORD is required when PARKY_ADMIN_EMAIL is set")
	ErrDemoInProd      = errors.New("PARKY_SEED_DEMO cannot be enabled in production")
)

// Config is the process configuration.
type Config struct {
	Addr          string `env:"PARKY_ADDR"            envDefault:":8080"`
	Env           string `env:"PARKY_ENV"             envDefault:"development"`
	DBPath        string `env:"PARKY_DB_PATH"         envDefault:"parky.db"`
	LogLevel      string `env:"PARKY_LOG_LEVEL"       envDefault:"info"`
	CSRFKey       string `env:"PARKY_CSRF_KEY"`
	RateLimit     int    `env:"PARKY_RATE_LIMIT"      envDefault:"10"`
	ResendKey     string `env:"PARKY_RESEND_KEY"`
	ResendFrom    string `env:"PARKY_RESEND_FROM"`
	ReplyTo       string `env:"PARKY_REPLY_TO"`
	AdminContact  string `env:"PARKY_ADMIN_CONTACT"   envDefault:"admin"`
	Timezone      string `env:"PARKY_TIMEZONE"        envDefault:"Asia/Jakarta"`
	SlowQueryMs   int    `env:"PARKY_SLOW_QUERY_MS"   envDefault:"50"`
	SlowRequestMs int    `env:"PARKY_SLOW_REQUEST_MS" envDefault:"200"`
	StaticDir     string `env:"PARKY_STATIC_DIR"`
	AdminEmail    string `env:"PARKY_ADMIN_EMAIL"`
	AdminPassword string `env:"PARKY_ADMIN_PASSWORD"`
	SeedDemo      bool   `env:"PARKY_SEED_DEMO"       envDefault:"false"`

	// TrustedOrigins lists extra hosts allowed to post cross-origin requests, comma separated.
	TrustedOrigins []string `env:"PARKY_TRUSTED_ORIGINS" envSeparator:","`
}

// Load reads an optional .env file, then parses the environment.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config_event", "event", "dotenv_unreadable", "error", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the cross-field rules env tags cannot express.
func (c Config) Validate() error {
	if c.CSRFKey == "" && c.IsProduction() {
		return ErrCSRFKeyRequired
	}
	if c.CSRFKey != "" {
		key, err := hex.DecodeString(c.CSRFKey)
		if err != nil || len(key) != 32 {
			return ErrCSRFKeyFormat
		}
	}
	if c.RateLimit <= 0 {
		return ErrRateLimit
	}
	if c.ResendKey != "" && c.ResendFrom == "" {
		return ErrResendFrom
	}
	if c.AdminEmail != "" && c.AdminPassword == "" {
		return ErrAdminPassword
	}
	if c.SeedDemo && c.IsProduction() {
		return ErrDemoInProd
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether PARKY_ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// CSRFSecret returns the decoded CSRF key, or a random one outside production.
// A random key does not survive a restart.
func (c Config) CSRFSecret() ([]byte, error) {
	if c.CSRFKey != "" {
		key, err := hex.DecodeString(c.CSRFKey)
		if err != nil || len(key) != 32 {
			return nil, ErrCSRFKeyFormat
		}
		return key, nil
	}
	if c.IsProduction() {
		return nil, ErrCSRFKeyRequired
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key")
	return key, nil
}

// Location resolves PARKY_TIMEZONE.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("PARKY_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps PARKY_LOG_LEVEL onto a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SlowQueryThreshold is the duration above which queries log at WARN.
func (c Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// SlowRequestThreshold is the duration above which requests log at WARN.
func (c Config) SlowRequestThreshold() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}
