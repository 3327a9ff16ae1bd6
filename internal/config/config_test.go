package config

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

const validKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// TestParse_Defaults verifies the defaults with an empty environment.
func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DBPath != "parky.db" || cfg.Timezone != "Asia/Jakarta" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.RateLimit != 10 || cfg.SlowQueryMs != 50 || cfg.SlowRequestMs != 200 {
		t.Errorf("numeric defaults = %+v", cfg)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

// TestParse_Overrides verifies environment values are read.
func TestParse_Overrides(t *testing.T) {
	t.Setenv("PARKY_ADDR", ":9090")
	t.Setenv("PARKY_RATE_LIMIT", "25")
	t.Setenv("PARKY_TIMEZONE", "UTC")
	t.Setenv("PARKY_SLOW_QUERY_MS", "5")
	t.Setenv("PARKY_CSRF_KEY", validKey)

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.RateLimit != 25 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SlowQueryThreshold() != 5*time.Millisecond {
		t.Errorf("SlowQueryThreshold = %v", cfg.SlowQueryThreshold())
	}
	key, err := cfg.CSRFSecret()
	if err != nil || len(key) != 32 || key[31] != 0x1f {
		t.Errorf("CSRFSecret = %x, %v", key, err)
	}
}

// TestValidate verifies the cross-field rules.
func TestValidate(t *testing.T) {
	base := Config{RateLimit: 10, Timezone: "UTC", Env: "development"}
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"production without key", func(c *Config) { c.Env = "production" }, ErrCSRFKeyRequired},
		{"production with key", func(c *Config) { c.Env = "Production"; c.CSRFKey = validKey }, nil},
		{"short key", func(c *Config) { c.CSRFKey = "abcd" }, ErrCSRFKeyFormat},
		{"non hex key", func(c *Config) { c.CSRFKey = strings.Repeat("zz", 32) }, ErrCSRFKeyFormat},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, ErrRateLimit},
		{"resend without from", func(c *Config) { c.ResendKey = "re_123" }, ErrResendFrom},
		{"admin without password", func(c *Config) { c.AdminEmail = "admin@kampus.ac.id" }, ErrAdminPassword},
		{"demo in production", func(c *Config) { c.Env = "production"; c.CSRFKey = validKey; c.SeedDemo = true }, ErrDemoInProd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	bad := base
	bad.Timezone = "Mars/Olympus"
	if err := bad.Validate(); err == nil {
		t.Error("expected an unknown timezone to fail")
	}
}

// TestCSRFSecret_Random verifies a development key is generated when none is set.
func TestCSRFSecret_Random(t *testing.T) {
	cfg := Config{Env: "development"}
	a, err := cfg.CSRFSecret()
	if err != nil || len(a) != 32 {
		t.Fatalf("CSRFSecret = %x, %v", a, err)
	}
	b, _ := cfg.CSRFSecret()
	if string(a) == string(b) {
		t.Error("expected a fresh key per call")
	}
	if _, err := (Config{Env: "production"}).CSRFSecret(); !errors.Is(err, ErrCSRFKeyRequired) {
		t.Errorf("production CSRFSecret error = %v", err)
	}
}

// TestSlogLevel verifies level names map onto slog levels.
func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
