package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"shiv-erp/internal/logger"
)

// Enrichment policies for order/bill line resolution.
const (
	PolicyDegrade = "degrade"
	PolicyStrict  = "strict"
)

// Config is the process-wide configuration, read from the environment
// (optionally seeded from a .env file).
type Config struct {
	DatabaseURL      string
	DBMaxConns       int32
	ServerPort       string
	RequestBodyLimit int64
	ShutdownTimeout  time.Duration

	// EnrichmentPolicy decides what happens when a product or tax lookup
	// fails while resolving order lines: "degrade" keeps going with
	// defaults, "strict" aborts the operation.
	EnrichmentPolicy string
	BillDueDays      int

	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REQUEST_BODY_LIMIT", 1<<20)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("ENRICHMENT_POLICY", PolicyDegrade)
	v.SetDefault("BILL_DUE_DAYS", 30)
	logDefaults := logger.DefaultConfig()
	v.SetDefault("LOG_LEVEL", logDefaults.Level)
	v.SetDefault("LOG_FORMAT", logDefaults.Format)
	v.SetDefault("LOG_TIME_FORMAT", logDefaults.TimeFormat)
	v.SetDefault("LOG_OUTPUT", logDefaults.Output)

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		DBMaxConns:       v.GetInt32("DB_MAX_CONNS"),
		ServerPort:       v.GetString("SERVER_PORT"),
		RequestBodyLimit: v.GetInt64("REQUEST_BODY_LIMIT"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		EnrichmentPolicy: strings.ToLower(strings.TrimSpace(v.GetString("ENRICHMENT_POLICY"))),
		BillDueDays:      v.GetInt("BILL_DUE_DAYS"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		LogTimeFormat:    v.GetString("LOG_TIME_FORMAT"),
		LogOutput:        v.GetString("LOG_OUTPUT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.EnrichmentPolicy {
	case PolicyDegrade, PolicyStrict:
	default:
		return fmt.Errorf("ENRICHMENT_POLICY must be %q or %q, got %q", PolicyDegrade, PolicyStrict, c.EnrichmentPolicy)
	}
	if c.BillDueDays < 0 {
		return fmt.Errorf("BILL_DUE_DAYS must not be negative")
	}
	if c.RequestBodyLimit <= 0 {
		return fmt.Errorf("REQUEST_BODY_LIMIT must be positive")
	}
	return nil
}

// RequireDatabase returns an error when no DATABASE_URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	return nil
}

// GetLoggerConfig returns the logger configuration derived from c. Empty
// fields take their value from logger.DefaultConfig.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	if c.LogLevel != "" {
		lc.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		lc.Format = c.LogFormat
	}
	if c.LogTimeFormat != "" {
		lc.TimeFormat = c.LogTimeFormat
	}
	if c.LogOutput != "" {
		lc.Output = c.LogOutput
	}
	return lc
}
