package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	HandoffBackend     string        `mapstructure:"HANDOFF_BACKEND"`
	HandoffTTL         time.Duration `mapstructure:"HANDOFF_TTL"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	ReferenceDataFile  string        `mapstructure:"REFERENCE_DATA_FILE"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	SessionIdleTimeout time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	BuilderURL         string        `mapstructure:"BUILDER_URL"`
	HospitalName       string        `mapstructure:"HOSPITAL_NAME"`
	DepartmentName     string        `mapstructure:"DEPARTMENT_NAME"`
	PDFFontFile        string        `mapstructure:"PDF_FONT_FILE"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
}

var keys = []string{
	"PORT", "ENV",
	"HANDOFF_BACKEND", "HANDOFF_TTL", "REDIS_URL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REFERENCE_DATA_FILE", "TIMEZONE", "SESSION_IDLE_TIMEOUT",
	"BUILDER_URL", "HOSPITAL_NAME", "DEPARTMENT_NAME", "PDF_FONT_FILE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("HANDOFF_BACKEND", "memory")
	v.SetDefault("HANDOFF_TTL", "24h")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("TIMEZONE", "Asia/Kolkata")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "2h")
	v.SetDefault("BUILDER_URL", "/")
	v.SetDefault("HOSPITAL_NAME", "Dr. Pujar Hospital")
	v.SetDefault("DEPARTMENT_NAME", "Diagnostic Laboratory")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BODY_LIMIT", "64K")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves TIMEZONE, the zone used to date new billing records.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the configuration is complete for the selected handoff
// backend.
func (c *Config) Validate() error {
	switch c.HandoffBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when HANDOFF_BACKEND is \"redis\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when HANDOFF_BACKEND is \"postgres\"")
		}
	default:
		return fmt.Errorf("HANDOFF_BACKEND must be \"memory\", \"redis\", or \"postgres\", got %q", c.HandoffBackend)
	}

	if c.HandoffTTL <= 0 {
		return fmt.Errorf("HANDOFF_TTL must be positive, got %s", c.HandoffTTL)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set, got %d", c.RateLimitBurst)
	}
	if c.PDFFontFile != "" {
		if _, err := os.Stat(c.PDFFontFile); err != nil {
			return fmt.Errorf("PDF_FONT_FILE: %w", err)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
