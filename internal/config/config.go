package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"organ/internal/units"
	"organ/internal/wheel"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Session  SessionConfig
	Composer ComposerConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr            string        `validate:"required"`
	ShutdownTimeout time.Duration `validate:"gte=0"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int           `validate:"gte=0"`
	MaxOpenConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
	ConnMaxIdleTime time.Duration `validate:"gte=0"`
	UseMock         bool
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `validate:"omitempty,oneof=debug info warn warning error"`
}

// SessionConfig configures the cookie session that holds the working formula.
type SessionConfig struct {
	Lifetime     time.Duration `validate:"gt=0"`
	CookieName   string        `validate:"required"`
	CookieDomain string
	CookieSecure bool
}

// ComposerConfig holds the defaults handed to the scoring engine.
type ComposerConfig struct {
	DropsPerMl     float64 `validate:"gt=0"`
	Currency       string  `validate:"required,len=3"`
	Compatibility  wheel.Policy
	WheelPath      string
	WheelCacheSize int           `validate:"gt=0"`
	WheelCacheTTL  time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	policy, err := wheel.ParsePolicy(env("ORGAN_COMPATIBILITY"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:            envOr(":8080", "SERVER_ADDR", "ADDR"),
			ShutdownTimeout: parsed("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second, time.ParseDuration),
		},
		Database: DatabaseConfig{
			URL:             env("DATABASE_URL", "DB_URL"),
			MaxIdleConns:    parsed("DATABASE_MAX_IDLE_CONNS", 5, strconv.Atoi),
			MaxOpenConns:    parsed("DATABASE_MAX_OPEN_CONNS", 20, strconv.Atoi),
			ConnMaxLifetime: parsed("DATABASE_CONN_MAX_LIFETIME", time.Hour, time.ParseDuration),
			ConnMaxIdleTime: parsed("DATABASE_CONN_MAX_IDLE_TIME", 15*time.Minute, time.ParseDuration),
			UseMock:         parsed("DATABASE_USE_MOCK", false, strconv.ParseBool),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(envOr("info", "LOG_LEVEL")),
		},
		Session: SessionConfig{
			Lifetime:     parsed("SESSION_LIFETIME", 24*time.Hour, time.ParseDuration),
			CookieName:   envOr("organ_session", "SESSION_COOKIE_NAME"),
			CookieDomain: env("SESSION_COOKIE_DOMAIN"),
			CookieSecure: parsed("SESSION_COOKIE_SECURE", true, strconv.ParseBool),
		},
		Composer: ComposerConfig{
			DropsPerMl:     parsed("ORGAN_DROPS_PER_ML", units.DefaultDropsPerVolumeUnit, parseFloat),
			Currency:       strings.ToUpper(envOr("USD", "ORGAN_CURRENCY")),
			Compatibility:  policy,
			WheelPath:      env("ORGAN_WHEEL_PATH"),
			WheelCacheSize: parsed("ORGAN_WHEEL_CACHE_SIZE", 16, strconv.Atoi),
			WheelCacheTTL:  parsed("ORGAN_WHEEL_CACHE_TTL", 10*time.Minute, time.ParseDuration),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports the first offending field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		if e.StructField() == "Addr" {
			return fmt.Errorf("server address must not be empty")
		}
		return fmt.Errorf("invalid configuration: %s failed %q", e.Namespace(), e.Tag())
	}
	return err
}

// env returns the first of keys set to a non-blank value, trimmed.
func env(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func envOr(def string, keys ...string) string {
	if value := env(keys...); value != "" {
		return value
	}
	return def
}

// parsed reads key with parse and falls back to def when the variable is
// unset or malformed.
func parsed[T any](key string, def T, parse func(string) (T, error)) T {
	value := env(key)
	if value == "" {
		return def
	}
	v, err := parse(value)
	if err != nil {
		return def
	}
	return v
}

func parseFloat(value string) (float64, error) {
	return strconv.ParseFloat(value, 64)
}
