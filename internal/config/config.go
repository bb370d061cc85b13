// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/touchgrass/touchgrass/internal/backend"
	"github.com/touchgrass/touchgrass/internal/location"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// ErrInvalid is returned when a setting fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of settings for the API server and CLI.
type Config struct {
	Port        string `mapstructure:"APP_PORT" validate:"required,numeric"`
	Environment string `mapstructure:"APP_ENV" validate:"oneof=development staging production test"`
	LogLevel    string `mapstructure:"LOG_LEVEL" validate:"required"`

	// APIURL is the route backend base URL.
	APIURL      string `mapstructure:"API_URL"`
	MapboxToken string `mapstructure:"MAPBOX_TOKEN"`

	OTelEnabled  bool   `mapstructure:"OTEL_ENABLED"`
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	FallbackLat float64 `mapstructure:"FALLBACK_LAT" validate:"gte=-90,lte=90"`
	FallbackLon float64 `mapstructure:"FALLBACK_LON" validate:"gte=-180,lte=180"`

	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT" validate:"gt=0"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL" validate:"gt=0"`
	RequireTLS     bool          `mapstructure:"REQUIRE_TLS"`

	// Warnings collects settings that were replaced by their defaults.
	Warnings []string `mapstructure:"-"`
}

var defaults = map[string]any{
	"APP_PORT":                    "8080",
	"APP_ENV":                     "development",
	"LOG_LEVEL":                   "info",
	"API_URL":                     backend.DefaultBaseURL,
	"MAPBOX_TOKEN":                "",
	"OTEL_ENABLED":                false,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	"FALLBACK_LAT":                location.SanFrancisco.Lat,
	"FALLBACK_LON":                location.SanFrancisco.Lon,
	"BACKEND_TIMEOUT":             backend.DefaultTimeout,
	"SESSION_TTL":                 30 * time.Minute,
	"REQUIRE_TLS":                 false,
}

// Load reads settings from the environment. Values in envFiles fill in
// anything the environment leaves unset; missing files are skipped.
func Load(envFiles ...string) (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	for _, file := range envFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read %s: %w", file, err)
		}
		for key, val := range values {
			if _, set := os.LookupEnv(key); !set {
				v.SetDefault(key, val)
			}
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if !validBaseURL(cfg.APIURL) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("API_URL %q is malformed, using %s", cfg.APIURL, backend.DefaultBaseURL))
		cfg.APIURL = backend.DefaultBaseURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalid, cfg.LogLevel)
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validBaseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Level returns the parsed log level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Fallback returns the fallback origin.
func (c Config) Fallback() walk.Coordinate {
	return walk.Coordinate{Lat: c.FallbackLat, Lon: c.FallbackLon}
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
