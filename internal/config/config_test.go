package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchgrass/touchgrass/internal/config"
	"github.com/touchgrass/touchgrass/internal/location"
)

var keys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "API_URL", "MAPBOX_TOKEN",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "FALLBACK_LAT", "FALLBACK_LON",
	"BACKEND_TIMEOUT", "SESSION_TTL", "REQUIRE_TLS",
}

// clearEnv unsets every setting for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, old) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Equal(t, "http://localhost:5001/api", cfg.APIURL)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, location.SanFrancisco, cfg.Fallback())
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.RequireTLS)
	assert.Empty(t, cfg.Warnings)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_URL", "https://walks.example.com/api/")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("FALLBACK_LAT", "51.5074")
	t.Setenv("FALLBACK_LON", "-0.1278")
	t.Setenv("BACKEND_TIMEOUT", "45s")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("REQUIRE_TLS", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, "https://walks.example.com/api", cfg.APIURL)
	assert.True(t, cfg.OTelEnabled)
	assert.InDelta(t, 51.5074, cfg.Fallback().Lat, 1e-9)
	assert.InDelta(t, -0.1278, cfg.Fallback().Lon, 1e-9)
	assert.Equal(t, 45*time.Second, cfg.BackendTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.RequireTLS)
}

func TestLoad_MalformedAPIURL(t *testing.T) {
	for _, raw := range []string{"localhost:5001", "not a url", "ftp://example.com"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("API_URL", raw)

			cfg, err := config.Load()
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:5001/api", cfg.APIURL)
			require.Len(t, cfg.Warnings, 1)
			assert.Contains(t, cfg.Warnings[0], "API_URL")
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port", key: "APP_PORT", value: "eighty"},
		{name: "environment", key: "APP_ENV", value: "moon"},
		{name: "log level", key: "LOG_LEVEL", value: "loud"},
		{name: "latitude", key: "FALLBACK_LAT", value: "91"},
		{name: "longitude", key: "FALLBACK_LON", value: "-181"},
		{name: "timeout", key: "BACKEND_TIMEOUT", value: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7070\nMAPBOX_TOKEN=pk.test\nAPP_ENV=staging\n"), 0o600))
	t.Setenv("APP_ENV", "test")

	cfg, err := config.Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "pk.test", cfg.MapboxToken)
	assert.Equal(t, "test", cfg.Environment, "environment wins over the file")
}
