package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://giftbot@localhost/giftbot?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.PrometheusPort)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.BotEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("STORE_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {"DATABASE_URL": ""},
		"missing jwt secret":   {"JWT_SECRET": ""},
		"bad redis db":         {"REDIS_DB": "two"},
		"bad timeout":          {"STORE_TIMEOUT": "soon"},
		"negative ttl":         {"CACHE_TTL": "-1m"},
		"bad log format":       {"LOG_FORMAT": "xml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
