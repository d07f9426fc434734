package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "file://migrations", cfg.MigrationsPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2*time.Second, cfg.ModelTimeout)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerOpenTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.ReportsEnabled())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"PORT":                 "9090",
		"DATABASE_URL":         "postgres://u:p@db:5432/checker?sslmode=disable",
		"LOG_LEVEL":            "debug",
		"LOG_FORMAT":           "console",
		"MODEL_URL":            "http://model:8000/predict",
		"MODEL_TIMEOUT":        "500ms",
		"BREAKER_MAX_FAILURES": "2",
		"CORS_ORIGINS":         "http://localhost:3000,https://app.example.com",
		"TELEGRAM_BOT_TOKEN":   "token",
		"DOCTOR_CHAT_ID":       "-100123",
	}})
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 500*time.Millisecond, cfg.ModelTimeout)
	assert.Equal(t, uint32(2), cfg.BreakerMaxFailures)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, int64(-100123), cfg.DoctorChatID)
	assert.True(t, cfg.ReportsEnabled())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non numeric port", env: map[string]string{"PORT": "http"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "trace"}},
		{name: "unknown log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "bad duration", env: map[string]string{"MODEL_TIMEOUT": "soon"}},
		{name: "zero breaker failures", env: map[string]string{"BREAKER_MAX_FAILURES": "0"}},
		{name: "model url not a url", env: map[string]string{"MODEL_URL": "model"}},
		{name: "both model sources", env: map[string]string{"MODEL_PATH": "models/m.yaml", "MODEL_URL": "http://model/predict"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(env.Options{Environment: tt.env})
			assert.Error(t, err)
		})
	}
}
