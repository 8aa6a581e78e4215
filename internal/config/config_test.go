package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, DriverMySQL, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	assert.False(t, cfg.SMTPConfigured())
	assert.Contains(t, cfg.DatabaseDSN, "clientFoundRows=true")
	assert.Contains(t, cfg.DatabaseDSN, "parseTime=true")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("RESET_TOKEN_TTL", "10m")
	t.Setenv("FRONTEND_URL", "https://app.example.com/")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_USER", "mailer")
	t.Setenv("EMAIL_PORT", "2525")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("S3_BUCKET", "photos")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "https://app.example.com", cfg.FrontendURL)
	assert.True(t, cfg.SMTPConfigured())
	assert.Equal(t, 2525, cfg.EmailPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "photos", cfg.S3Bucket)
	assert.InDelta(t, 0.5, cfg.RateLimitRPS, 1e-9)
}

func TestLoad_NormalizesDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "app:pw@tcp(db:3306)/inventory?charset=utf8mb4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(cfg.DatabaseDSN, "app:pw@tcp(db:3306)/inventory?"))
	assert.Contains(t, cfg.DatabaseDSN, "clientFoundRows=true")
	assert.Contains(t, cfg.DatabaseDSN, "charset=utf8mb4")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"production default secret", map[string]string{"ENV": "production"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "postgres"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad dsn", map[string]string{"DATABASE_DSN": "not a dsn"}},
		{"zero expiry", map[string]string{"JWT_EXPIRY": "0s"}},
		{"smtp host without user", map[string]string{"EMAIL_HOST": "smtp.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	Config{Env: "production", LogLevel: slog.LevelInfo}.NewLogger(&buf).Info("started", "port", "5000")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "started", rec["msg"])
	assert.Equal(t, "5000", rec["port"])

	buf.Reset()
	logger := Config{Env: "development", LogLevel: slog.LevelWarn}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("started", "port", "5000")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=started port=5000")
	assert.False(t, json.Valid(buf.Bytes()))
}
