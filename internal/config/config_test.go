package config

import (
	"testing"
	"time"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cashlens")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, models.DefaultSettings(), cfg.ReconciliationDefaults())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cashlens")
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("RECON_DATE_TOLERANCE_DAYS", "7")
	t.Setenv("RECON_AMOUNT_TOLERANCE", "percent")
	t.Setenv("RECON_MATCH_BY_DESCRIPTION", "false")
	t.Setenv("ENABLE_RATE_LIMITING", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.EnableRateLimiting)

	settings := cfg.ReconciliationDefaults()
	assert.Equal(t, 7, settings.DateTolerance)
	assert.Equal(t, models.AmountTolerancePercent, settings.AmountTolerance)
	assert.False(t, settings.MatchByDescription)
	assert.True(t, settings.MatchByAmount)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}},
		{"production without clerk", map[string]string{"ENVIRONMENT": "production", "S3_BUCKET": "b"}},
		{"production without bucket", map[string]string{"ENVIRONMENT": "production", "CLERK_SECRET_KEY": "sk_test"}},
		{"negative tolerance", map[string]string{"RECON_DATE_TOLERANCE_DAYS": "-1"}},
		{"unknown amount tolerance", map[string]string{"RECON_AMOUNT_TOLERANCE": "fuzzy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost:5432/cashlens")
			t.Setenv("CLERK_SECRET_KEY", "")
			t.Setenv("S3_BUCKET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}
