package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "8081")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, "8081", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "RENDER_REPORT_PDF", cfg.Report.RenderTopic)
	assert.Equal(t, "whisper-large-v3", cfg.Ai.WhisperModel)
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	assert.True(t, TracingEnabled())

	t.Setenv("OTEL_ENABLED", "maybe")
	assert.False(t, TracingEnabled())
}
