package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("DEBUG_ROUTES", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "nope")

	cfg := Load("campus-chat-api")

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.DebugRoutes)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "campus.events", cfg.AMQPExchange)
}

func TestServiceNameOverride(t *testing.T) {
	t.Setenv("SERVICE_NAME", "chat-edge")
	assert.Equal(t, "chat-edge", Load("campus-chat-api").ServiceName)
}
