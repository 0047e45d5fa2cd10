package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "PROCESSING_API_URL", "DISPATCH_TIMEOUT", "EXPORT_BACKEND", "COMPRESS_MAX_BYTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8082", cfg.Processing.BaseURL)
	assert.Zero(t, cfg.Processing.Timeout)
	assert.Equal(t, int64(1024*1024), cfg.Compression.MaxBytes)
	assert.Equal(t, 1920, cfg.Compression.MaxDimension)
	assert.Empty(t, cfg.Export.Backend)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROCESSING_API_URL", "http://images.internal:9000/")
	t.Setenv("DISPATCH_TIMEOUT", "45s")
	t.Setenv("CACHE_RESULTS", "true")
	t.Setenv("EXPORT_BACKEND", "S3")
	t.Setenv("MAX_SESSIONS", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://images.internal:9000", cfg.Processing.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Processing.Timeout)
	assert.True(t, cfg.Processing.CacheResults)
	assert.Equal(t, "s3", cfg.Export.Backend)
	assert.Equal(t, 12, cfg.Session.MaxSessions)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("MAX_SESSIONS", "many")
	t.Setenv("SESSION_IDLE_TIMEOUT", "soon")
	t.Setenv("COMPRESS_UPLOADS", "perhaps")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Session.MaxSessions)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	assert.True(t, cfg.Compression.Enabled)
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://editor.example.com ,")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://editor.example.com"}, cfg.Server.AllowedOrigins)
}
