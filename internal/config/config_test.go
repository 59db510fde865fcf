package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(2<<20), cfg.Upload.LogoMaxBytes)
	assert.Equal(t, int64(5<<20), cfg.Upload.DocumentMaxBytes)
	assert.Equal(t, 24*time.Hour, cfg.Lookup.HitTTL)
	assert.Equal(t, "atendimento@marcafacil.legal", cfg.Email.Recipient)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestProductionRejectsDefaultSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_PASSWORD", "secret")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SESSION_SECRET", "a-real-secret")
	_, err = Load()
	assert.NoError(t, err)
}

func TestUnknownEmailProvider(t *testing.T) {
	t.Setenv("EMAIL_PROVIDER", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)
}

func TestListEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://marcafacil.legal, https://www.marcafacil.legal ,")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://marcafacil.legal", "https://www.marcafacil.legal"}, cfg.CORS.AllowedOrigins)
}
