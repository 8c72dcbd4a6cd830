package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "REDIS_DB", "SESSION_TTL", "CORS_ORIGINS", "DB_DEBUG"} {
		t.Setenv(key, "")
	}

	cfg, _ := Load()
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.DBDebug)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_DEBUG", "true")

	cfg, _ := Load()
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.DBDebug)
}

func TestLoadIgnoresBadValues(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	t.Setenv("SESSION_TTL", "-5m")

	cfg, _ := Load()
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		secret  string
		wantErr bool
	}{
		{"dev with fallback", "dev", "", false},
		{"prod with fallback", "prod", "", true},
		{"production with fallback", "Production", "", true},
		{"prod with secret", "prod", "s3cr3t", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_MODE", tt.mode)
			t.Setenv("JWT_SECRET", tt.secret)

			cfg, _ := Load()
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
				return
			}
			assert.NoError(t, cfg.Validate())
		})
	}
}
