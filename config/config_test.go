package config

import (
	"testing"
	"time"

	"dine-in-ordering/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "API_KEY", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL"} {
		t.Setenv(k, "")
	}
	t.Cleanup(func() { Current = defaults() })

	cfg := Load()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "dine_in.db", cfg.DBPath)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_KEY", "app-key")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "not-a-duration")
	t.Cleanup(func() { Current = defaults() })

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "app-key", cfg.APIKey)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, cfg, Current)
}

func TestOpenDB_Migrates(t *testing.T) {
	db, err := OpenDB("file:config_test?mode=memory&cache=shared")
	require.NoError(t, err)
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}
