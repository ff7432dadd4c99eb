package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "local", cfg.LockBackend)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout())
	assert.Equal(t, 30*time.Second, cfg.LockTTL())
	assert.Equal(t, 3, cfg.ConflictRetries)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.Admins())
}

func TestLoad_Entorno(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("LOCK_TIMEOUT_MS", "750")
	t.Setenv("ADMIN_EMAILS", "gerencia@ferreteria.pe, ,contabilidad@ferreteria.pe")
	t.Setenv("ALLOWED_ORIGINS", "https://pos.ferreteria.pe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "redis", cfg.LockBackend)
	assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout())
	assert.Equal(t, []string{"gerencia@ferreteria.pe", "contabilidad@ferreteria.pe"}, cfg.Admins())
	assert.Equal(t, []string{"https://pos.ferreteria.pe"}, cfg.Origins())
}
