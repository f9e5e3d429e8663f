package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/hrdash/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RPC_ENDPOINT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.SurfaceWait)
	assert.True(t, cfg.InProcessRPC())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RPC_ENDPOINT", "http://hr.internal:8069")
	t.Setenv("SETTLE_DELAY", "250ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.InProcessRPC())
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsNegativeWait(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SURFACE_WAIT", "-1s")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestInTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv("HRDASH_TEST_MODE", "false")
	assert.False(t, RefreshTestMode())
	assert.False(t, InTestMode())

	t.Setenv("HRDASH_TEST_MODE", "true")
	assert.True(t, RefreshTestMode())
}
