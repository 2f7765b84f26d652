package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/poolhall")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "")
	t.Setenv("ADDR", "")
	t.Setenv("INVITE_TTL_SEC", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.InviteTTL)
}

func TestLoadInviteTTLOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/poolhall")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("INVITE_TTL_SEC", "45")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.InviteTTL)

	t.Setenv("INVITE_TTL_SEC", "nope")
	_, err = Load()
	require.Error(t, err)
}
