package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCOUNT_PRECISION", "")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int32(2), cfg.AccountPrecision)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Contains(t, cfg.DSN(), "dbname=")
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_RejectsBadPrecision(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCOUNT_PRECISION", "nine")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("ACCOUNT_PRECISION", "12")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 6")
}
