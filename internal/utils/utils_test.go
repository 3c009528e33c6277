package utils

import (
	"crypto/tls"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	for _, k := range []string{"PG_DSN", "PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DB", "PG_SSLMODE"} {
		t.Setenv(k, "")
	}
	assert.Equal(t, "postgres://postgres@localhost:5432/density?sslmode=disable", BuildPostgresDSNFromEnv())

	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "app")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DB", "crowd")
	assert.Equal(t, "postgres://app:secret@db:5432/crowd?sslmode=disable", BuildPostgresDSNFromEnv())

	t.Setenv("PG_PASSWORD", "p@ss/w:rd")
	u, err := url.Parse(BuildPostgresDSNFromEnv())
	require.NoError(t, err)
	assert.Equal(t, "db:5432", u.Host)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss/w:rd", pass)

	t.Setenv("PG_DSN", "postgres://override/x")
	assert.Equal(t, "postgres://override/x", BuildPostgresDSNFromEnv())
}

func TestEnvInt(t *testing.T) {
	t.Setenv("DENSITY_TEST_INT", "7")
	assert.Equal(t, 7, envInt("DENSITY_TEST_INT", 1))
	t.Setenv("DENSITY_TEST_INT", "-3")
	assert.Equal(t, 1, envInt("DENSITY_TEST_INT", 1))
	t.Setenv("DENSITY_TEST_INT", "x")
	assert.Equal(t, 1, envInt("DENSITY_TEST_INT", 1))
}

func TestOpenRedisFromEnvOptional(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	assert.Nil(t, OpenRedisFromEnv())

	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_DISABLED", "true")
	assert.Nil(t, OpenRedisFromEnv())

	t.Setenv("REDIS_DISABLED", "")
	t.Setenv("REDIS_DB", "2")
	rc := OpenRedisFromEnv()
	if assert.NotNil(t, rc) {
		assert.Equal(t, 2, rc.Options().DB)
		_ = rc.Close()
	}
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "certs", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "density.local"))

	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)

	before, err := os.ReadFile(cert)
	require.NoError(t, err)
	require.NoError(t, EnsureSelfSignedCert(cert, key, "density.local"))
	after, err := os.ReadFile(cert)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
