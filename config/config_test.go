package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reliq/reliq"
)

func clearPGEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD", "PGSCHEMAS", "PGDSN"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromDSN(t *testing.T) {
	clearPGEnv(t)
	t.Setenv("PGDSN", "postgres://user@host/db")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "postgres://user@host/db", cfg.ConnString())
}

func TestLoadFromDiscreteFields(t *testing.T) {
	clearPGEnv(t)
	t.Setenv("PGHOST", "localhost")
	t.Setenv("PGDATABASE", "reliq")
	t.Setenv("PGUSER", "tester")
	t.Setenv("PGPORT", "5433")
	t.Setenv("PGSCHEMAS", "actor,blog")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, []string{"actor", "blog"}, cfg.Schemas)
	require.Equal(t, "host=localhost port=5433 dbname=reliq user=tester", cfg.ConnString())
}

func TestLoadMissingConfig(t *testing.T) {
	clearPGEnv(t)

	_, err := Load("")
	require.Error(t, err)
	require.ErrorIs(t, err, reliq.ErrMissingConfig)
}

func TestLoadMalformedPort(t *testing.T) {
	clearPGEnv(t)
	t.Setenv("PGDSN", "postgres://user@host/db")
	t.Setenv("PGPORT", "not-a-number")

	_, err := Load("")
	require.Error(t, err)
	require.ErrorIs(t, err, reliq.ErrMalformedConfig)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearPGEnv(t)

	_, err := Load("/nonexistent/path/to/.env")
	require.Error(t, err)
	require.ErrorIs(t, err, reliq.ErrMalformedConfig)
}
