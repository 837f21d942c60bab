package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableq/internal/dialect"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvDSN, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvProject, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, dialect.MySQL, cfg.DialectType())
}

func TestLoadFullFile(t *testing.T) {
	t.Setenv(EnvDSN, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvProject, "")

	cfg, err := Load(filepath.Join("testdata", "full.toml"))
	require.NoError(t, err)
	assert.Equal(t, dialect.BigQuery, cfg.DialectType())
	assert.Equal(t, []string{"schemas/base.toml", "schemas/extended.yaml"}, cfg.Schemas)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Mapping)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BigQuery{Project: "analytics-prod", Dataset: "sales", Location: "EU"}, cfg.BigQuery)
	assert.Equal(t, "mysql", cfg.Driver)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvDSN, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvProject, "")

	cfg, err := Load(filepath.Join("testdata", "partial.toml"))
	require.NoError(t, err)
	assert.Equal(t, "app:secret@tcp(127.0.0.1:3306)/shop", cfg.DSN)
	assert.Equal(t, []string{"schema.sql"}, cfg.Schemas)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, "sql", cfg.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv(EnvDSN, "root@tcp(db:3306)/other")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvProject, "from-env")

	cfg, err := Load(filepath.Join("testdata", "partial.toml"))
	require.NoError(t, err)
	assert.Equal(t, "root@tcp(db:3306)/other", cfg.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.BigQuery.Project)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvDSN, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvProject, "")

	_, err := Load(filepath.Join("testdata", "unknown.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
	assert.Contains(t, err.Error(), "log.colour, timeout")

	_, err = Load(filepath.Join("testdata", "missing.toml"))
	assert.ErrorContains(t, err, "config: decode")

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("dialect = \"postgres\"\n[log]\nlevel = \"loud\"\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported dialect "postgres"`)
	assert.Contains(t, err.Error(), `unknown log level "loud"`)
}
