package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
dialect: postgres
target_schema: staging
batch_size: 250
connection:
  host: db.example.com
  port: 5432
  database: warehouse
  username: loader
`)

	cfg, err := Load(path, "1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "staging", cfg.TargetSchema)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "db.example.com", cfg.Connection.Host)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `dialect: oracle`)

	cfg, err := Load(path, "dev")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AllowColumnAdd)
	assert.True(t, cfg.AllowColumnAlter)
	assert.False(t, cfg.FreezeSchema)
	assert.False(t, cfg.PreferFloatOverNumeric)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
dialect: oracle
batch_size: 100
`)
	t.Setenv("LB_BATCH_SIZE", "750")
	t.Setenv("LB_PASSWORD", "hunter2")

	cfg, err := Load(path, "dev")
	require.NoError(t, err)

	assert.Equal(t, 750, cfg.BatchSize)
	assert.Equal(t, "hunter2", cfg.Connection.Password)
}

func TestLoad_MissingDefaultFileFallsBackToEnv(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	t.Setenv("LB_DIALECT", "mssql")

	cfg, err := Load("", "dev")
	require.NoError(t, err)
	assert.Equal(t, "mssql", cfg.Dialect)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "dev")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown dialect", "dialect: sqlite"},
		{"non-positive batch size", "dialect: oracle\nbatch_size: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml), "dev")
			assert.Error(t, err)
		})
	}
}

func TestConnectionConfig_ToMap(t *testing.T) {
	conn := ConnectionConfig{
		Host:     "db.example.com",
		Port:     1521,
		Service:  "FREEPDB1",
		Username: "loader",
		Password: "secret",
		Encrypt:  true,
	}

	m := conn.ToMap()
	assert.Equal(t, "db.example.com", m["host"])
	assert.Equal(t, 1521, m["port"])
	assert.Equal(t, "secret", m["password"])
	assert.Equal(t, true, m["encrypt"])

	// Unset string options stay out of the map so adapter defaults apply.
	_, ok := m["dsn"]
	assert.False(t, ok)
	_, ok = m["ssl_mode"]
	assert.False(t, ok)
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteExample(path))

	// Refuses to clobber.
	assert.Error(t, WriteExample(path))

	cfg, err := Load(path, "dev")
	require.NoError(t, err)
	assert.Equal(t, "oracle", cfg.Dialect)
}
