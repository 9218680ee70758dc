package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer(env(map[string]string{"GOOGLE_CLOUD_PROJECT": "demo"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendFirestore, cfg.Backend)
	assert.Equal(t, "todos", cfg.Collection)
	assert.Equal(t, "demo", cfg.ProjectID)
}

func TestLoadServerFirestoreNeedsProject(t *testing.T) {
	_, err := LoadServer(env(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLOUD_PROJECT")
}

func TestLoadServerSQLite(t *testing.T) {
	cfg, err := LoadServer(env(map[string]string{
		"STORE_BACKEND": "SQLite",
		"PORT":          "9000",
		"SQLITE_PATH":   "/tmp/t.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "/tmp/t.db", cfg.SQLitePath)
}

func TestLoadServerUnknownBackend(t *testing.T) {
	_, err := LoadServer(env(map[string]string{"STORE_BACKEND": "mongo"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}
