package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcwaters/recipe-app-api/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{AppEnv: "test", LogLevel: "warn", LogFormat: "json"})

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"env":"test"`)
}

func TestNewLogger_SourceOnlyOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, &config.Config{AppEnv: "development", LogLevel: "debug", LogFormat: "json"}).Debug("dev")
	assert.Contains(t, buf.String(), `"source"`)

	buf.Reset()
	newLogger(&buf, &config.Config{AppEnv: "production", LogLevel: "debug", LogFormat: "json"}).Debug("prod")
	assert.Contains(t, buf.String(), `"msg":"prod"`)
	assert.NotContains(t, buf.String(), `"source"`)
}

func TestEnsureDBDir(t *testing.T) {
	require.NoError(t, ensureDBDir(":memory:"))

	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, ensureDBDir(filepath.Join(dir, "recipes.db")))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestApp_CreateAndDeleteUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "recipes.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("JWT_SECRET", "test-secret-0123456789")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run(t.Context(), []string{"recipe-api", "create-user", "--email", "cli@example.com", "--password", "testpass123"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "created user 1 (cli@example.com)")
	assert.Contains(t, out.String(), "token: ")

	out.Reset()
	app = newApp()
	app.Writer = &out
	err = app.Run(t.Context(), []string{"recipe-api", "delete-user", "--email", "cli@example.com"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "deleted user cli@example.com")

	app = newApp()
	app.Writer = &out
	err = app.Run(t.Context(), []string{"recipe-api", "delete-user", "--email", "cli@example.com"})
	assert.Error(t, err)
}
