package main

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/docker"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Database.DSN = filepath.Join(dir, "db", "dockaforge.db")
	cfg.Workspace.Root = filepath.Join(dir, "workspaces")
	cfg.Docker.Mode = "cli"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApp_CLIMode(t *testing.T) {
	cfg := testConfig(t)

	app, err := NewApp(cfg, discardLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &docker.CLIClient{}, app.Images)
	assert.NotNil(t, app.Orchestrator)
	assert.FileExists(t, cfg.Database.DSN)
}

func TestNewApp_InvalidCollisionPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workspace.CollisionPolicy = "merge"

	_, err := NewApp(cfg, discardLogger())
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, ExitConfigError, cmdErr.ExitCode)
}

func TestNewApp_InvalidGitHubURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.GitHub.APIURL = "://bad"

	_, err := NewApp(cfg, discardLogger())

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, ExitConfigError, cmdErr.ExitCode)
}
