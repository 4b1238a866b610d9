package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Manager Tests
// =============================================================================

func TestNewManager_EmptyRoot(t *testing.T) {
	_, err := NewManager("  ")
	assert.Error(t, err)
}

func TestNewManager_RelativeRootIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	m, err := NewManager("./data/workspaces")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(m.Root()))

	ws, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(ws.Dir))
	assert.DirExists(t, filepath.Join(dir, "data", "workspaces", ws.Name()))
}

func TestCreate_UniqueWorkspaces(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ws, err := m.Create(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[ws.Dir], "workspace reused: %s", ws.Dir)
		seen[ws.Dir] = true

		info, err := os.Stat(ws.Dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.True(t, strings.HasPrefix(ws.Name(), "project_"))
		assert.Equal(t, "project_"+ws.ID, ws.Name())
	}
}

func TestNewID_HexWithoutDashes(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
}

func TestCreate_CanceledContext(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Create(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
