package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func runningResult(id string, offset time.Duration) deployment.Result {
	return deployment.Result{
		ID:        id,
		Status:    deployment.StatusRunning,
		Stage:     deployment.StageExtract,
		StartedAt: baseTime.Add(offset),
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestNewSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.CreateDeployment(context.Background(), runningResult("a", 0)))
	require.NoError(t, store.Close())

	// Migrations are idempotent and data survives a reopen
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetDeployment(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

func TestNewSQLiteStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "history.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, path)
}

// =============================================================================
// Deployment Tests
// =============================================================================

func TestCreateDeployment_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	result := deployment.Result{
		ID:            "dep-1",
		Status:        deployment.StatusSuccess,
		Stage:         deployment.StageDone,
		Language:      "python",
		WorkspaceDir:  "/data/project_1",
		ImageRef:      "alice/project_1",
		ImageDigest:   "sha256:abc",
		RepositoryURL: "https://github.com/alice/project_1",
		StartedAt:     baseTime,
		FinishedAt:    baseTime.Add(90 * time.Second),
	}
	require.NoError(t, store.CreateDeployment(ctx, result))

	got, err := store.GetDeployment(ctx, "dep-1")
	require.NoError(t, err)
	assert.True(t, result.StartedAt.Equal(got.StartedAt))
	assert.True(t, result.FinishedAt.Equal(got.FinishedAt))

	got.StartedAt, got.FinishedAt = result.StartedAt, result.FinishedAt
	assert.Equal(t, result, got)
}

func TestCreateDeployment_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDeployment(ctx, runningResult("dup", 0)))
	err := store.CreateDeployment(ctx, runningResult("dup", 0))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGetDeployment_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetDeployment(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDeployment(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	start := runningResult("dep-1", 0)
	require.NoError(t, store.CreateDeployment(ctx, start))

	final := deployment.Failed(start, deployment.StageAuthenticate,
		deployment.NewStageError(deployment.StageAuthenticate, deployment.ErrAuthentication, "Docker login failed. Check credentials.", nil))
	final.FinishedAt = baseTime.Add(time.Second)
	require.NoError(t, store.UpdateDeployment(ctx, final))

	got, err := store.GetDeployment(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, deployment.StatusFatal, got.Status)
	assert.Equal(t, deployment.StageAuthenticate, got.Stage)
	assert.Equal(t, deployment.KindAuthenticationError, got.Kind)
	assert.Equal(t, "Docker login failed. Check credentials.", got.Error)
	assert.True(t, got.FinishedAt.Equal(final.FinishedAt))
}

func TestUpdateDeployment_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateDeployment(context.Background(), runningResult("ghost", 0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDeployments_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDeployment(ctx, runningResult("old", 0)))
	require.NoError(t, store.CreateDeployment(ctx, runningResult("mid", 500*time.Millisecond)))
	require.NoError(t, store.CreateDeployment(ctx, runningResult("new", time.Second)))

	results, err := store.ListDeployments(ctx, DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "new", results[0].ID)
	assert.Equal(t, "mid", results[1].ID)
	assert.Equal(t, "old", results[2].ID)
}

func TestListDeployments_Pagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.CreateDeployment(ctx, runningResult(id, time.Duration(i)*time.Minute)))
	}

	page, err := store.ListDeployments(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)
	assert.Equal(t, "b", page[1].ID)
}

func TestListDeployments_StatusFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDeployment(ctx, runningResult("running", 0)))
	done := deployment.Succeeded(runningResult("done", time.Minute), "alice/x", "https://github.com/alice/x")
	require.NoError(t, store.CreateDeployment(ctx, done))

	results, err := store.ListDeployments(ctx, ListOptions{Status: deployment.StatusSuccess})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "done", results[0].ID)
}

func TestCountDeployments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.CreateDeployment(ctx, runningResult(id, time.Duration(i)*time.Minute)))
	}
	done := deployment.Succeeded(runningResult("done", time.Hour), "alice/x", "https://github.com/alice/x")
	require.NoError(t, store.CreateDeployment(ctx, done))

	page, err := store.ListDeployments(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	total, err := store.CountDeployments(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	succeeded, err := store.CountDeployments(ctx, deployment.StatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, 1, succeeded)
}

// =============================================================================
// Pipeline Hook Tests
// =============================================================================

func TestRecordFinished_AfterStarted(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	start := runningResult("dep-1", 0)
	require.NoError(t, store.RecordStarted(ctx, start))

	final := deployment.Succeeded(start, "alice/p", "https://github.com/alice/p")
	final.FinishedAt = baseTime.Add(time.Minute)
	require.NoError(t, store.RecordFinished(ctx, final))

	got, err := store.GetDeployment(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, deployment.StatusSuccess, got.Status)
	assert.Equal(t, "alice/p", got.ImageRef)
}

func TestRecordFinished_WithoutStart(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	final := deployment.Succeeded(runningResult("dep-2", 0), "alice/p", "https://github.com/alice/p")
	require.NoError(t, store.RecordFinished(ctx, final))

	got, err := store.GetDeployment(ctx, "dep-2")
	require.NoError(t, err)
	assert.Equal(t, deployment.StatusSuccess, got.Status)
}

// =============================================================================
// Options Tests
// =============================================================================

func TestListOptions_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"defaults", ListOptions{}, ListOptions{Limit: 100}},
		{"cap", ListOptions{Limit: 5000}, ListOptions{Limit: 1000}},
		{"negative offset", ListOptions{Limit: 10, Offset: -3}, ListOptions{Limit: 10}},
		{"status kept", ListOptions{Limit: 10, Status: deployment.StatusFatal}, ListOptions{Limit: 10, Status: deployment.StatusFatal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}
