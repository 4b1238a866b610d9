package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Flatten Tests
// =============================================================================

func TestFlatten_CopiesNestedFilesToRoot(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"app.py":           "main",
		"src/util.py":      "util",
		"src/deep/conf.py": "conf",
	})

	report, err := NewFlattener(CollisionOverwrite, setupTestLogger()).Flatten(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Copied)
	assert.Empty(t, report.Collisions)

	files := snapshot(t, dir)
	assert.Equal(t, "util", files["util.py"])
	assert.Equal(t, "conf", files["conf.py"])
	assert.Equal(t, "util", files["src/util.py"], "originals stay in place")
}

func TestFlatten_AlreadyFlatTreeUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"app.py": "main", "requirements.txt": "flask\n"})
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "app.py"), old, old))
	before := snapshot(t, dir)
	infoBefore, err := os.Stat(filepath.Join(dir, "app.py"))
	require.NoError(t, err)

	report, err := NewFlattener(CollisionOverwrite, setupTestLogger()).Flatten(context.Background(), dir)
	require.NoError(t, err)
	assert.Zero(t, report.Copied)

	assert.Equal(t, before, snapshot(t, dir))
	infoAfter, err := os.Stat(filepath.Join(dir, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, infoBefore.ModTime(), infoAfter.ModTime())
}

func TestFlatten_SkipsMetadata(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/.DS_Store":   "junk",
		".git/config":     "[core]",
		"__MACOSX/._x.py": "junk",
		"src/index.js":    "js",
	})

	_, err := NewFlattener(CollisionOverwrite, setupTestLogger()).Flatten(context.Background(), dir)
	require.NoError(t, err)

	files := snapshot(t, dir)
	assert.Contains(t, files, "index.js")
	assert.NotContains(t, files, ".DS_Store")
	assert.NotContains(t, files, "config")
	assert.NotContains(t, files, "._x.py")
}

func TestFlatten_OverwriteIsLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a/config.json": "from-a",
		"b/config.json": "from-b",
	})

	report, err := NewFlattener(CollisionOverwrite, setupTestLogger()).Flatten(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"config.json"}, report.Collisions)
	assert.Equal(t, "from-b", snapshot(t, dir)["config.json"])
}

func TestFlatten_SuffixKeepsBoth(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a/config.json": "from-a",
		"b/config.json": "from-b",
	})

	_, err := NewFlattener(CollisionSuffix, setupTestLogger()).Flatten(context.Background(), dir)
	require.NoError(t, err)

	files := snapshot(t, dir)
	assert.Equal(t, "from-a", files["config.json"])
	assert.Equal(t, "from-b", files["config_1.json"])
}

func TestFlatten_FailPolicy(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.go":     "root",
		"cmd/main.go": "nested",
	})

	_, err := NewFlattener(CollisionFail, setupTestLogger()).Flatten(context.Background(), dir)
	assert.ErrorIs(t, err, ErrCollision)
	assert.Equal(t, "root", snapshot(t, dir)["main.go"])
}

func TestParseCollisionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CollisionPolicy
		wantErr bool
	}{
		{"", CollisionOverwrite, false},
		{"overwrite", CollisionOverwrite, false},
		{"SUFFIX", CollisionSuffix, false},
		{"fail", CollisionFail, false},
		{"merge", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCollisionPolicy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
