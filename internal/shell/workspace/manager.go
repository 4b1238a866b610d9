package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
)

// Workspace is an exclusively owned project directory for one deployment.
type Workspace struct {
	ID  string
	Dir string
}

// Name returns the workspace directory base name.
func (w Workspace) Name() string {
	return filepath.Base(w.Dir)
}

// Manager creates workspaces under a root directory. Workspaces are never
// reused and never removed by the manager.
type Manager struct {
	root string
}

// NewManager creates a workspace manager rooted at root. A relative root is
// resolved against the current directory once, so workspace paths stay valid
// for subprocesses running elsewhere.
func NewManager(root string) (*Manager, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, fmt.Errorf("workspace root directory is empty")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root %q: %w", trimmed, err)
	}
	return &Manager{root: abs}, nil
}

// Root returns the directory workspaces are created in.
func (m *Manager) Root() string {
	return m.root
}

// NewID returns a fresh workspace identifier: a random UUID in hex form.
func NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate workspace id: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

// Create allocates a new, empty workspace with a random identifier.
func (m *Manager) Create(ctx context.Context) (Workspace, error) {
	if err := ctx.Err(); err != nil {
		return Workspace{}, err
	}

	id, err := NewID()
	if err != nil {
		return Workspace{}, err
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("create workspace root: %w", err)
	}

	dir := filepath.Join(m.root, deployment.WorkspaceName(id))
	// Mkdir, not MkdirAll: an existing directory must never be reused.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("create workspace %q: %w", id, err)
	}

	return Workspace{ID: id, Dir: dir}, nil
}
