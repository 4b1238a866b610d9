package workspace

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Extractor unpacks uploaded archives into fresh workspaces.
type Extractor struct {
	manager *Manager
	logger  *slog.Logger
}

// NewExtractor creates an extractor that allocates workspaces from manager.
func NewExtractor(manager *Manager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{manager: manager, logger: logger}
}

// Extract creates a new workspace and decompresses the zip archive at
// archivePath into it, preserving relative paths. Symbolic links inside the
// archive are skipped. Entries resolving outside the workspace fail the
// extraction with ErrUnsafePath.
func (e *Extractor) Extract(ctx context.Context, archivePath string) (Workspace, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return Workspace{}, fmt.Errorf("%w: open %s: %v", ErrInvalidArchive, filepath.Base(archivePath), err)
	}
	defer zr.Close()

	ws, err := e.manager.Create(ctx)
	if err != nil {
		return Workspace{}, err
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return ws, err
		}
		if err := extractEntry(ws.Dir, f); err != nil {
			return ws, err
		}
	}

	e.logger.Debug("archive extracted",
		"workspace_id", ws.ID,
		"entries", len(zr.File),
	)
	return ws, nil
}

func extractEntry(root string, f *zip.File) error {
	name := strings.ReplaceAll(f.Name, "\\", "/")
	if name == "" {
		return nil
	}

	if !filepath.IsLocal(filepath.FromSlash(strings.TrimSuffix(name, "/"))) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
	}
	target, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnsafePath, f.Name, err)
	}

	mode := f.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(target, 0o755)
	case mode&os.ModeSymlink != 0:
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer src.Close()

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.Name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("%w: decompress %s: %v", ErrInvalidArchive, f.Name, err)
	}
	return dst.Close()
}
