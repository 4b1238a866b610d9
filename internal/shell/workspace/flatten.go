package workspace

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// CollisionPolicy decides what happens when a nested file flattens onto a
// root-level name that already exists.
type CollisionPolicy string

const (
	// CollisionOverwrite replaces the existing file (last write wins). Data in
	// the replaced file is lost; every occurrence is listed in the report.
	CollisionOverwrite CollisionPolicy = "overwrite"

	// CollisionSuffix keeps both files, renaming the incoming one to name_N.ext.
	CollisionSuffix CollisionPolicy = "suffix"

	// CollisionFail aborts flattening with ErrCollision.
	CollisionFail CollisionPolicy = "fail"
)

// ParseCollisionPolicy validates a policy name. Empty selects CollisionOverwrite.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CollisionOverwrite, nil
	case CollisionOverwrite, CollisionSuffix, CollisionFail:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// FlattenReport summarizes a flatten run.
type FlattenReport struct {
	Copied     int
	Collisions []string // Root-level names that were written more than once
}

// Flattener copies nested files into the workspace root.
type Flattener struct {
	policy CollisionPolicy
	logger *slog.Logger
}

// NewFlattener creates a flattener with the given collision policy.
func NewFlattener(policy CollisionPolicy, logger *slog.Logger) *Flattener {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = CollisionOverwrite
	}
	return &Flattener{policy: policy, logger: logger}
}

// Flatten copies every regular file below dir's root into the root, keeping
// the base name and discarding the directory structure. Files already at
// the root, .DS_Store files and version-control metadata are skipped. The
// nested originals are left in place.
func (f *Flattener) Flatten(ctx context.Context, dir string) (FlattenReport, error) {
	dir = filepath.Clean(dir)
	var report FlattenReport

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Dir(path) == dir || d.Name() == ".DS_Store" || !d.Type().IsRegular() {
			return nil
		}

		dest := filepath.Join(dir, d.Name())
		if _, statErr := os.Stat(dest); statErr == nil {
			report.Collisions = append(report.Collisions, d.Name())
			switch f.policy {
			case CollisionFail:
				return fmt.Errorf("%w: %s", ErrCollision, relOrName(dir, path))
			case CollisionSuffix:
				dest = nextFreeName(dir, d.Name())
			default:
				f.logger.Warn("flatten collision, overwriting",
					"file", d.Name(),
					"source", relOrName(dir, path),
				)
			}
		}

		if err := copyFile(path, dest); err != nil {
			return err
		}
		report.Copied++
		return nil
	})
	if err != nil {
		return report, err
	}

	f.logger.Debug("workspace flattened",
		"dir", dir,
		"copied", report.Copied,
		"collisions", len(report.Collisions),
	)
	return report, nil
}

// nextFreeName returns the first dir/name_N.ext that does not exist.
func nextFreeName(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func relOrName(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return filepath.Base(path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
