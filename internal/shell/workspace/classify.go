package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/language"
)

// ignoredDirs are never inspected or flattened.
var ignoredDirs = map[string]bool{
	".git":     true,
	"__MACOSX": true,
}

// Classify walks dir in lexical order and returns the tag of the first
// directory whose files match a detection rule. Each directory is judged on
// its own files only, so a manifest and its sources must co-occur in one
// directory to outrank a rule evaluated earlier.
//
// Returns language.Unknown with a nil error when no directory matches.
func Classify(ctx context.Context, dir string) (language.Tag, error) {
	dir = filepath.Clean(dir)
	tag := language.Unknown

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}

		if found := language.ClassifyDir(names); found != language.Unknown {
			tag = found
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipAll) {
		return language.Unknown, err
	}
	return tag, nil
}
