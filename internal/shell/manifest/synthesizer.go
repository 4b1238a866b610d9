// Package manifest ensures a dependency manifest exists in a workspace,
// generating one with language-specific heuristics when it is absent.
package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/language"
	coremanifest "github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/manifest"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/command"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrUnsupported is returned for tags without a synthesis strategy.
	ErrUnsupported = errors.New("unsupported language")

	// ErrSynthesis is returned when a strategy fails to produce a manifest.
	ErrSynthesis = errors.New("manifest synthesis failed")
)

// maxSourceBytes caps how much of a single source file is scanned.
const maxSourceBytes = 2 << 20

// =============================================================================
// Synthesizer
// =============================================================================

// Method records how a manifest came to exist.
type Method string

const (
	MethodExisting  Method = "existing"
	MethodPipreqs   Method = "pipreqs"
	MethodPipFreeze Method = "pip-freeze"
	MethodScan      Method = "scan"
	MethodTemplate  Method = "placeholder"
	MethodGoModInit Method = "go-mod-init"
)

// Outcome describes the manifest after Ensure returns.
type Outcome struct {
	Path   string
	Method Method
}

// Tools names the external executables the synthesizer invokes.
type Tools struct {
	Pip     string
	Pipreqs string
	Go      string
}

// Config holds synthesizer configuration.
type Config struct {
	Tools          Tools
	InstallPipreqs bool          // Run "pip install pipreqs" before inference
	Timeout        time.Duration // Per external command; 0 uses the runner default
}

// Synthesizer guarantees a manifest at the language's canonical path.
type Synthesizer struct {
	runner   command.Runner
	cfg      Config
	scanners map[language.Tag]coremanifest.Scanner
	logger   *slog.Logger
}

// NewSynthesizer creates a synthesizer that runs external tools via runner.
func NewSynthesizer(runner command.Runner, cfg Config, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tools.Pip == "" {
		cfg.Tools.Pip = "pip"
	}
	if cfg.Tools.Pipreqs == "" {
		cfg.Tools.Pipreqs = "pipreqs"
	}
	if cfg.Tools.Go == "" {
		cfg.Tools.Go = "go"
	}
	return &Synthesizer{
		runner: runner,
		cfg:    cfg,
		scanners: map[language.Tag]coremanifest.Scanner{
			language.NodeJS: coremanifest.NodeScanner,
			language.PHP:    coremanifest.PHPScanner,
			language.Ruby:   coremanifest.RubyScanner,
		},
		logger: logger,
	}
}

// WithScanner replaces the import scanner used for tag.
func (s *Synthesizer) WithScanner(tag language.Tag, scanner coremanifest.Scanner) *Synthesizer {
	s.scanners[tag] = scanner
	return s
}

// Ensure makes sure the manifest for tag exists in dir. An existing manifest
// is left untouched, contents and modification time included.
func (s *Synthesizer) Ensure(ctx context.Context, dir string, tag language.Tag) (Outcome, error) {
	name := language.ManifestFile(tag)
	if name == "" {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnsupported, tag)
	}
	path := filepath.Join(dir, name)

	if _, err := os.Stat(path); err == nil {
		return Outcome{Path: path, Method: MethodExisting}, nil
	} else if !os.IsNotExist(err) {
		return Outcome{}, fmt.Errorf("%w: stat %s: %v", ErrSynthesis, name, err)
	}

	var (
		method Method
		err    error
	)
	switch tag {
	case language.Python:
		method, err = s.python(ctx, dir, path)
	case language.NodeJS:
		method, err = s.scan(ctx, dir, path, tag, coremanifest.RenderPackageJSON)
	case language.Java:
		method, err = MethodTemplate, writeFile(path, coremanifest.RenderPOM())
	case language.Golang:
		method, err = s.golang(ctx, dir)
	case language.PHP:
		method, err = s.scan(ctx, dir, path, tag, coremanifest.RenderComposerJSON)
	case language.Ruby:
		method, err = s.scan(ctx, dir, path, tag, func(gems []string) ([]byte, error) {
			return coremanifest.RenderGemfile(gems), nil
		})
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnsupported, tag)
	}
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Info("manifest generated",
		"language", tag,
		"file", name,
		"method", method,
	)
	return Outcome{Path: path, Method: method}, nil
}

// python prefers pipreqs inference and falls back to the installed package
// set. Only a failing pip freeze is an error.
func (s *Synthesizer) python(ctx context.Context, dir, path string) (Method, error) {
	err := s.pipreqs(ctx, dir, path)
	if err == nil {
		return MethodPipreqs, nil
	}
	s.logger.Warn("pipreqs failed, falling back to pip freeze", "error", err)

	out, err := s.runner.Run(ctx, command.Cmd{
		Name:    s.cfg.Tools.Pip,
		Args:    []string{"freeze"},
		Dir:     dir,
		Timeout: s.cfg.Timeout,
	})
	if err != nil {
		return "", fmt.Errorf("%w: pip freeze: %w", ErrSynthesis, err)
	}
	if err := writeFile(path, out.Stdout); err != nil {
		return "", err
	}
	return MethodPipFreeze, nil
}

func (s *Synthesizer) pipreqs(ctx context.Context, dir, path string) error {
	if s.cfg.InstallPipreqs {
		if _, err := s.runner.Run(ctx, command.Cmd{
			Name:    s.cfg.Tools.Pip,
			Args:    []string{"install", "pipreqs"},
			Timeout: s.cfg.Timeout,
		}); err != nil {
			return err
		}
	}

	if _, err := s.runner.Run(ctx, command.Cmd{
		Name:    s.cfg.Tools.Pipreqs,
		Args:    []string{dir, "--force"},
		Timeout: s.cfg.Timeout,
	}); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return errors.New("pipreqs produced an empty requirements.txt")
	}
	return nil
}

// golang runs "go mod init" named after the workspace directory. There is
// no fallback.
func (s *Synthesizer) golang(ctx context.Context, dir string) (Method, error) {
	module := filepath.Base(dir)
	if _, err := s.runner.Run(ctx, command.Cmd{
		Name:    s.cfg.Tools.Go,
		Args:    []string{"mod", "init", module},
		Dir:     dir,
		Timeout: s.cfg.Timeout,
	}); err != nil {
		return "", fmt.Errorf("%w: go mod init: %w", ErrSynthesis, err)
	}
	return MethodGoModInit, nil
}

// scan runs the tag's import scanner over every matching source file and
// renders the collected names.
func (s *Synthesizer) scan(ctx context.Context, dir, path string, tag language.Tag, render func([]string) ([]byte, error)) (Method, error) {
	scanner, ok := s.scanners[tag]
	if !ok {
		return "", fmt.Errorf("%w: no scanner for %s", ErrUnsupported, tag)
	}

	var sources [][]byte
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != dir && (d.Name() == ".git" || d.Name() == "node_modules" || d.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !coremanifest.HandlesFile(scanner, d.Name()) {
			return nil
		}
		src, err := readCapped(p)
		if err != nil {
			return err
		}
		sources = append(sources, src)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: scan sources: %w", ErrSynthesis, err)
	}

	deps := coremanifest.Collect(scanner, sources)
	data, err := render(deps)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	if err := writeFile(path, data); err != nil {
		return "", err
	}

	s.logger.Debug("scanned imports", "language", tag, "files", len(sources), "dependencies", len(deps))
	return MethodScan, nil
}

func readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(f, maxSourceBytes)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSynthesis, filepath.Base(path), err)
	}
	return nil
}
