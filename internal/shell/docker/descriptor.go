package docker

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/language"
)

// DescriptorName is the build descriptor written into every workspace.
const DescriptorName = "Dockerfile"

//go:embed templates/*.Dockerfile
var embeddedTemplates embed.FS

// =============================================================================
// Descriptor Writer
// =============================================================================

// DescriptorWriter materializes the per-language build descriptor.
type DescriptorWriter struct {
	overrideDir string
	logger      *slog.Logger
}

// NewDescriptorWriter creates a writer. Templates in overrideDir, when set,
// take precedence over the embedded set.
func NewDescriptorWriter(overrideDir string, logger *slog.Logger) *DescriptorWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DescriptorWriter{overrideDir: overrideDir, logger: logger}
}

// Write copies the template for tag to <dir>/Dockerfile, replacing any
// existing descriptor. It returns the written path.
func (w *DescriptorWriter) Write(dir string, tag language.Tag) (string, error) {
	content, source, err := w.Template(tag)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, DescriptorName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", withCause(NewDockerError("WriteDescriptor", "template", tag.String(), "failed to write descriptor", ErrBuildFailed), err)
	}

	w.logger.Debug("build descriptor written", "tag", tag, "source", source, "path", path)
	return path, nil
}

// Template resolves the template bytes for tag and reports where they came from.
func (w *DescriptorWriter) Template(tag language.Tag) ([]byte, string, error) {
	if !tag.IsKnown() {
		return nil, "", NewDockerError("Template", "template", tag.String(), "no build template", ErrTemplateMissing)
	}
	name := tag.String() + ".Dockerfile"

	if w.overrideDir != "" {
		path := filepath.Join(w.overrideDir, name)
		content, err := os.ReadFile(path)
		if err == nil {
			return content, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", withCause(NewDockerError("Template", "template", tag.String(), "failed to read override", ErrTemplateMissing), err)
		}
	}

	content, err := embeddedTemplates.ReadFile("templates/" + name)
	if err != nil {
		return nil, "", withCause(NewDockerError("Template", "template", tag.String(), "no build template", ErrTemplateMissing), err)
	}
	return content, "embedded", nil
}
