package docker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/language"
)

func TestDescriptorWriter_EmbeddedTemplates(t *testing.T) {
	w := NewDescriptorWriter("", nil)

	for _, tag := range language.Supported {
		t.Run(tag.String(), func(t *testing.T) {
			dir := t.TempDir()
			path, err := w.Write(dir, tag)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, DescriptorName), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(content), "FROM ")
		})
	}
}

func TestDescriptorWriter_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, DescriptorName)
	require.NoError(t, os.WriteFile(existing, []byte("FROM old\n"), 0o644))

	w := NewDescriptorWriter("", nil)
	_, err := w.Write(dir, language.Python)
	require.NoError(t, err)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "FROM old")
	assert.Contains(t, string(content), "python")
}

func TestDescriptorWriter_OverrideWins(t *testing.T) {
	overrides := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(overrides, "ruby.Dockerfile"), []byte("FROM custom/ruby\n"), 0o644))

	w := NewDescriptorWriter(overrides, nil)

	dir := t.TempDir()
	path, err := w.Write(dir, language.Ruby)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FROM custom/ruby\n", string(content))

	// Tags without an override fall back to the embedded set
	_, source, err := w.Template(language.Golang)
	require.NoError(t, err)
	assert.Equal(t, "embedded", source)
}

func TestDescriptorWriter_UnknownTag(t *testing.T) {
	w := NewDescriptorWriter("", nil)

	dir := t.TempDir()
	_, err := w.Write(dir, language.Unknown)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateMissing)

	_, statErr := os.Stat(filepath.Join(dir, DescriptorName))
	assert.True(t, os.IsNotExist(statErr))
}
