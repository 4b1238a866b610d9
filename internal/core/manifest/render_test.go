package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPackageJSON(t *testing.T) {
	data, err := RenderPackageJSON([]string{"express", "axios"})
	require.NoError(t, err)

	var doc struct {
		Name         string            `json:"name"`
		Version      string            `json:"version"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "auto-app", doc.Name)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.Equal(t, map[string]string{"axios": "*", "express": "*"}, doc.Dependencies)
	assert.Contains(t, string(data), "\n  \"dependencies\"")
}

func TestRenderPackageJSON_NoDependencies(t *testing.T) {
	data, err := RenderPackageJSON(nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dependencies": {}`)
}

func TestRenderComposerJSON(t *testing.T) {
	data, err := RenderComposerJSON([]string{"monolog"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"require": {"monolog": "*"}}`, string(data))
}

func TestRenderGemfile(t *testing.T) {
	got := RenderGemfile([]string{"json", "sinatra"})
	assert.Equal(t, "source 'https://rubygems.org'\ngem 'json'\ngem 'sinatra'\n", string(got))
}

func TestRenderGemfile_Empty(t *testing.T) {
	assert.Equal(t, "source 'https://rubygems.org'\n", string(RenderGemfile(nil)))
}

func TestRenderPOM(t *testing.T) {
	pom := string(RenderPOM())
	assert.Contains(t, pom, "<groupId>auto</groupId>")
	assert.Contains(t, pom, "<artifactId>app</artifactId>")
	assert.Contains(t, pom, "<modelVersion>4.0.0</modelVersion>")
}
