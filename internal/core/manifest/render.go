package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// Manifest Renderers
// =============================================================================

// Wildcard is the unconstrained version requirement written for every
// discovered dependency.
const Wildcard = "*"

// PlaceholderPOM is the fixed Maven descriptor written for Java projects.
const PlaceholderPOM = `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>auto</groupId>
  <artifactId>app</artifactId>
  <version>1.0</version>
</project>
`

type packageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

type composerJSON struct {
	Require map[string]string `json:"require"`
}

// RenderPackageJSON produces a package.json listing each dependency with a
// wildcard version. Keys are emitted in sorted order.
func RenderPackageJSON(deps []string) ([]byte, error) {
	doc := packageJSON{
		Name:         "auto-app",
		Version:      "1.0.0",
		Dependencies: wildcardMap(deps),
	}
	return marshalIndent(doc)
}

// RenderComposerJSON produces a composer.json requiring each package with a
// wildcard version.
func RenderComposerJSON(deps []string) ([]byte, error) {
	return marshalIndent(composerJSON{Require: wildcardMap(deps)})
}

// RenderGemfile produces a Gemfile declaring each gem without a version
// constraint.
//
// Example:
//
//	RenderGemfile([]string{"sinatra"})
//	// source 'https://rubygems.org'
//	// gem 'sinatra'
func RenderGemfile(gems []string) []byte {
	var b strings.Builder
	b.WriteString("source 'https://rubygems.org'\n")
	for _, gem := range gems {
		fmt.Fprintf(&b, "gem '%s'\n", gem)
	}
	return []byte(b.String())
}

// RenderPOM returns the placeholder Maven descriptor.
func RenderPOM() []byte {
	return []byte(PlaceholderPOM)
}

func wildcardMap(deps []string) map[string]string {
	m := make(map[string]string, len(deps))
	for _, d := range deps {
		m[d] = Wildcard
	}
	return m
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}
