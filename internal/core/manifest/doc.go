// Package manifest provides pure functions for dependency manifest synthesis.
//
// This package contains the functional core for discovering third-party
// dependencies in source text and rendering language-specific manifest files.
// All functions are pure (no I/O, no side effects).
//
// # Functions
//
//   - Scanners: Extract imported package names from source text (NodeScanner, PHPScanner, RubyScanner)
//   - Collect: Merge scanner output from many files into a sorted, distinct list
//   - Renderers: Produce manifest bytes (RenderPackageJSON, RenderComposerJSON, RenderGemfile, RenderPOM)
//
// # Usage
//
// The imperative shell (internal/shell/manifest) reads workspace files and
// feeds them through these functions:
//
//	deps := manifest.Collect(manifest.NodeScanner, sources)
//	data, err := manifest.RenderPackageJSON(deps)
//
// Scanning is deliberately approximate: multi-line or dynamically built
// import expressions are not recognized.
package manifest
