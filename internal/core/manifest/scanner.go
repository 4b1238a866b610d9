package manifest

import (
	"regexp"
	"sort"
	"strings"
)

// =============================================================================
// Scanner Interface
// =============================================================================

// Scanner extracts third-party package names from one source file.
type Scanner interface {
	// Extensions returns the lowercase file extensions this scanner reads.
	Extensions() []string
	// Scan returns the package names referenced by src, possibly with duplicates.
	Scan(src []byte) []string
}

// patternScanner is a regex-backed Scanner. Every pattern must have exactly
// one capture group holding the import specifier.
type patternScanner struct {
	extensions []string
	patterns   []*regexp.Regexp
	normalize  func(spec string) (string, bool)
}

func (s *patternScanner) Extensions() []string {
	return s.extensions
}

func (s *patternScanner) Scan(src []byte) []string {
	var names []string
	for _, re := range s.patterns {
		for _, m := range re.FindAllSubmatch(src, -1) {
			if name, ok := s.normalize(string(m[1])); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// =============================================================================
// Language Scanners
// =============================================================================

// NodeScanner finds require() calls and ES module imports in .js and .ts files.
var NodeScanner Scanner = &patternScanner{
	extensions: []string{".js", ".ts"},
	patterns: []*regexp.Regexp{
		regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`),
		regexp.MustCompile(`\b(?:from|import)\s+['"]([^'"]+)['"]`),
	},
	normalize: nodePackageName,
}

// PHPScanner finds namespace imports ("use Vendor\Package\Class;") in .php files.
var PHPScanner Scanner = &patternScanner{
	extensions: []string{".php"},
	patterns: []*regexp.Regexp{
		regexp.MustCompile(`\buse\s+([^;(]+);`),
	},
	normalize: phpPackageName,
}

// RubyScanner finds require statements in .rb files. require_relative is
// not matched.
var RubyScanner Scanner = &patternScanner{
	extensions: []string{".rb"},
	patterns: []*regexp.Regexp{
		regexp.MustCompile(`\brequire\s+['"]([^'"]+)['"]`),
	},
	normalize: rubyGemName,
}

// nodePackageName reduces an import specifier to its top-level package.
//
// Example:
//
//	nodePackageName("express")            // returns "express", true
//	nodePackageName("lodash/fp")          // returns "lodash", true
//	nodePackageName("@babel/core/lib/x")  // returns "@babel/core", true
//	nodePackageName("./local")            // returns "", false
func nodePackageName(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" || isLocalPath(spec) || strings.HasPrefix(spec, "node:") {
		return "", false
	}
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 || parts[1] == "" {
			return "", false
		}
		return parts[0] + "/" + parts[1], true
	}
	return parts[0], true
}

// phpPackageName reduces a use clause to its lowercased top-level namespace.
//
// Example:
//
//	phpPackageName(`Monolog\Logger`)             // returns "monolog", true
//	phpPackageName(`function Foo\bar`)           // returns "foo", true
//	phpPackageName(`Symfony\Component\X as Y`)   // returns "symfony", true
func phpPackageName(clause string) (string, bool) {
	clause = strings.TrimSpace(clause)
	for _, prefix := range []string{"function ", "const "} {
		clause = strings.TrimPrefix(clause, prefix)
	}
	clause = strings.TrimLeft(strings.TrimSpace(clause), `\`)
	if i := strings.IndexAny(clause, "\\ {,"); i >= 0 {
		clause = clause[:i]
	}
	if clause == "" {
		return "", false
	}
	return strings.ToLower(clause), true
}

func rubyGemName(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" || isLocalPath(spec) {
		return "", false
	}
	return spec, true
}

func isLocalPath(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}

// =============================================================================
// Collection
// =============================================================================

// HandlesFile reports whether the scanner reads files with the given name.
func HandlesFile(s Scanner, fileName string) bool {
	lower := strings.ToLower(fileName)
	for _, ext := range s.Extensions() {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Collect runs the scanner over every source and returns the distinct
// package names in sorted order.
func Collect(s Scanner, sources [][]byte) []string {
	seen := make(map[string]struct{})
	for _, src := range sources {
		for _, name := range s.Scan(src) {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
