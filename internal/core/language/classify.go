package language

import (
	"path/filepath"
	"strings"
)

// =============================================================================
// Detection Rules
// =============================================================================

// Rule is a per-directory detection rule. A rule matches a directory when
// its manifest file is present or any file carries one of its extensions.
type Rule struct {
	Tag        Tag
	Manifest   string   // "" when the language has no marker file
	Extensions []string // lowercase, with leading dot
}

// Rules holds the detection rules in precedence order.
var Rules = []Rule{
	{Tag: Python, Manifest: "requirements.txt", Extensions: []string{".py"}},
	{Tag: NodeJS, Manifest: "package.json", Extensions: []string{".js", ".ts"}},
	{Tag: Java, Manifest: "pom.xml", Extensions: []string{".java"}},
	{Tag: Golang, Manifest: "go.mod", Extensions: []string{".go"}},
	{Tag: PHP, Extensions: []string{".php"}},
	{Tag: Ruby, Extensions: []string{".rb"}},
}

// ClassifyDir returns the first tag whose rule matches the given file names,
// all of which are taken to live in a single directory. Both signals of a rule
// are checked before moving on to the next rule. Names are compared
// case-insensitively.
//
// Returns Unknown if no rule matches.
//
// Example:
//
//	ClassifyDir([]string{"app.py"})                 // returns Python
//	ClassifyDir([]string{"index.js", "README.md"}) // returns NodeJS
//	ClassifyDir([]string{"README.md"})              // returns Unknown
func ClassifyDir(fileNames []string) Tag {
	lower := make([]string, 0, len(fileNames))
	for _, name := range fileNames {
		lower = append(lower, strings.ToLower(name))
	}

	for _, rule := range Rules {
		if rule.matches(lower) {
			return rule.Tag
		}
	}
	return Unknown
}

func (r Rule) matches(lowerNames []string) bool {
	for _, name := range lowerNames {
		if r.Manifest != "" && name == r.Manifest {
			return true
		}
		ext := filepath.Ext(name)
		for _, want := range r.Extensions {
			if ext == want {
				return true
			}
		}
	}
	return false
}

// ManifestFile returns the canonical dependency manifest file name for a tag,
// relative to the workspace root. Returns "" for Unknown.
func ManifestFile(t Tag) string {
	switch t {
	case Python:
		return "requirements.txt"
	case NodeJS:
		return "package.json"
	case Java:
		return "pom.xml"
	case Golang:
		return "go.mod"
	case PHP:
		return "composer.json"
	case Ruby:
		return "Gemfile"
	}
	return ""
}
