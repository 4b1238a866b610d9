// Package language classifies source projects by primary programming language.
// This is part of the Functional Core - all functions are pure with no I/O.
package language

import "strings"

// =============================================================================
// Language Tags
// =============================================================================

// Tag identifies the primary language of a workspace.
type Tag string

const (
	Python  Tag = "python"
	NodeJS  Tag = "nodejs"
	Java    Tag = "java"
	Golang  Tag = "golang"
	PHP     Tag = "php"
	Ruby    Tag = "ruby"
	Unknown Tag = "unknown"
)

// Supported lists every known tag in detection precedence order.
// Unknown is never part of it.
var Supported = []Tag{Python, NodeJS, Java, Golang, PHP, Ruby}

// String returns the tag value.
func (t Tag) String() string {
	return string(t)
}

// IsKnown reports whether t is one of the supported tags.
func (t Tag) IsKnown() bool {
	for _, s := range Supported {
		if s == t {
			return true
		}
	}
	return false
}

// Parse converts a string to a Tag. Unrecognized values map to Unknown.
//
// Example:
//
//	Parse("Python") // returns Python
//	Parse("cobol")  // returns Unknown
func Parse(s string) Tag {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	if t.IsKnown() {
		return t
	}
	return Unknown
}
