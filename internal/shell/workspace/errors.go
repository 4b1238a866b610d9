// Package workspace manages per-deployment project directories: creation,
// archive extraction, language classification and layout flattening.
package workspace

import "errors"

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrInvalidArchive is returned when an archive cannot be opened or read.
	ErrInvalidArchive = errors.New("invalid archive")

	// ErrUnsafePath is returned when an archive entry resolves outside the workspace.
	ErrUnsafePath = errors.New("archive entry escapes workspace")

	// ErrCollision is returned by the fail collision policy when two files
	// flatten to the same root-level name.
	ErrCollision = errors.New("flatten name collision")

	// ErrInvalidPolicy is returned for an unrecognized collision policy.
	ErrInvalidPolicy = errors.New("invalid collision policy")
)
