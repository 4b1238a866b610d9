// Package github publishes workspaces as repositories on a GitHub-compatible host.
package github

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrRepoCreate is returned when the hosting API rejects repository creation.
	ErrRepoCreate = errors.New("repository creation failed")

	// ErrPush is returned when committing or pushing the workspace fails.
	ErrPush = errors.New("repository push failed")
)

// PublishError wraps a publishing failure with context.
type PublishError struct {
	Op      string // Operation that failed
	Repo    string // owner/name
	Message string
	Err     error // Sentinel
	Cause   error // Underlying error, may be nil
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Repo, e.Message)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PublishError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newPublishError(op, repo, message string, sentinel, cause error) *PublishError {
	return &PublishError{Op: op, Repo: repo, Message: message, Err: sentinel, Cause: cause}
}
