// Package docker builds, authenticates and publishes container images.
package docker

import (
	"context"
	"time"
)

// =============================================================================
// Registry Types
// =============================================================================

// RegistryAuth holds registry credentials for one pipeline run.
type RegistryAuth struct {
	Username      string
	Password      string // Never logged, never passed on a command line
	ServerAddress string // "" for Docker Hub
}

// =============================================================================
// Build Types
// =============================================================================

// BuildSpec defines an image build.
type BuildSpec struct {
	ContextDir string // Directory holding the build descriptor and sources
	Dockerfile string // Relative to ContextDir; "" means "Dockerfile"
	Tag        string
}

// BuildResult describes a finished build.
type BuildResult struct {
	Tag      string
	ImageID  string // May be empty when the builder does not report it
	Duration time.Duration
}

// PushResult describes a finished push.
type PushResult struct {
	Tag    string
	Digest string // May be empty when the registry did not report it
}

// =============================================================================
// Client Interface
// =============================================================================

// Client defines the container tooling the pipeline needs.
type Client interface {
	// Registry operations
	Login(ctx context.Context, auth RegistryAuth) error
	PushImage(ctx context.Context, tag string, auth RegistryAuth) (PushResult, error)

	// Image operations
	BuildImage(ctx context.Context, spec BuildSpec) (BuildResult, error)

	// Health operations
	Ping(ctx context.Context) error
	Close() error
}
