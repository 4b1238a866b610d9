// Package pipeline sequences the deployment stages for one uploaded archive.
package pipeline

import (
	"context"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/language"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/docker"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/github"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/manifest"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/workspace"
)

// =============================================================================
// Stage Interfaces
// =============================================================================

// Extractor unpacks an archive into a fresh workspace.
type Extractor interface {
	Extract(ctx context.Context, archivePath string) (workspace.Workspace, error)
}

// ClassifierFunc determines the primary language of a directory.
type ClassifierFunc func(ctx context.Context, dir string) (language.Tag, error)

// ManifestSynthesizer ensures a dependency manifest exists.
type ManifestSynthesizer interface {
	Ensure(ctx context.Context, dir string, tag language.Tag) (manifest.Outcome, error)
}

// Flattener moves nested files to the workspace root.
type Flattener interface {
	Flatten(ctx context.Context, dir string) (workspace.FlattenReport, error)
}

// DescriptorWriter writes the build descriptor for a language.
type DescriptorWriter interface {
	Write(dir string, tag language.Tag) (string, error)
}

// ImageClient authenticates, builds and pushes images.
type ImageClient interface {
	Login(ctx context.Context, auth docker.RegistryAuth) error
	BuildImage(ctx context.Context, spec docker.BuildSpec) (docker.BuildResult, error)
	PushImage(ctx context.Context, tag string, auth docker.RegistryAuth) (docker.PushResult, error)
}

// DigestResolverFunc looks up the registry digest of a pushed image.
type DigestResolverFunc func(ctx context.Context, ref string, auth docker.RegistryAuth) (string, error)

// Publisher creates a hosted repository and pushes the workspace to it.
type Publisher interface {
	Publish(ctx context.Context, req github.PublishRequest) (string, error)
}

// Recorder is notified when a deployment starts and when it finishes.
type Recorder interface {
	RecordStarted(ctx context.Context, result deployment.Result) error
	RecordFinished(ctx context.Context, result deployment.Result) error
}
