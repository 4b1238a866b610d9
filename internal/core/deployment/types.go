package deployment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// Stages
// =============================================================================

// Stage identifies one step of the pipeline.
type Stage string

const (
	StageExtract      Stage = "extract"
	StageClassify     Stage = "classify"
	StageManifest     Stage = "manifest"
	StageFlatten      Stage = "flatten"
	StageDescriptor   Stage = "descriptor"
	StageAuthenticate Stage = "authenticate"
	StageBuild        Stage = "build"
	StagePush         Stage = "push"
	StagePublish      Stage = "publish"
	StageDone         Stage = "done"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageExtract,
	StageClassify,
	StageManifest,
	StageFlatten,
	StageDescriptor,
	StageAuthenticate,
	StageBuild,
	StagePush,
	StagePublish,
}

// =============================================================================
// Result
// =============================================================================

// Status is the overall outcome of a pipeline run.
type Status string

const (
	StatusRunning        Status = "running"
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFatal          Status = "fatal"
)

// Result is the immutable outcome of one deployment request. Exactly one
// Result is produced per request.
type Result struct {
	ID            string    `json:"id" yaml:"id"`
	Status        Status    `json:"status" yaml:"status"`
	Stage         Stage     `json:"stage" yaml:"stage"` // Last stage reached
	Kind          Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Language      string    `json:"language,omitempty" yaml:"language,omitempty"`
	WorkspaceDir  string    `json:"workspace_dir,omitempty" yaml:"workspace_dir,omitempty"`
	ImageRef      string    `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
	ImageDigest   string    `json:"image_digest,omitempty" yaml:"image_digest,omitempty"`
	RepositoryURL string    `json:"repository_url,omitempty" yaml:"repository_url,omitempty"`
	Error         string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time `json:"finished_at" yaml:"finished_at"`
}

// Succeeded returns base completed with an image and a published repository.
func Succeeded(base Result, imageRef, repositoryURL string) Result {
	r := base
	r.Status = StatusSuccess
	r.Stage = StageDone
	r.Kind = KindNone
	r.ImageRef = imageRef
	r.RepositoryURL = repositoryURL
	r.Error = ""
	return r
}

// Degraded returns base completed with an image but a failed publish step.
// The image reference is kept and the publish failure is recorded.
func Degraded(base Result, imageRef string, publishErr error) Result {
	r := base
	r.Status = StatusPartialSuccess
	r.Stage = StagePublish
	r.Kind = KindPublishDegraded
	r.ImageRef = imageRef
	r.RepositoryURL = ""
	if publishErr != nil {
		r.Error = publishErr.Error()
	}
	return r
}

// PushDegraded returns base completed with a built image that never reached
// the registry. Publishing still ran: repositoryURL is "" when it failed too,
// in which case err carries both failures.
func PushDegraded(base Result, imageRef, repositoryURL string, err error) Result {
	r := base
	r.Status = StatusPartialSuccess
	r.Stage = StageDone
	if repositoryURL == "" {
		r.Stage = StagePublish
	}
	r.Kind = KindPushFailure
	r.ImageRef = imageRef
	r.ImageDigest = ""
	r.RepositoryURL = repositoryURL
	if err != nil {
		r.Error = singleLine(err.Error())
	}
	return r
}

// Failed returns base terminated at stage by err. A StageError contributes
// its user-facing message only; other errors are reported in full.
func Failed(base Result, stage Stage, err error) Result {
	r := base
	r.Status = StatusFatal
	r.Stage = stage
	r.Kind = KindOf(err)
	if err != nil {
		msg := err.Error()
		var stageErr *StageError
		if errors.As(err, &stageErr) && stageErr.Message != "" {
			msg = stageErr.Message
		}
		r.Error = singleLine(msg)
	}
	return r
}

// Report renders the human-readable form of the result: a multi-line report
// for success and partial success, a single line for fatal outcomes.
//
// Example:
//
//	Deployment complete!
//	Docker Image: alice/project_1f2e
//	GitHub Repo: https://github.com/alice/project_1f2e
func (r Result) Report() string {
	switch r.Status {
	case StatusSuccess:
		return fmt.Sprintf("Deployment complete!\nDocker Image: %s\nGitHub Repo: %s", r.ImageRef, r.RepositoryURL)
	case StatusPartialSuccess:
		if r.Kind == KindPushFailure {
			repo := r.RepositoryURL
			if repo == "" {
				repo = "not published"
			}
			return fmt.Sprintf("Deployment complete with warnings.\nDocker Image: %s (not pushed)\nGitHub Repo: %s\nWarning: %s", r.ImageRef, repo, r.Error)
		}
		return fmt.Sprintf("Deployment complete with warnings.\nDocker Image: %s\nGitHub Repo: publish failed: %s", r.ImageRef, r.Error)
	case StatusFatal:
		return singleLine(r.Error)
	}
	return fmt.Sprintf("Deployment %s at stage %s", r.Status, r.Stage)
}

// Terminal reports whether the result is a final outcome.
func (r Result) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartialSuccess || r.Status == StatusFatal
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
