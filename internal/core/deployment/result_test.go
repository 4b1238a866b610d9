package deployment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Result Constructors
// =============================================================================

func TestSucceeded(t *testing.T) {
	base := Result{ID: "d1", Language: "python"}
	r := Succeeded(base, "alice/project_d1", "https://github.com/alice/project_d1")

	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, StageDone, r.Stage)
	assert.Equal(t, KindNone, r.Kind)
	assert.Equal(t, "alice/project_d1", r.ImageRef)
	assert.Equal(t, "https://github.com/alice/project_d1", r.RepositoryURL)
	assert.True(t, r.Terminal())
	// base is untouched
	assert.Empty(t, base.Status)
}

func TestDegraded_KeepsImageAndPublishError(t *testing.T) {
	r := Degraded(Result{ID: "d1"}, "alice/project_d1", errors.New("git push: authentication required"))

	assert.Equal(t, StatusPartialSuccess, r.Status)
	assert.Equal(t, KindPublishDegraded, r.Kind)
	assert.Equal(t, "alice/project_d1", r.ImageRef)
	assert.Empty(t, r.RepositoryURL)
	assert.Equal(t, "git push: authentication required", r.Error)
}

func TestPushDegraded_PublishedWithoutImage(t *testing.T) {
	base := Result{ID: "d1", ImageDigest: "sha256:feed"}
	r := PushDegraded(base, "alice/project_d1", "https://github.com/alice/project_d1", errors.New("Docker push failed: denied"))

	assert.Equal(t, StatusPartialSuccess, r.Status)
	assert.Equal(t, StageDone, r.Stage)
	assert.Equal(t, KindPushFailure, r.Kind)
	assert.Equal(t, "alice/project_d1", r.ImageRef)
	assert.Empty(t, r.ImageDigest)
	assert.Equal(t, "https://github.com/alice/project_d1", r.RepositoryURL)
	assert.Equal(t, "Docker push failed: denied", r.Error)
}

func TestPushDegraded_PublishAlsoFailed(t *testing.T) {
	r := PushDegraded(Result{}, "alice/project_d1", "", errors.New("Docker push failed: denied; publish failed: 401"))

	assert.Equal(t, StagePublish, r.Stage)
	assert.Empty(t, r.RepositoryURL)
}

func TestFailed_UsesStageErrorKind(t *testing.T) {
	err := NewStageError(StageAuthenticate, ErrAuthentication, "Docker login failed. Check credentials.", nil)
	r := Failed(Result{ID: "d1"}, StageAuthenticate, err)

	assert.Equal(t, StatusFatal, r.Status)
	assert.Equal(t, StageAuthenticate, r.Stage)
	assert.Equal(t, KindAuthenticationError, r.Kind)
	assert.Equal(t, "Docker login failed. Check credentials.", r.Error)
}

func TestFailed_CollapsesMultilineErrors(t *testing.T) {
	r := Failed(Result{}, StageBuild, errors.New("step 3\n  exit code 1"))
	assert.Equal(t, "step 3 exit code 1", r.Error)
}

// =============================================================================
// Report Tests
// =============================================================================

func TestReport_Success(t *testing.T) {
	r := Succeeded(Result{}, "alice/project_x", "https://github.com/alice/project_x")
	assert.Equal(t,
		"Deployment complete!\nDocker Image: alice/project_x\nGitHub Repo: https://github.com/alice/project_x",
		r.Report())
}

func TestReport_PartialSuccessAppendsPublishError(t *testing.T) {
	r := Degraded(Result{}, "alice/project_x", errors.New("GitHub repo creation failed"))
	report := r.Report()
	assert.Contains(t, report, "Docker Image: alice/project_x")
	assert.Contains(t, report, "GitHub repo creation failed")
}

func TestReport_PushFailureMarksImageNotPushed(t *testing.T) {
	r := PushDegraded(Result{}, "alice/project_x", "https://github.com/alice/project_x", errors.New("Docker push failed: denied"))
	assert.Equal(t,
		"Deployment complete with warnings.\nDocker Image: alice/project_x (not pushed)\nGitHub Repo: https://github.com/alice/project_x\nWarning: Docker push failed: denied",
		r.Report())

	r = PushDegraded(Result{}, "alice/project_x", "", errors.New("both failed"))
	assert.Contains(t, r.Report(), "GitHub Repo: not published")
}

func TestReport_FatalIsSingleLine(t *testing.T) {
	r := Failed(Result{}, StageClassify, NewStageError(StageClassify, ErrClassificationUnknown, "Unsupported project type", nil))
	assert.Equal(t, "Unsupported project type", r.Report())
	assert.NotContains(t, r.Report(), "\n")
}

// =============================================================================
// Error Taxonomy Tests
// =============================================================================

func TestKindOf_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"extraction", fmt.Errorf("open: %w", ErrExtraction), KindExtractionError},
		{"unknown language", ErrClassificationUnknown, KindClassificationUnknown},
		{"unsupported", ErrManifestUnsupported, KindManifestUnsupported},
		{"template", NewStageError(StageDescriptor, ErrTemplateMissing, "x", nil), KindTemplateMissingError},
		{"auth", NewStageError(StageAuthenticate, ErrAuthentication, "x", errors.New("denied")), KindAuthenticationError},
		{"build", ErrBuildFailure, KindBuildFailure},
		{"timeout wins", NewStageError(StageBuild, ErrTimeout, "x", ErrBuildFailure), KindTimeoutError},
		{"publish", ErrPublishDegraded, KindPublishDegraded},
		{"foreign", errors.New("boom"), KindInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStageError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewStageError(StageBuild, ErrBuildFailure, "Docker build failed. Check Dockerfile.", cause)

	assert.True(t, errors.Is(err, ErrBuildFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Docker build failed. Check Dockerfile. (exit status 1)", err.Error())
}

func TestFailed_StageErrorMessageOnly(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := NewStageError(StageExtract, ErrExtraction, "Extraction failed: "+cause.Error(), cause)
	r := Failed(Result{}, StageExtract, err)

	assert.Equal(t, "Extraction failed: zip: not a valid zip file", r.Error)
	assert.Equal(t, KindExtractionError, r.Kind)
}
