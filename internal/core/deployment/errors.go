package deployment

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Fatal stage failures
	ErrExtraction            = errors.New("archive extraction failed")
	ErrClassificationUnknown = errors.New("no recognizable language")
	ErrManifestUnsupported   = errors.New("no manifest synthesizer for language")
	ErrManifestFailed        = errors.New("manifest synthesis failed")
	ErrFlatten               = errors.New("workspace flattening failed")
	ErrTemplateMissing       = errors.New("build descriptor template missing")
	ErrAuthentication        = errors.New("registry authentication failed")
	ErrBuildFailure          = errors.New("image build failed")
	ErrPushFailure           = errors.New("image push failed")
	ErrTimeout               = errors.New("stage timed out")
	ErrInternal              = errors.New("internal pipeline error")

	// Degraded stage failures
	ErrPublishDegraded = errors.New("repository publish failed")
)

// Kind names a failure category as reported to callers.
type Kind string

const (
	KindNone                  Kind = ""
	KindExtractionError       Kind = "ExtractionError"
	KindClassificationUnknown Kind = "ClassificationUnknown"
	KindManifestUnsupported   Kind = "ManifestUnsupported"
	KindManifestFailed        Kind = "ManifestFailed"
	KindFlattenError          Kind = "FlattenError"
	KindTemplateMissingError  Kind = "TemplateMissingError"
	KindAuthenticationError   Kind = "AuthenticationError"
	KindBuildFailure          Kind = "BuildFailure"
	KindPushFailure           Kind = "PushFailure"
	KindTimeoutError          Kind = "TimeoutError"
	KindInternalError         Kind = "InternalError"
	KindPublishDegraded       Kind = "PublishDegraded"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	// ErrTimeout first: a timed out stage wraps both its own sentinel and ErrTimeout.
	{ErrTimeout, KindTimeoutError},
	{ErrExtraction, KindExtractionError},
	{ErrClassificationUnknown, KindClassificationUnknown},
	{ErrManifestUnsupported, KindManifestUnsupported},
	{ErrManifestFailed, KindManifestFailed},
	{ErrFlatten, KindFlattenError},
	{ErrTemplateMissing, KindTemplateMissingError},
	{ErrAuthentication, KindAuthenticationError},
	{ErrBuildFailure, KindBuildFailure},
	{ErrPushFailure, KindPushFailure},
	{ErrPublishDegraded, KindPublishDegraded},
	{ErrInternal, KindInternalError},
}

// KindOf returns the failure kind of err, or KindInternalError when err
// matches none of the known sentinels. A nil error has KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternalError
}

// StageError reports a failed pipeline stage.
type StageError struct {
	Stage   Stage  // Stage that failed
	Kind    error  // One of the Err* sentinels above
	Message string // User-facing, single line
	Err     error  // Underlying cause, may be nil
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the sentinel kind and the underlying cause to errors.Is.
func (e *StageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewStageError creates a new StageError.
func NewStageError(stage Stage, kind error, message string, err error) *StageError {
	return &StageError{
		Stage:   stage,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}
