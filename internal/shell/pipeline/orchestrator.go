package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/language"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/command"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/docker"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/github"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/manifest"
)

// =============================================================================
// Configuration
// =============================================================================

// Timeouts bounds each external stage.
type Timeouts struct {
	Command time.Duration // Manifest tooling
	Build   time.Duration // Image build and push
	Login   time.Duration
	Publish time.Duration
}

// DefaultTimeouts returns the default stage bounds.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Command: 5 * time.Minute,
		Build:   20 * time.Minute,
		Login:   time.Minute,
		Publish: 5 * time.Minute,
	}
}

// Config holds orchestrator configuration.
type Config struct {
	Timeouts       Timeouts
	PushImage      bool   // Push the built image to the registry
	RegistryServer string // "" for Docker Hub
	PrivateRepos   bool
}

// Dependencies holds the stage implementations. Recorder and DigestResolver
// are optional.
type Dependencies struct {
	Extractor      Extractor
	Classify       ClassifierFunc
	Synthesizer    ManifestSynthesizer
	Flattener      Flattener
	Descriptors    DescriptorWriter
	Images         ImageClient
	DigestResolver DigestResolverFunc
	Publisher      Publisher
	Recorder       Recorder
}

// Request is one deployment request. Secrets live only for this call.
type Request struct {
	ArchivePath      string
	RegistryUsername string
	RegistryPassword string
	HostingUsername  string
	HostingToken     string
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator runs the deployment stages in order.
type Orchestrator struct {
	deps   Dependencies
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps Dependencies, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultTimeouts()
	if cfg.Timeouts.Command <= 0 {
		cfg.Timeouts.Command = defaults.Command
	}
	if cfg.Timeouts.Build <= 0 {
		cfg.Timeouts.Build = defaults.Build
	}
	if cfg.Timeouts.Login <= 0 {
		cfg.Timeouts.Login = defaults.Login
	}
	if cfg.Timeouts.Publish <= 0 {
		cfg.Timeouts.Publish = defaults.Publish
	}
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Deploy runs every stage for req and always returns exactly one Result.
// Fatal stage failures stop the run; a publish failure degrades it to
// partial success. Nothing is rolled back.
func (o *Orchestrator) Deploy(ctx context.Context, req Request) (result deployment.Result) {
	base := deployment.Result{
		ID:        o.newID(),
		Status:    deployment.StatusRunning,
		Stage:     deployment.StageExtract,
		StartedAt: o.now(),
	}
	logger := o.logger.With("deployment_id", base.ID)

	o.recordStarted(ctx, logger, base)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panic", "stage", result.Stage, "panic", r, "stack", string(debug.Stack()))
			stage := result.Stage
			if stage == "" {
				stage = base.Stage
			}
			result = deployment.Failed(result, stage,
				deployment.NewStageError(stage, deployment.ErrInternal, fmt.Sprintf("Internal error during %s: %v", stage, r), nil))
		}
		result.FinishedAt = o.now()
		o.logResult(logger, result)
		o.recordFinished(ctx, logger, result)
	}()

	result = base
	return o.run(ctx, logger, req, &result)
}

// run executes the stages, advancing cur so a recovered panic knows the stage.
func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, req Request, cur *deployment.Result) deployment.Result {
	// Extract
	cur.Stage = deployment.StageExtract
	ws, err := o.deps.Extractor.Extract(ctx, req.ArchivePath)
	if ws.Dir != "" {
		cur.WorkspaceDir = ws.Dir
	}
	if err != nil {
		return deployment.Failed(*cur, cur.Stage,
			deployment.NewStageError(cur.Stage, deployment.ErrExtraction, "Extraction failed: "+err.Error(), err))
	}
	logger.Info("archive extracted", "workspace", ws.Dir)

	// Classify
	cur.Stage = deployment.StageClassify
	tag, err := o.deps.Classify(ctx, ws.Dir)
	if err != nil {
		return deployment.Failed(*cur, cur.Stage,
			deployment.NewStageError(cur.Stage, deployment.ErrInternal, "Classification failed: "+err.Error(), err))
	}
	cur.Language = tag.String()
	if !tag.IsKnown() {
		return deployment.Failed(*cur, cur.Stage,
			deployment.NewStageError(cur.Stage, deployment.ErrClassificationUnknown, "Unsupported project type", nil))
	}
	logger.Info("language detected", "language", tag)

	// Manifest
	cur.Stage = deployment.StageManifest
	if err := o.synthesize(ctx, ws.Dir, tag); err != nil {
		return deployment.Failed(*cur, cur.Stage, err)
	}

	// Flatten
	cur.Stage = deployment.StageFlatten
	report, err := o.deps.Flattener.Flatten(ctx, ws.Dir)
	if err != nil {
		return deployment.Failed(*cur, cur.Stage,
			deployment.NewStageError(cur.Stage, deployment.ErrFlatten, "Flattening failed: "+err.Error(), err))
	}
	logger.Debug("workspace flattened", "copied", report.Copied, "collisions", len(report.Collisions))

	// Descriptor
	cur.Stage = deployment.StageDescriptor
	if _, err := o.deps.Descriptors.Write(ws.Dir, tag); err != nil {
		if errors.Is(err, docker.ErrTemplateMissing) {
			return deployment.Failed(*cur, cur.Stage,
				deployment.NewStageError(cur.Stage, deployment.ErrTemplateMissing, "No build template for "+tag.String(), err))
		}
		return deployment.Failed(*cur, cur.Stage,
			deployment.NewStageError(cur.Stage, deployment.ErrInternal, "Could not write build descriptor: "+err.Error(), err))
	}

	auth := docker.RegistryAuth{
		Username:      req.RegistryUsername,
		Password:      req.RegistryPassword,
		ServerAddress: o.cfg.RegistryServer,
	}

	// Authenticate
	cur.Stage = deployment.StageAuthenticate
	err = withTimeout(ctx, o.cfg.Timeouts.Login, func(ctx context.Context) error {
		return o.deps.Images.Login(ctx, auth)
	})
	if err != nil {
		return deployment.Failed(*cur, cur.Stage,
			o.stageError(cur.Stage, o.cfg.Timeouts.Login, deployment.ErrAuthentication, "Docker login failed. Check credentials.", err))
	}

	// Build
	cur.Stage = deployment.StageBuild
	imageRef := deployment.QualifiedImageTag(o.cfg.RegistryServer, req.RegistryUsername, ws.Name())
	err = withTimeout(ctx, o.cfg.Timeouts.Build, func(ctx context.Context) error {
		_, err := o.deps.Images.BuildImage(ctx, docker.BuildSpec{ContextDir: ws.Dir, Tag: imageRef})
		return err
	})
	if err != nil {
		return deployment.Failed(*cur, cur.Stage,
			o.stageError(cur.Stage, o.cfg.Timeouts.Build, deployment.ErrBuildFailure, "Docker build failed. Check Dockerfile.", err))
	}
	cur.ImageRef = imageRef
	logger.Info("image built", "image", imageRef)

	// Push. A rejected push still publishes the source.
	var pushErr *deployment.StageError
	if o.cfg.PushImage {
		cur.Stage = deployment.StagePush
		digest, err := o.push(ctx, logger, imageRef, auth)
		if err != nil {
			pushErr = o.stageError(cur.Stage, o.cfg.Timeouts.Build, deployment.ErrPushFailure, "Docker push failed: "+err.Error(), err)
			logger.Warn("image push failed, continuing with publish", "image", imageRef, "error", err)
		}
		cur.ImageDigest = digest
	}

	// Publish
	cur.Stage = deployment.StagePublish
	var repoURL string
	err = withTimeout(ctx, o.cfg.Timeouts.Publish, func(ctx context.Context) error {
		var err error
		repoURL, err = o.deps.Publisher.Publish(ctx, github.PublishRequest{
			Dir:      ws.Dir,
			RepoName: ws.Name(),
			Username: req.HostingUsername,
			Token:    req.HostingToken,
			Private:  o.cfg.PrivateRepos,
		})
		return err
	})
	if err != nil {
		publishErr := o.stageError(cur.Stage, o.cfg.Timeouts.Publish, deployment.ErrPublishDegraded, err.Error(), err)
		if pushErr != nil {
			return deployment.PushDegraded(*cur, imageRef, "",
				fmt.Errorf("%s; publish failed: %s", pushErr.Message, publishErr.Message))
		}
		return deployment.Degraded(*cur, imageRef, errors.New(publishErr.Message))
	}
	if pushErr != nil {
		return deployment.PushDegraded(*cur, imageRef, repoURL, errors.New(pushErr.Message))
	}

	return deployment.Succeeded(*cur, imageRef, repoURL)
}

func (o *Orchestrator) synthesize(ctx context.Context, dir string, tag language.Tag) error {
	err := withTimeout(ctx, o.cfg.Timeouts.Command, func(ctx context.Context) error {
		_, err := o.deps.Synthesizer.Ensure(ctx, dir, tag)
		return err
	})
	if err == nil {
		return nil
	}
	kind := deployment.ErrManifestFailed
	if errors.Is(err, manifest.ErrUnsupported) {
		kind = deployment.ErrManifestUnsupported
	}
	return o.stageError(deployment.StageManifest, o.cfg.Timeouts.Command, kind,
		fmt.Sprintf("Could not generate dependencies for %s: %v", tag, err), err)
}

func (o *Orchestrator) push(ctx context.Context, logger *slog.Logger, imageRef string, auth docker.RegistryAuth) (string, error) {
	var pushed docker.PushResult
	err := withTimeout(ctx, o.cfg.Timeouts.Build, func(ctx context.Context) error {
		var err error
		pushed, err = o.deps.Images.PushImage(ctx, imageRef, auth)
		return err
	})
	if err != nil {
		return "", err
	}

	digest := pushed.Digest
	if digest == "" && o.deps.DigestResolver != nil {
		err := withTimeout(ctx, o.cfg.Timeouts.Login, func(ctx context.Context) error {
			var err error
			digest, err = o.deps.DigestResolver(ctx, imageRef, auth)
			return err
		})
		if err != nil {
			logger.Warn("image digest lookup failed", "image", imageRef, "error", err)
		}
	}
	logger.Info("image pushed", "image", imageRef, "digest", digest)
	return digest, nil
}

// stageError classifies err: deadline overruns become timeouts, everything
// else gets kind and message.
func (o *Orchestrator) stageError(stage deployment.Stage, timeout time.Duration, kind error, message string, err error) *deployment.StageError {
	if isTimeout(err) {
		return deployment.NewStageError(stage, deployment.ErrTimeout,
			fmt.Sprintf("%s timed out after %s", stage, timeout), err)
	}
	return deployment.NewStageError(stage, kind, message, err)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, command.ErrTimeout)
}

// withTimeout runs fn under a child context bounded by timeout. A deadline
// hit is reported even when fn swallowed the context error.
func withTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(stageCtx)
	if err != nil && !isTimeout(err) && errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

// =============================================================================
// Reporting
// =============================================================================

func (o *Orchestrator) recordStarted(ctx context.Context, logger *slog.Logger, r deployment.Result) {
	if o.deps.Recorder == nil {
		return
	}
	if err := o.deps.Recorder.RecordStarted(ctx, r); err != nil {
		logger.Warn("failed to record deployment start", "error", err)
	}
}

func (o *Orchestrator) recordFinished(ctx context.Context, logger *slog.Logger, r deployment.Result) {
	if o.deps.Recorder == nil {
		return
	}
	// The request context may already be cancelled; history is still written.
	if err := o.deps.Recorder.RecordFinished(context.WithoutCancel(ctx), r); err != nil {
		logger.Warn("failed to record deployment result", "error", err)
	}
}

func (o *Orchestrator) logResult(logger *slog.Logger, r deployment.Result) {
	attrs := []any{
		"status", r.Status,
		"stage", r.Stage,
		"duration", r.FinishedAt.Sub(r.StartedAt),
	}
	switch r.Status {
	case deployment.StatusSuccess:
		logger.Info("deployment complete", append(attrs, "image", r.ImageRef, "repository", r.RepositoryURL)...)
	case deployment.StatusPartialSuccess:
		logger.Warn("deployment complete with warnings", append(attrs, "image", r.ImageRef, "error", r.Error)...)
	default:
		logger.Error("deployment failed", append(attrs, "kind", r.Kind, "error", r.Error)...)
	}
}
