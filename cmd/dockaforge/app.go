package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/command"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/docker"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/github"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/manifest"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/pipeline"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/store"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/workspace"
)

// =============================================================================
// Application
// =============================================================================

// App bundles the long-lived resources shared by the deploy and serve commands.
type App struct {
	Store        *store.SQLiteStore
	Images       docker.Client
	Orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

// NewApp opens the history store and image client and wires the pipeline.
func NewApp(cfg *Config, logger *slog.Logger) (*App, error) {
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &CommandError{
			Op:       "NewApp",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	runner := command.NewExecRunner(cfg.Timeouts.Command, logger)

	images, err := newImageClient(cfg, runner, logger)
	if err != nil {
		s.Close()
		return nil, &CommandError{
			Op:       "NewApp",
			Err:      err,
			ExitCode: ExitDockerError,
		}
	}

	orch, err := newOrchestrator(cfg, runner, images, s, logger)
	if err != nil {
		s.Close()
		images.Close()
		return nil, &CommandError{
			Op:       "NewApp",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	return &App{
		Store:        s,
		Images:       images,
		Orchestrator: orch,
		logger:       logger,
	}, nil
}

// Close releases the image client and the history store.
func (a *App) Close() {
	if err := a.Images.Close(); err != nil {
		a.logger.Error("image client close error", "error", err)
	}
	if err := a.Store.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}
}

// =============================================================================
// Wiring
// =============================================================================

func newImageClient(cfg *Config, runner command.Runner, logger *slog.Logger) (docker.Client, error) {
	switch cfg.Docker.Mode {
	case "cli":
		return docker.NewCLIClient(runner, cfg.Docker.Binary, logger), nil
	default:
		return docker.NewDockerClient(cfg.Docker.Host, logger)
	}
}

func newOrchestrator(cfg *Config, runner command.Runner, images docker.Client, rec pipeline.Recorder, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	manager, err := workspace.NewManager(cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}

	policy, err := workspace.ParseCollisionPolicy(cfg.Workspace.CollisionPolicy)
	if err != nil {
		return nil, err
	}

	publisher, err := github.NewPublisher(github.Config{
		APIURL: cfg.GitHub.APIURL,
		GitURL: cfg.GitHub.GitURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("github publisher: %w", err)
	}

	synth := manifest.NewSynthesizer(runner, manifest.Config{
		Tools: manifest.Tools{
			Pip:     cfg.Manifest.Pip,
			Pipreqs: cfg.Manifest.Pipreqs,
			Go:      cfg.Manifest.Go,
		},
		InstallPipreqs: cfg.Manifest.InstallPipreqs,
		Timeout:        cfg.Timeouts.Command,
	}, logger)

	deps := pipeline.Dependencies{
		Extractor:   workspace.NewExtractor(manager, logger),
		Classify:    workspace.Classify,
		Synthesizer: synth,
		Flattener:   workspace.NewFlattener(policy, logger),
		Descriptors: docker.NewDescriptorWriter(cfg.Templates.Dir, logger),
		Images:      images,
		DigestResolver: func(ctx context.Context, ref string, auth docker.RegistryAuth) (string, error) {
			return docker.ResolveDigest(ctx, ref, auth)
		},
		Publisher: publisher,
		Recorder:  rec,
	}

	return pipeline.NewOrchestrator(deps, pipeline.Config{
		Timeouts: pipeline.Timeouts{
			Command: cfg.Timeouts.Command,
			Build:   cfg.Timeouts.Build,
			Login:   cfg.Timeouts.Login,
			Publish: cfg.Timeouts.Publish,
		},
		PushImage:      cfg.Registry.Push,
		RegistryServer: cfg.Registry.Server,
		PrivateRepos:   cfg.GitHub.Private,
	}, logger), nil
}
