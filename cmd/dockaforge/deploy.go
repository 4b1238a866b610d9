package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/pipeline"
)

// Environment variables consulted for secrets when --secrets-stdin is not set.
const (
	EnvRegistryPassword = "DOCKAFORGE_REGISTRY_PASSWORD"
	EnvGitHubToken      = "DOCKAFORGE_GITHUB_TOKEN"
)

// deployOptions holds the non-secret deploy flags. Secrets never come from argv.
type deployOptions struct {
	registryUsername string
	githubUsername   string
	secretsStdin     bool
}

func newDeployCmd(global *globalOptions) *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy ARCHIVE",
		Short: "Containerize a zip archive, push the image and publish the source",
		Long: `Deploy extracts ARCHIVE into a fresh workspace, detects its language,
ensures a dependency manifest and build descriptor, builds and pushes the image
and publishes the workspace as a new repository.

Secrets are read from stdin with --secrets-stdin (registry password on the
first line, hosting token on the second) or from ` + EnvRegistryPassword + ` and
` + EnvGitHubToken + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.registryUsername, "registry-username", "", "Registry account name")
	cmd.Flags().StringVar(&opts.githubUsername, "github-username", "", "Repository hosting account name")
	cmd.Flags().BoolVar(&opts.secretsStdin, "secrets-stdin", false, "Read the registry password and hosting token from stdin")
	_ = cmd.MarkFlagRequired("registry-username")
	_ = cmd.MarkFlagRequired("github-username")

	return cmd
}

func runDeploy(cmd *cobra.Command, global *globalOptions, opts *deployOptions, archive string) error {
	format, err := parseFormat(global.output)
	if err != nil {
		return err
	}

	if _, err := os.Stat(archive); err != nil {
		return &CommandError{Op: "deploy", Err: err, ExitCode: ExitUsageError}
	}

	req, err := buildRequest(opts, archive, cmd.InOrStdin(), os.Getenv)
	if err != nil {
		return &CommandError{Op: "deploy", Err: err, ExitCode: ExitUsageError}
	}

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg)

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := app.Orchestrator.Deploy(ctx, req)
	if err := writeResult(cmd.OutOrStdout(), format, result); err != nil {
		return &CommandError{Op: "deploy", Err: err, ExitCode: ExitConfigError}
	}
	return exitForResult(result)
}

// exitForResult maps a terminal status to a process exit code. The report is
// already on stdout, so the error carries no message.
func exitForResult(r deployment.Result) error {
	switch r.Status {
	case deployment.StatusSuccess:
		return nil
	case deployment.StatusPartialSuccess:
		return &CommandError{Op: "deploy", ExitCode: ExitPartialSuccess}
	default:
		return &CommandError{Op: "deploy", ExitCode: ExitDeployFailed}
	}
}

// buildRequest assembles a pipeline request from flags and secret sources.
func buildRequest(opts *deployOptions, archive string, stdin io.Reader, getenv func(string) string) (pipeline.Request, error) {
	req := pipeline.Request{
		ArchivePath:      archive,
		RegistryUsername: strings.TrimSpace(opts.registryUsername),
		HostingUsername:  strings.TrimSpace(opts.githubUsername),
	}
	if req.RegistryUsername == "" || req.HostingUsername == "" {
		return pipeline.Request{}, errors.New("registry and github usernames are required")
	}

	if opts.secretsStdin {
		password, token, err := readSecrets(stdin)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.RegistryPassword, req.HostingToken = password, token
	} else {
		req.RegistryPassword = getenv(EnvRegistryPassword)
		req.HostingToken = getenv(EnvGitHubToken)
	}

	if req.RegistryPassword == "" {
		return pipeline.Request{}, fmt.Errorf("registry password missing: set %s or use --secrets-stdin", EnvRegistryPassword)
	}
	if req.HostingToken == "" {
		return pipeline.Request{}, fmt.Errorf("github token missing: set %s or use --secrets-stdin", EnvGitHubToken)
	}
	return req, nil
}

// readSecrets reads the registry password and the hosting token, one per line.
func readSecrets(r io.Reader) (string, string, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for len(lines) < 2 && sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return "", "", fmt.Errorf("read secrets from stdin: %w", err)
	}
	if len(lines) < 2 {
		return "", "", errors.New("stdin must hold the registry password and the github token on separate lines")
	}
	return lines[0], lines[1], nil
}
