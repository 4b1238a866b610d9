package docker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/command"
)

// =============================================================================
// CLI Client Implementation
// =============================================================================

// CLIClient implements the Client interface by invoking the docker binary.
// The registry secret is written to the child's stdin.
type CLIClient struct {
	runner command.Runner
	binary string
	logger *slog.Logger
}

var _ Client = (*CLIClient)(nil)

// NewCLIClient creates a client that shells out to binary ("docker" if empty).
func NewCLIClient(runner command.Runner, binary string, logger *slog.Logger) *CLIClient {
	if binary == "" {
		binary = "docker"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIClient{runner: runner, binary: binary, logger: logger}
}

// Ping checks that the docker binary can reach its daemon.
func (c *CLIClient) Ping(ctx context.Context) error {
	out, err := c.runner.Run(ctx, command.Cmd{
		Name: c.binary,
		Args: []string{"version", "--format", "{{.Server.Version}}"},
	})
	if err != nil {
		return withCause(NewDockerError("Ping", "", "", cliMessage(err), ErrConnectionFailed), err)
	}
	c.logger.Debug("docker daemon reachable", "version", strings.TrimSpace(string(out.Stdout)))
	return nil
}

// Close is a no-op for the CLI client.
func (c *CLIClient) Close() error {
	return nil
}

// Login runs "docker login --password-stdin".
func (c *CLIClient) Login(ctx context.Context, auth RegistryAuth) error {
	args := []string{"login", "-u", auth.Username, "--password-stdin"}
	if auth.ServerAddress != "" {
		args = append(args, auth.ServerAddress)
	}
	_, err := c.runner.Run(ctx, command.Cmd{
		Name:  c.binary,
		Args:  args,
		Stdin: strings.NewReader(auth.Password),
	})
	if err != nil {
		return withCause(NewDockerError("Login", "registry", auth.ServerAddress, cliMessage(err), ErrAuthFailed), err)
	}
	return nil
}

// BuildImage runs "docker build -t <tag> ." from inside the context directory.
func (c *CLIClient) BuildImage(ctx context.Context, spec BuildSpec) (BuildResult, error) {
	args := []string{"build", "-t", spec.Tag}
	if spec.Dockerfile != "" && spec.Dockerfile != DescriptorName {
		args = append(args, "-f", spec.Dockerfile)
	}
	args = append(args, ".")

	out, err := c.runner.Run(ctx, command.Cmd{Name: c.binary, Args: args, Dir: spec.ContextDir})
	if err != nil {
		return BuildResult{}, withCause(NewDockerError("BuildImage", "image", spec.Tag, cliMessage(err), ErrBuildFailed), err)
	}
	return BuildResult{Tag: spec.Tag, Duration: out.Duration}, nil
}

// PushImage runs "docker push <tag>". Credentials come from the preceding Login.
func (c *CLIClient) PushImage(ctx context.Context, tag string, _ RegistryAuth) (PushResult, error) {
	out, err := c.runner.Run(ctx, command.Cmd{Name: c.binary, Args: []string{"push", tag}})
	if err != nil {
		return PushResult{}, withCause(NewDockerError("PushImage", "image", tag, cliMessage(err), ErrPushFailed), err)
	}
	return PushResult{Tag: tag, Digest: parsePushDigest(string(out.Stdout))}, nil
}

// parsePushDigest extracts the digest from the final "digest: sha256:..." line.
func parsePushDigest(output string) string {
	for _, field := range strings.Fields(output) {
		if strings.HasPrefix(field, "sha256:") {
			return strings.TrimRight(field, ",")
		}
	}
	return ""
}

func cliMessage(err error) string {
	var cmdErr *command.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		return fmt.Sprintf("exit %d: %s", cmdErr.ExitCode, strings.TrimSpace(cmdErr.Stderr))
	}
	return err.Error()
}
