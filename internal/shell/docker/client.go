package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
)

// maxLogTail caps how much builder output is kept for error messages.
const maxLogTail = 2048

// =============================================================================
// Docker Client Implementation
// =============================================================================

// DockerClient implements the Client interface using the Docker SDK.
// Credentials travel in API request bodies, never on a command line.
type DockerClient struct {
	cli    *client.Client
	logger *slog.Logger
}

var _ Client = (*DockerClient)(nil)

// NewDockerClient creates a new Docker client.
// If host is empty, it uses the default Docker host from environment.
// On macOS with Docker Desktop, it automatically detects the correct socket.
func NewDockerClient(host string, logger *slog.Logger) (*DockerClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts []client.Opt
	opts = append(opts, client.FromEnv)
	opts = append(opts, client.WithAPIVersionNegotiation())

	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, withCause(NewDockerError("NewDockerClient", "", "", "failed to create client", ErrConnectionFailed), err)
	}

	// Try to ping with default settings
	ctx := context.Background()
	if _, pingErr := cli.Ping(ctx); pingErr != nil && host == "" {
		// If default socket fails, try Docker Desktop socket on macOS
		homeDir, _ := os.UserHomeDir()
		dockerDesktopSocket := "unix://" + homeDir + "/.docker/run/docker.sock"

		cli2, err2 := client.NewClientWithOpts(
			client.WithHost(dockerDesktopSocket),
			client.WithAPIVersionNegotiation(),
		)
		if err2 == nil {
			if _, pingErr2 := cli2.Ping(ctx); pingErr2 == nil {
				cli.Close()
				return &DockerClient{cli: cli2, logger: logger}, nil
			}
			cli2.Close()
		}
	}

	return &DockerClient{cli: cli, logger: logger}, nil
}

// Ping checks if Docker daemon is reachable.
func (d *DockerClient) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return withCause(NewDockerError("Ping", "", "", fmt.Sprintf("failed to ping docker: %v", err), ErrConnectionFailed), err)
	}
	return nil
}

// Close closes the Docker client connection.
func (d *DockerClient) Close() error {
	return d.cli.Close()
}

// =============================================================================
// Registry Operations
// =============================================================================

// Login validates the credentials against the registry.
func (d *DockerClient) Login(ctx context.Context, auth RegistryAuth) error {
	_, err := d.cli.RegistryLogin(ctx, toAuthConfig(auth))
	if err != nil {
		return withCause(NewDockerError("Login", "registry", auth.ServerAddress, err.Error(), ErrAuthFailed), err)
	}
	d.logger.Debug("registry login succeeded", "username", auth.Username, "server", auth.ServerAddress)
	return nil
}

// PushImage pushes tag to its registry using auth.
func (d *DockerClient) PushImage(ctx context.Context, tag string, auth RegistryAuth) (PushResult, error) {
	encoded, err := registry.EncodeAuthConfig(toAuthConfig(auth))
	if err != nil {
		return PushResult{}, withCause(NewDockerError("PushImage", "image", tag, "failed to encode credentials", ErrPushFailed), err)
	}

	reader, err := d.cli.ImagePush(ctx, tag, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return PushResult{}, withCause(NewDockerError("PushImage", "image", tag, err.Error(), ErrPushFailed), err)
	}
	defer reader.Close()

	result := PushResult{Tag: tag}
	var out bytes.Buffer
	err = jsonmessage.DisplayJSONMessagesStream(reader, &out, 0, false, func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var aux struct {
			Digest string `json:"Digest"`
		}
		if json.Unmarshal(*msg.Aux, &aux) == nil && aux.Digest != "" {
			result.Digest = aux.Digest
		}
	})
	if err != nil {
		return PushResult{}, withCause(NewDockerError("PushImage", "image", tag, err.Error(), ErrPushFailed), err)
	}

	return result, nil
}

func toAuthConfig(auth RegistryAuth) registry.AuthConfig {
	return registry.AuthConfig{
		Username:      auth.Username,
		Password:      auth.Password,
		ServerAddress: auth.ServerAddress,
	}
}

// =============================================================================
// Image Operations
// =============================================================================

// BuildImage sends the context directory to the daemon and builds it.
func (d *DockerClient) BuildImage(ctx context.Context, spec BuildSpec) (BuildResult, error) {
	start := time.Now()
	dockerfile := spec.Dockerfile
	if dockerfile == "" {
		dockerfile = DescriptorName
	}

	buildContext, err := archive.TarWithOptions(spec.ContextDir, &archive.TarOptions{})
	if err != nil {
		return BuildResult{}, withCause(NewDockerError("BuildImage", "image", spec.Tag, "failed to archive build context", ErrBuildFailed), err)
	}
	defer buildContext.Close()

	resp, err := d.cli.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:        []string{spec.Tag},
		Dockerfile:  dockerfile,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return BuildResult{}, withCause(NewDockerError("BuildImage", "image", spec.Tag, err.Error(), ErrBuildFailed), err)
	}
	defer resp.Body.Close()

	result := BuildResult{Tag: spec.Tag}
	var out bytes.Buffer
	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, &out, 0, false, func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var aux struct {
			ID string `json:"ID"`
		}
		if json.Unmarshal(*msg.Aux, &aux) == nil && aux.ID != "" {
			result.ImageID = aux.ID
		}
	})
	if err != nil {
		d.logger.Debug("build output", "tag", spec.Tag, "tail", tail(out.String()))
		return BuildResult{}, withCause(NewDockerError("BuildImage", "image", spec.Tag, err.Error(), ErrBuildFailed), err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLogTail {
		return s[len(s)-maxLogTail:]
	}
	return s
}
