package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const (
	// DefaultTimeout bounds a command when neither the Cmd nor the runner sets one.
	DefaultTimeout = 5 * time.Minute

	// terminationGracePeriod is how long a timed-out process gets between
	// SIGTERM and SIGKILL.
	terminationGracePeriod = 5 * time.Second

	// maxStderrBytes caps stderr carried in errors.
	maxStderrBytes = 4096
)

// =============================================================================
// Types
// =============================================================================

// Cmd describes one external invocation. Secrets go through Stdin, never Args.
type Cmd struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // Appended to the parent environment when non-empty
	Stdin   io.Reader
	Timeout time.Duration // 0 uses the runner default
}

// String renders the command line for logs. Stdin is never included.
func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output holds a finished invocation's captured streams.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Output, error)
}

// =============================================================================
// ExecRunner
// =============================================================================

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	timeout time.Duration
	logger  *slog.Logger
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates a runner. A zero timeout uses DefaultTimeout.
func NewExecRunner(timeout time.Duration, logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{timeout: timeout, logger: logger}
}

// Run starts the command and waits for it to finish or time out. On timeout
// the process receives SIGTERM, then SIGKILL after a grace period.
func (r *ExecRunner) Run(ctx context.Context, c Cmd) (Output, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path, err := exec.LookPath(c.Name)
	if err != nil {
		return Output{ExitCode: -1}, &CommandError{Name: c.Name, ExitCode: -1, Err: fmt.Errorf("%w: %v", ErrNotFound, err)}
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = terminationGracePeriod

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command", "command", c.String(), "dir", c.Dir, "timeout", timeout)

	start := time.Now()
	runErr := cmd.Run()
	out := Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("command timed out", "command", c.Name, "timeout", timeout)
		return out, &CommandError{
			Name:     c.Name,
			ExitCode: -1,
			Stderr:   truncate(stderr.String()),
			Err:      fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, context.DeadlineExceeded),
		}
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			r.logger.Debug("command exited with non-zero status", "command", c.Name, "exit_code", exitErr.ExitCode())
			return out, &CommandError{
				Name:     c.Name,
				ExitCode: exitErr.ExitCode(),
				Stderr:   truncate(stderr.String()),
				Err:      fmt.Errorf("%w %d", ErrExitStatus, exitErr.ExitCode()),
			}
		}
		return out, &CommandError{Name: c.Name, ExitCode: -1, Err: runErr}
	}

	return out, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrBytes {
		return s[len(s)-maxStderrBytes:]
	}
	return s
}
