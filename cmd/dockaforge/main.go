// Command dockaforge containerizes uploaded project archives and publishes
// the image and the source.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitDockerError     = 3
	ExitHTTPServerError = 4
	ExitDeployFailed    = 5
	ExitPartialSuccess  = 6
	ExitUsageError      = 64
)

// =============================================================================
// Root Command
// =============================================================================

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	output     string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			if cmdErr.Err != nil {
				fmt.Fprintf(stderr, "error: %v\n", cmdErr)
			}
			return cmdErr.ExitCode
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsageError
	}
	return ExitSuccess
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "dockaforge",
		Short:         "Containerize a project archive and publish image and source",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseFormat(opts.output); err != nil {
				return err
			}
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")

	root.AddCommand(
		newDeployCmd(opts),
		newServeCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dockaforge %s (built %s)\n", Version, BuildTime)
		},
	}
}

// loadConfig loads configuration and builds the logger for a subcommand.
func loadConfig(opts *globalOptions) (*Config, error) {
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return nil, &CommandError{
			Op:       "LoadConfig",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}
	return cfg, nil
}

// =============================================================================
// Command Error
// =============================================================================

// CommandError carries the process exit code for a failed command.
type CommandError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *CommandError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
