package main

import (
	"github.com/spf13/cobra"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/store"
)

func newHistoryCmd(global *globalOptions) *cobra.Command {
	opts := store.DefaultListOptions()
	var status string

	cmd := &cobra.Command{
		Use:   "history [ID]",
		Short: "List past deployments, or show one by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(global.output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			s, err := store.NewSQLiteStore(cfg.Database.DSN)
			if err != nil {
				return &CommandError{Op: "history", Err: err, ExitCode: ExitDatabaseError}
			}
			defer s.Close()

			if len(args) == 1 {
				result, err := s.GetDeployment(cmd.Context(), args[0])
				if err != nil {
					return &CommandError{Op: "history", Err: err, ExitCode: ExitDatabaseError}
				}
				return writeResult(cmd.OutOrStdout(), format, result)
			}

			opts.Status = deployment.Status(status)
			results, err := s.ListDeployments(cmd.Context(), opts.Normalize())
			if err != nil {
				return &CommandError{Op: "history", Err: err, ExitCode: ExitDatabaseError}
			}
			return writeResults(cmd.OutOrStdout(), format, results)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum number of deployments to list")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of deployments to skip")
	cmd.Flags().StringVar(&status, "status", "", "Only list deployments with this status")

	return cmd
}
