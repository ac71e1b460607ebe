package cmd

import (
	"fmt"
	"os"

	"argus/bootstrap"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Normalize and evaluate one log file as a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp()
			if err != nil {
				return err
			}
			defer app.Shutdown()

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			result, err := app.Pipeline.ProcessBatch(cmd.Context(), string(content), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"ingested %d events, generated %d alerts (%d correlated)\n",
				result.EventsAccepted, result.AlertsGenerated, result.CorrelatedAlerts)
			return nil
		},
	}
}
