// Package cmd defines the Argus command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "argus",
		Short: "Argus log detection core",
		Long: `Argus normalizes authentication and system logs into structured
security events, evaluates them against a fixed catalog of detection
rules, correlates co-occurring attack signals, and scores per-source
risk.`,
		SilenceUsage: true,
	}

	root.AddCommand(newIngestCmd())
	root.AddCommand(newMonitorCmd())
	root.AddCommand(newAlertsCmd())
	root.AddCommand(newThresholdsCmd())
	return root
}
