package cmd

import (
	"fmt"
	"time"

	"argus/bootstrap"
	"argus/core"
	"argus/storage"

	"github.com/spf13/cobra"
)

func newAlertsCmd() *cobra.Command {
	var (
		limit   int
		since   time.Duration
		resolve string
		block   string
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List recent alerts or apply triage actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp()
			if err != nil {
				return err
			}
			defer app.Shutdown()

			ctx := cmd.Context()

			if resolve != "" {
				if err := app.Alerts.UpdateAlertStatus(ctx, resolve, core.AlertStatusResolved); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "alert %s resolved\n", resolve)
			}

			if block != "" {
				alert, err := app.Alerts.GetAlert(ctx, block)
				if err != nil {
					return err
				}
				reason := fmt.Sprintf("%s alert", alert.Type)
				if err := app.Blocks.BlockIP(ctx, alert.SourceIP, reason, alert.AlertID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "blocked %s (alert %s)\n", alert.SourceIP, alert.AlertID)
			}

			filter := storage.AlertFilter{Limit: limit}
			if since > 0 {
				filter.Since = time.Now().UTC().Add(-since)
			}
			alerts, err := app.Alerts.RecentAlerts(ctx, filter)
			if err != nil {
				return err
			}

			for _, alert := range alerts {
				blocked, err := app.Blocks.IsBlocked(ctx, alert.SourceIP)
				if err != nil {
					return err
				}
				marker := ""
				if blocked {
					marker = " [blocked]"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s %-18s %-15s %s%s\n",
					alert.Timestamp.Format(time.RFC3339),
					alert.Severity, alert.Type, alert.SourceIP, alert.Status, marker)
			}
			if len(alerts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no alerts")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of alerts to list")
	cmd.Flags().DurationVar(&since, "since", 0, "only list alerts newer than this, e.g. 30m")
	cmd.Flags().StringVar(&resolve, "resolve", "", "mark an alert ID as Resolved")
	cmd.Flags().StringVar(&block, "block", "", "block the source IP of an alert ID")
	return cmd
}
