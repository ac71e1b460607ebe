package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"argus/bootstrap"
	"argus/monitor"

	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor <file>",
		Short: "Follow a log file and evaluate new lines continuously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp()
			if err != nil {
				return err
			}
			defer app.Shutdown()

			if pollInterval <= 0 {
				pollInterval = app.Config.Monitor.PollInterval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := monitor.New(args[0], pollInterval, app.Pipeline, app.Sugar)
			if err := m.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0,
		"how often buffered lines are flushed as a batch (default from config)")
	return cmd
}
