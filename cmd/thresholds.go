package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"argus/bootstrap"
	"argus/config"

	"github.com/spf13/cobra"
)

func newThresholdsCmd() *cobra.Command {
	var sets []string
	var liveMonitoring string

	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Show or update detection thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp()
			if err != nil {
				return err
			}
			defer app.Shutdown()

			ctx := cmd.Context()
			defaults := config.DefaultThresholds()

			for _, pair := range sets {
				key, raw, found := strings.Cut(pair, "=")
				if !found {
					return fmt.Errorf("invalid --set %q, expected key=value", pair)
				}
				if _, known := defaults[key]; !known {
					return fmt.Errorf("unknown threshold key %q", key)
				}
				value, err := strconv.Atoi(raw)
				if err != nil || value <= 0 {
					return fmt.Errorf("invalid value for %s: %q", key, raw)
				}
				if err := app.Configs.SetThreshold(ctx, key, value); err != nil {
					return err
				}
			}

			if liveMonitoring != "" {
				enabled, err := strconv.ParseBool(liveMonitoring)
				if err != nil {
					return fmt.Errorf("invalid --live-monitoring value %q", liveMonitoring)
				}
				if err := app.Configs.SetLiveMonitoring(ctx, enabled); err != nil {
					return err
				}
			}

			overrides, err := app.Configs.GetThresholds(ctx)
			if err != nil {
				return err
			}
			merged := config.MergeThresholds(overrides)

			keys := make([]string, 0, len(merged))
			for key := range merged {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %d\n", key, merged[key])
			}

			live, err := app.Configs.LiveMonitoringEnabled(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "live_monitoring = %t\n", live)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "set a threshold, e.g. --set brute_force_count=12")
	cmd.Flags().StringVar(&liveMonitoring, "live-monitoring", "", "enable or disable detection on ingest (true/false)")
	return cmd
}
