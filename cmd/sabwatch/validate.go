// cmd/sabwatch/validate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/sabwatch/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration, then exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config OK\n")
		fmt.Fprintf(out, "  service:   %s (timeout %s)\n", cfg.Service.URL, cfg.Service.Timeout)
		fmt.Fprintf(out, "  poll:      every %s, stall after %d polls, paused after %d polls\n",
			cfg.Poll.Interval, cfg.StallSamples(), cfg.PausedSamples())
		fmt.Fprintf(out, "  recovery:  %s, cooldown %s, max backoff %s, escalate after %d\n",
			cfg.Recovery.Method, cfg.Recovery.Cooldown, cfg.Recovery.MaxBackoff, cfg.Recovery.EscalateAfter)
		fmt.Fprintf(out, "  resume paused: %t\n", cfg.ResumePausedEnabled())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
