package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bellezapp/discovery-cli/internal/outreach"
)

var sweepLimit int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the scheduled follow-up sweep",
	Long:  "Re-evaluates follow-up candidates and sends the time-based outreach variant to each eligible salon. Per-candidate failures never fail the sweep.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		templates, err := loadTemplates()
		if err != nil {
			return err
		}
		dispatcher := buildDispatcher(store)

		limit := sweepLimit
		if limit <= 0 {
			limit = cfg.Outreach.SweepLimit
		}

		summary, err := outreach.RunSweep(ctx, store, dispatcher, templates, outreach.SweepConfig{
			Limit:       limit,
			Concurrency: cfg.Outreach.SweepConcurrency,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	sweepCmd.Flags().IntVar(&sweepLimit, "limit", 0, "max candidates per sweep (default from config)")
	rootCmd.AddCommand(sweepCmd)
}
