package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bellezapp/discovery-cli/internal/model"
)

var (
	markSalonID string
	markStatus  string
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Move a salon to a new lifecycle status",
	Long:  "Applies a manual status transition, e.g. registered after onboarding or declined after an opt-out. Invalid transitions are rejected.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if markSalonID == "" {
			return eris.New("--salon-id is required")
		}
		target := model.Status(markStatus)
		if !target.Valid() {
			return eris.Errorf("unknown status %q", markStatus)
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.UpdateStatus(ctx, markSalonID, target); err != nil {
			return err
		}

		zap.L().Info("status updated",
			zap.String("salon_id", markSalonID),
			zap.String("status", markStatus),
		)
		return nil
	},
}

func init() {
	markCmd.Flags().StringVar(&markSalonID, "salon-id", "", "discovered salon id")
	markCmd.Flags().StringVar(&markStatus, "status", "", "target status (selected, outreach_sent, registered, declined, unreachable)")
	rootCmd.AddCommand(markCmd)
}
