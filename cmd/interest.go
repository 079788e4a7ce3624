package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bellezapp/discovery-cli/internal/outreach"
)

var (
	interestSalonID string
	interestUserID  string
)

var interestCmd = &cobra.Command{
	Use:   "interest",
	Short: "Record an interest signal for a salon",
	Long:  "Records that a user wants a discovered salon on the platform and, when an interest threshold is hit, sends the invitation message.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if interestSalonID == "" {
			return eris.New("--salon-id is required")
		}
		if interestUserID == "" {
			return eris.New("--user-id is required")
		}

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

		result, err := outreach.HandleInterest(ctx, store, dispatcher, templates, interestSalonID, interestUserID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	interestCmd.Flags().StringVar(&interestSalonID, "salon-id", "", "discovered salon id")
	interestCmd.Flags().StringVar(&interestUserID, "user-id", "", "authenticated user id")
	rootCmd.AddCommand(interestCmd)
}
