package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bellezapp/discovery-cli/internal/discovery"
)

var (
	rankLat        float64
	rankLng        float64
	rankRadiusKM   float64
	rankMaxResults int
	rankQuery      string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank discovered salons around a point",
	Long:  "Queries salons within a radius and prints them ordered by composite quality score, best first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		radius := rankRadiusKM
		if radius <= 0 {
			radius = cfg.Ranking.DefaultRadiusKM
		}
		maxResults := rankMaxResults
		if maxResults <= 0 {
			maxResults = cfg.Ranking.DefaultMaxResults
		}

		ranked, err := discovery.Rank(ctx, store, discovery.RankParams{
			Latitude:   rankLat,
			Longitude:  rankLng,
			RadiusKM:   radius,
			MaxResults: maxResults,
			Query:      rankQuery,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	},
}

func init() {
	rankCmd.Flags().Float64Var(&rankLat, "lat", 0, "query latitude (required)")
	rankCmd.Flags().Float64Var(&rankLng, "lng", 0, "query longitude (required)")
	rankCmd.Flags().Float64Var(&rankRadiusKM, "radius-km", 0, "search radius in km (default from config)")
	rankCmd.Flags().IntVar(&rankMaxResults, "max-results", 0, "maximum results (default from config)")
	rankCmd.Flags().StringVar(&rankQuery, "query", "", "free-text service query, e.g. \"uñas\"")
	_ = rankCmd.MarkFlagRequired("lat")
	_ = rankCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(rankCmd)
}
