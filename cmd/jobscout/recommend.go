package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/cache"
	"github.com/jonathan/jobscout/internal/experiment"
	"github.com/jonathan/jobscout/internal/reco"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Score persisted postings against a user profile",
	Long:  "Score every candidate posting against the given user's profile and print the best matches with a per-factor breakdown.",
	RunE:  runRecommend,
}

var (
	recommendUser   string
	recommendLimit  int
	recommendOffset int
)

func init() {
	recommendCmd.Flags().StringVarP(&recommendUser, "user", "u", "", "User ID to recommend for (required)")
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", 20, "Maximum results to return")
	recommendCmd.Flags().IntVar(&recommendOffset, "offset", 0, "Results to skip")

	recommendCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := uuid.Parse(recommendUser)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", recommendUser, err)
	}

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	c := cache.New(a.metrics)
	defer c.Close()

	svc := reco.NewService(a.store, c, experiment.NewController(a.log), a.log,
		reco.WithMetrics(a.metrics),
		reco.WithCacheTTL(time.Duration(a.cfg.CacheTTLSeconds)*time.Second))

	results, err := svc.GetRecommendations(ctx, userID, recommendLimit, recommendOffset)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
