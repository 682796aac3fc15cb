package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/reco"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record whether a recommendation was helpful",
	RunE:  runFeedback,
}

var (
	feedbackUser    string
	feedbackPosting string
	feedbackHelpful bool
)

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackUser, "user", "u", "", "User ID (required)")
	feedbackCmd.Flags().StringVarP(&feedbackPosting, "posting", "p", "", "Posting ID (required)")
	feedbackCmd.Flags().BoolVar(&feedbackHelpful, "helpful", true, "Whether the recommendation was helpful")

	feedbackCmd.MarkFlagRequired("user")
	feedbackCmd.MarkFlagRequired("posting")

	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := uuid.Parse(feedbackUser)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", feedbackUser, err)
	}
	postingID, err := uuid.Parse(feedbackPosting)
	if err != nil {
		return fmt.Errorf("invalid posting id %q: %w", feedbackPosting, err)
	}

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	svc := reco.NewService(a.store, nil, nil, a.log)
	if err := svc.RecordFeedback(ctx, userID, postingID, feedbackHelpful); err != nil {
		return err
	}

	fmt.Println("Feedback recorded")
	return nil
}
