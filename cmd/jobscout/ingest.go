package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/ingest"
	"github.com/jonathan/jobscout/internal/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, deduplicate and persist job postings",
	Long:  "Fetch postings matching the given criteria from every enabled source, remove duplicates by content fingerprint, and persist the remainder. Prints a run report.",
	RunE:  runIngest,
}

var (
	ingestKeywords   []string
	ingestLocation   string
	ingestMaxResults int
	ingestSources    []string
)

func init() {
	ingestCmd.Flags().StringSliceVarP(&ingestKeywords, "keyword", "k", nil, "Search keyword (repeatable)")
	ingestCmd.Flags().StringVarP(&ingestLocation, "location", "l", "", "Location filter")
	ingestCmd.Flags().IntVarP(&ingestMaxResults, "max-results", "n", 0, "Maximum postings per source (0 = source default)")
	ingestCmd.Flags().StringSliceVarP(&ingestSources, "source", "s", nil, "Restrict the run to the named sources (repeatable)")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	orch := ingest.New(a.registry, a.gate, a.store, a.log,
		ingest.WithMetrics(a.metrics),
		ingest.WithMaxConcurrent(a.cfg.MaxConcurrentFetches),
		ingest.WithAdapterTimeout(time.Duration(a.cfg.AdapterTimeoutSeconds)*time.Second))

	criteria := types.Criteria{
		Keywords:   ingestKeywords,
		Location:   ingestLocation,
		MaxResults: ingestMaxResults,
	}

	report := orch.IngestForCriteria(ctx, criteria, ingestSources)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
