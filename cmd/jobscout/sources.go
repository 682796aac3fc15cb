package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and their quota state",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	statusBySource := map[string]string{}
	usedBySource := map[string]string{}
	for _, status := range a.gate.Snapshot() {
		statusBySource[status.Source] = status.State.String()
		usedBySource[status.Source] = fmt.Sprintf("%d/%d", status.Used, status.Ceiling)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tENABLED\tQUOTA\tCIRCUIT")
	for _, spec := range a.specs {
		quotaCol, circuitCol := "-", "-"
		if spec.Enabled {
			quotaCol = usedBySource[spec.Name]
			circuitCol = statusBySource[spec.Name]
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", spec.Name, spec.Kind, spec.Enabled, quotaCol, circuitCol)
	}
	return w.Flush()
}
