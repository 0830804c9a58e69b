package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"evalgo.org/rmlconformance/internal/report"
)

var (
	// historyDays is the number of days summarized, today included
	historyDays int
	// historyJSON prints the raw statistics
	historyJSON bool
	// historyTop limits the failing cases listed
	historyTop int

	// historyCmd represents the history command
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Summarize previous suite runs",
		Long: `Summarize the runs recorded in the data directory: run and case counts,
pass rate, the most frequently failing cases and the error kinds seen.

Examples:
  # Summarize the last week
  rmlconformance history

  # Print the last 30 days as JSON
  rmlconformance history --days 30 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := report.NewStore(cfg.Suite.DataDir, cfg.Suite.RetentionDays, log)
			if err != nil {
				return err
			}

			end := time.Now()
			start := end.AddDate(0, 0, 1-historyDays)
			stats, err := store.GetStatistics(start, end)
			if err != nil {
				return err
			}

			if historyJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			printStatistics(cmd.OutOrStdout(), stats, historyTop)
			return nil
		},
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 7, "number of days to summarize")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print the statistics as JSON")
	historyCmd.Flags().IntVar(&historyTop, "top", 10, "number of failing cases to list")
	rootCmd.AddCommand(historyCmd)
}

func printStatistics(w io.Writer, stats *report.Statistics, top int) {
	_, _ = fmt.Fprintf(w, "runs:  %d (%d passed, %d failed, %d aborted)\n",
		stats.TotalRuns, stats.PassedRuns, stats.FailedRuns, stats.AbortedRuns)
	_, _ = fmt.Fprintf(w, "cases: %d (%d passed, %d failed, %d ignored), pass rate %.1f%%\n",
		stats.TotalCases, stats.PassedCases, stats.FailedCases, stats.IgnoredCases, stats.PassRate)

	failing := rank(stats.FailingCases)
	if len(failing) > top {
		failing = failing[:top]
	}
	if len(failing) > 0 {
		_, _ = fmt.Fprintln(w, "most failing:")
		for _, id := range failing {
			_, _ = fmt.Fprintf(w, "  %-28s %d\n", id, stats.FailingCases[id])
		}
	}

	if len(stats.ErrorTypes) > 0 {
		_, _ = fmt.Fprintln(w, "errors:")
		for _, kind := range rank(stats.ErrorTypes) {
			_, _ = fmt.Fprintf(w, "  %-28s %d\n", kind, stats.ErrorTypes[kind])
		}
	}
}

// rank orders keys by descending count, then by name.
func rank(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
