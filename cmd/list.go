package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/rmlconformance/internal/domain"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [test-case-id...]",
	Short: "List the selected test cases",
	Long: `List the test cases the run command would execute with the same
catalog, format and identifier selection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		cases, err := selectCases(cfg, args, log)
		if err != nil {
			return err
		}
		return printCases(cmd.OutOrStdout(), cases)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func printCases(w io.Writer, cases []domain.TestCase) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tFORMAT\tIGNORE FAIL\tDESCRIPTION")
	for _, tc := range cases {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", tc.ID, tc.Format, tc.IgnoreFail, tc.Description)
	}
	return tw.Flush()
}
