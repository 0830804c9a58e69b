package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/rmlconformance/internal/benchmark"
	"evalgo.org/rmlconformance/internal/client"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the RML test-case corpus",
	Long: `Download the corpus archive, extract it below <dir>/testsuite and copy the
local fixes over it.

The fix directory (default <dir>/fix) may hold a replacement metadata.nt and
one directory per test case whose files replace the upstream ones.

Examples:
  # Download into the current directory
  rmlconformance fetch

  # Download a fork of the corpus
  rmlconformance fetch --url https://example.org/rml-test-cases.zip --dir /srv/rml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		clients := client.NewManager(0, cfg.Debug, log)
		b := benchmark.New(cfg.Benchmark.URL, cfg.Benchmark.Dir, cfg.Benchmark.FixDir,
			clients.GetClient(cfg.Benchmark.URL), log)
		if err := b.Create(cmd.Context()); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "catalog: %s\ntests:   %s\n", b.CatalogPath(), b.TestsDir())
		return nil
	},
}

func init() {
	flags := fetchCmd.Flags()
	flags.String("url", "", "corpus archive URL (default from benchmark.url)")
	flags.String("dir", "", "directory to extract the corpus into (default from benchmark.dir)")
	flags.String("fix-dir", "", "directory of local fixes (default <dir>/fix)")

	_ = viper.BindPFlag("benchmark.url", flags.Lookup("url"))
	_ = viper.BindPFlag("benchmark.dir", flags.Lookup("dir"))
	_ = viper.BindPFlag("benchmark.fix-dir", flags.Lookup("fix-dir"))

	rootCmd.AddCommand(fetchCmd)
}
