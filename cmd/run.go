package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/rmlconformance/internal/suite"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [test-case-id...]",
	Short: "Run the conformance suite",
	Long: `Run the selected test cases against the configured mapping engine.

Test cases are selected from the catalog by format (--formats) and optionally
by identifier (--only or positional arguments). SPARQL cases need a Fuseki
server, SQL cases a MySQL, PostgreSQL or SQL Server instance.

The command exits with a non-zero status when any test case fails.

Examples:
  # Run the CSV cases
  rmlconformance run

  # Run the SPARQL and MySQL cases with a custom engine
  rmlconformance run --formats SPARQL,MySQL --engine rmlmapper

  # Run a single case
  rmlconformance run RMLTC0002a-MySQL --formats MySQL`,
	RunE: runSuite,
}

func init() {
	flags := runCmd.Flags()
	flags.Bool("strict", false, "run the engine in strict mode")
	flags.Bool("iriify", false, "let the engine normalise generated IRIs")
	flags.Bool("require-reference-coverage", false, "fail when a reference graph was not produced")
	flags.Bool("drop-after", false, "drop SQL test databases after each case")
	flags.String("engine", "", "mapping engine command (default from engine.command)")

	_ = viper.BindPFlag("suite.strict", flags.Lookup("strict"))
	_ = viper.BindPFlag("suite.iriify", flags.Lookup("iriify"))
	_ = viper.BindPFlag("suite.require-reference-coverage", flags.Lookup("require-reference-coverage"))
	_ = viper.BindPFlag("sql.drop-after", flags.Lookup("drop-after"))

	rootCmd.AddCommand(runCmd)
}

func runSuite(cmd *cobra.Command, args []string) error {
	if engineCmd, _ := cmd.Flags().GetString("engine"); engineCmd != "" {
		viper.Set("engine.command", engineCmd)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	cases, err := selectCases(cfg, args, log)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		log.Warn("no test cases selected")
		return nil
	}

	orch, err := newOrchestrator(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := orch.Run(ctx, cases)
	if orch.Store != nil {
		if err := orch.Store.RotateOldLogs(); err != nil {
			log.WithError(err).Warn("failed to rotate run history")
		}
	}
	if res != nil {
		printSummary(cmd.OutOrStdout(), res)
	}
	if runErr != nil {
		return runErr
	}
	if !res.OK() {
		return fmt.Errorf("%d of %d test cases failed", res.Failed, len(res.Cases))
	}
	return nil
}

func printSummary(w io.Writer, res *suite.Result) {
	for _, c := range res.Failures() {
		reason := c.Outcome.Reason
		if c.Err != nil {
			reason = c.Err.Error()
		} else if c.Outcome.Graph != "" {
			reason = fmt.Sprintf("%s in graph %s", reason, c.Outcome.Graph)
		}
		_, _ = fmt.Fprintf(w, "FAIL %s: %s\n", c.TestCase.ID, reason)
	}
	_, _ = fmt.Fprintf(w, "run %s: %d passed, %d failed, %d ignored in %s\n",
		res.RunID, res.Passed, res.Failed, res.Ignored, res.Duration.Round(time.Millisecond))
}
