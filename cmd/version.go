package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	goVersion "go.hein.dev/go-version"
)

var (
	// shortened controls whether to output just the version number or full build info
	shortened = false
	// version is the application version, set at build time via -ldflags
	version = "dev"
	// commit is the git commit hash, set at build time via -ldflags
	commit = "none"
	// date is the build date, set at build time via -ldflags
	date = "unknown"
	// output specifies the output format (json or yaml)
	output = "json"
	// versionCmd represents the version command
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Display version and build information",
		Long: `Display the version, git commit hash, and build date of the harness.

Examples:
  # Display the version number
  rmlconformance version

  # Display full build information as YAML
  rmlconformance version --short=false --output yaml

Build information is injected with -ldflags:

  go build -ldflags "-X evalgo.org/rmlconformance/cmd.version=v0.1.0 \
    -X evalgo.org/rmlconformance/cmd.commit=$(git rev-parse HEAD) \
    -X evalgo.org/rmlconformance/cmd.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), goVersion.FuncWithOutput(shortened, version, commit, date, output))
		},
	}
)

func init() {
	versionCmd.Flags().BoolVarP(&shortened, "short", "s", true, "Print just the version number.")
	versionCmd.Flags().StringVarP(&output, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")
	rootCmd.AddCommand(versionCmd)
}
