// Package cmd provides the command-line interface of the RML conformance
// harness.
//
// This package implements a cobra-based CLI with commands for:
//   - run: Run the conformance suite against a mapping engine
//   - list: List the test cases selected by the catalog and filters
//   - fetch: Download the test-case corpus and apply local fixes
//   - history: Summarize previous runs
//   - version: Display version and build information
//
// The CLI supports configuration via:
//   - Command-line flags
//   - Configuration files (YAML format)
//   - Environment variables prefixed with RMLCONF_
//
// Configuration File Locations:
//   - Specified via --config flag
//   - $HOME/.rmlconformance.yaml (default)
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/rmlconformance/internal/config"
	"evalgo.org/rmlconformance/internal/helpers"
)

var (
	// cfgFile holds the path to the configuration file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "rmlconformance",
		Short: "Conformance harness for RML mapping engines",
		Long: `rmlconformance runs the RML test-case corpus against a mapping engine.

For every test case the harness:
  - Provisions the input data (files, a Fuseki dataset or a SQL database)
  - Runs the mapping engine on the case mapping
  - Compares the produced dataset with the reference output by graph isomorphism
  - Logs a diff for every failing case

Use "rmlconformance fetch" to download the corpus and "rmlconformance run"
to run it.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command and returns any error that occurs.
// This is the main entry point for the CLI application.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rmlconformance.yaml)")
	flags.Bool("debug", false, "enable debug logging and HTTP tracing")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text or json)")
	flags.String("data-dir", ".rmlconformance", "directory for run history and the suite lock")
	flags.String("catalog", "", "test case catalog (default from suite.catalog)")
	flags.String("tests", "", "directory holding one directory per test case (default from suite.tests)")
	flags.StringSlice("formats", nil, "fixture formats to select (CSV, JSON, XML, SPARQL, MySQL, PostgreSQL, SQLServer)")
	flags.StringSlice("only", nil, "test case identifiers to select")

	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("suite.data-dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("suite.catalog", flags.Lookup("catalog"))
	_ = viper.BindPFlag("suite.tests", flags.Lookup("tests"))
	_ = viper.BindPFlag("suite.formats", flags.Lookup("formats"))
	_ = viper.BindPFlag("suite.only", flags.Lookup("only"))

	config.SetDefaults(viper.GetViper())
}

// initConfig reads in config file and environment variables if set.
// This function is called during cobra initialization before command execution.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rmlconformance")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	} else if cfgFile != "" {
		cobra.CheckErr(err)
	}
}

// loadConfig decodes the configuration and builds the logger it describes.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	log := helpers.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Debug)
	if used := viper.ConfigFileUsed(); used != "" {
		log.WithField("file", used).Debug("configuration loaded")
	}
	return cfg, log, nil
}
