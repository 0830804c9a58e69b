// Package config loads the harness settings from flags, the config file and
// RMLCONF_ environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"evalgo.org/rmlconformance/internal/benchmark"
	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/sqlfixture"
)

// EnvPrefix prefixes every environment variable, e.g. RMLCONF_SUITE_FORMATS.
const EnvPrefix = "RMLCONF"

// Config is the complete harness configuration.
type Config struct {
	Suite       SuiteConfig       `mapstructure:"suite"`
	Triplestore TriplestoreConfig `mapstructure:"triplestore"`
	MySQL       sqlfixture.Config `mapstructure:"mysql"`
	PostgreSQL  sqlfixture.Config `mapstructure:"postgresql"`
	SQLServer   sqlfixture.Config `mapstructure:"sqlserver"`
	SQL         SQLConfig         `mapstructure:"sql"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Benchmark   BenchmarkConfig   `mapstructure:"benchmark"`
	Log         LogConfig         `mapstructure:"log"`
	Debug       bool              `mapstructure:"debug"`
}

// SuiteConfig selects the test cases and how they are judged.
type SuiteConfig struct {
	Catalog                  string   `mapstructure:"catalog"`
	Tests                    string   `mapstructure:"tests"`
	Formats                  []string `mapstructure:"formats"`
	Only                     []string `mapstructure:"only"`
	DataDir                  string   `mapstructure:"data-dir"`
	RetentionDays            int      `mapstructure:"retention-days"`
	Strict                   bool     `mapstructure:"strict"`
	IRIify                   bool     `mapstructure:"iriify"`
	RequireReferenceCoverage bool     `mapstructure:"require-reference-coverage"`
}

// TriplestoreConfig reaches the Fuseki server used by SPARQL cases.
type TriplestoreConfig struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SQLConfig holds settings shared by the database dialects.
type SQLConfig struct {
	DropAfter bool `mapstructure:"drop-after"`
}

// EngineConfig describes the mapping engine executable.
type EngineConfig struct {
	Command    string        `mapstructure:"command"`
	Args       []string      `mapstructure:"args"`
	Output     string        `mapstructure:"output"`
	StrictFlag string        `mapstructure:"strict-flag"`
	IRIifyFlag string        `mapstructure:"iriify-flag"`
	InferFlag  string        `mapstructure:"infer-flag"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// BenchmarkConfig locates the corpus download.
type BenchmarkConfig struct {
	URL    string `mapstructure:"url"`
	Dir    string `mapstructure:"dir"`
	FixDir string `mapstructure:"fix-dir"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"suite.catalog":                    "testsuite/rml-test-cases-master/metadata.nt",
		"suite.tests":                      "testsuite/rml-test-cases-master/test-cases",
		"suite.formats":                    []string{string(domain.FormatCSV)},
		"suite.only":                       []string{},
		"suite.data-dir":                   ".rmlconformance",
		"suite.retention-days":             28,
		"suite.strict":                     false,
		"suite.iriify":                     false,
		"suite.require-reference-coverage": false,

		"triplestore.url":      "http://localhost:3030",
		"triplestore.username": "admin",
		"triplestore.password": "pyrml",
		"triplestore.timeout":  30 * time.Second,

		"mysql.host":             "localhost",
		"mysql.port":             3306,
		"mysql.user":             "root",
		"mysql.password":         "pyrml",
		"mysql.database":         "test",
		"mysql.mapping-dsn":      "mysql+mysqlconnector://localhost:3306/test?charset=utf8mb4",
		"mysql.mapping-password": "pyrml",

		"postgresql.host":             "localhost",
		"postgresql.port":             5432,
		"postgresql.user":             "postgres",
		"postgresql.password":         "pyrml",
		"postgresql.database":         "test",
		"postgresql.mapping-dsn":      "postgresql+psycopg2://localhost/test",
		"postgresql.mapping-password": "pyrml",

		"sqlserver.host":             "localhost",
		"sqlserver.port":             1433,
		"sqlserver.user":             "sa",
		"sqlserver.password":         "_pyRML_admin",
		"sqlserver.database":         "TestDB",
		"sqlserver.mapping-dsn":      "mssql+pymssql://localhost:1433/TestDB",
		"sqlserver.mapping-password": "_pyRML_admin",

		"sql.drop-after": false,

		"engine.command":     "pyrml",
		"engine.args":        []string{"{mapping}"},
		"engine.output":      "-",
		"engine.strict-flag": "",
		"engine.iriify-flag": "",
		"engine.infer-flag":  "",
		"engine.timeout":     5 * time.Minute,

		"benchmark.url":     benchmark.DefaultURL,
		"benchmark.dir":     ".",
		"benchmark.fix-dir": "",

		"log.level":  "info",
		"log.format": "text",
		"debug":      false,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// BindEnv makes every key readable from RMLCONF_ environment variables with
// dots and dashes replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if _, err := domain.ParseFormats(c.Suite.Formats); err != nil {
		return domain.NewValidationError("suite.formats", err.Error())
	}
	if err := helpers.ValidateServerURL("triplestore.url", c.Triplestore.URL); err != nil {
		return err
	}
	if err := helpers.ValidateServerURL("benchmark.url", c.Benchmark.URL); err != nil {
		return err
	}
	if c.Engine.Command == "" {
		return domain.NewValidationError("engine.command", "must not be empty")
	}
	if c.Suite.DataDir == "" {
		return domain.NewValidationError("suite.data-dir", "must not be empty")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return domain.NewValidationError("log.format", fmt.Sprintf("unsupported format %q", c.Log.Format))
	}
	return nil
}

// Formats returns the parsed suite formats.
func (c *Config) Formats() []domain.Format {
	formats, _ := domain.ParseFormats(c.Suite.Formats)
	return formats
}

// Databases returns the server settings of every SQL dialect.
func (c *Config) Databases() map[domain.Format]sqlfixture.Config {
	return map[domain.Format]sqlfixture.Config{
		domain.FormatMySQL:      c.MySQL,
		domain.FormatPostgreSQL: c.PostgreSQL,
		domain.FormatSQLServer:  c.SQLServer,
	}
}
