package cmd

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/catalog"
	"evalgo.org/rmlconformance/internal/client"
	"evalgo.org/rmlconformance/internal/compare"
	"evalgo.org/rmlconformance/internal/config"
	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/engine"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/provision"
	"evalgo.org/rmlconformance/internal/report"
	"evalgo.org/rmlconformance/internal/sqlfixture"
	"evalgo.org/rmlconformance/internal/suite"
	"evalgo.org/rmlconformance/internal/triplestore"
)

// selectCases loads the catalog and applies the format and id filters.
func selectCases(cfg *config.Config, ids []string, log logrus.FieldLogger) ([]domain.TestCase, error) {
	cases, err := catalog.Load(cfg.Suite.Catalog, cfg.Suite.Tests, cfg.Formats(), log)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(cases, append(append([]string{}, cfg.Suite.Only...), ids...)), nil
}

// newRegistry registers a provisioner for every format. Provisioners only
// reach their server when a case of their format runs.
func newRegistry(cfg *config.Config, log logrus.FieldLogger) *suite.Registry {
	reg := suite.NewRegistry()

	clients := client.NewManager(cfg.Triplestore.Timeout, cfg.Debug, log)
	fuseki := triplestore.NewClient(
		cfg.Triplestore.URL,
		cfg.Triplestore.Username,
		cfg.Triplestore.Password,
		clients.GetClient(cfg.Triplestore.URL),
		log.WithField("component", "triplestore"),
	)
	reg.Register(domain.FormatSPARQL, provision.NewSPARQLProvisioner(fuseki, log))

	databases := cfg.Databases()
	conns := provision.ConnectionsFor(databases)
	for _, d := range sqlfixture.Dialects {
		db := databases[d.Format]
		dlog := log.WithField("dialect", d.String())
		reg.Register(d.Format, &provision.SQLProvisioner{
			Fixtures:    sqlfixture.NewLoader(d, db, dlog),
			Database:    db.Database,
			Connections: conns,
			DropAfter:   cfg.SQL.DropAfter,
			Log:         dlog,
		})
	}

	return reg
}

func newEngine(cfg *config.Config, log logrus.FieldLogger) *engine.CommandEngine {
	return &engine.CommandEngine{
		Command:    cfg.Engine.Command,
		Args:       cfg.Engine.Args,
		Output:     cfg.Engine.Output,
		StrictFlag: cfg.Engine.StrictFlag,
		IRIifyFlag: cfg.Engine.IRIifyFlag,
		InferFlag:  cfg.Engine.InferFlag,
		Timeout:    cfg.Engine.Timeout,
		Log:        log.WithField("component", "engine"),
	}
}

// newOrchestrator wires the suite from the configuration.
func newOrchestrator(cfg *config.Config, log logrus.FieldLogger) (*suite.Orchestrator, error) {
	store, err := report.NewStore(cfg.Suite.DataDir, cfg.Suite.RetentionDays, log)
	if err != nil {
		return nil, err
	}

	return &suite.Orchestrator{
		Registry: newRegistry(cfg, log),
		Runner:   engine.NewRunner(newEngine(cfg, log), log),
		Reporter: report.NewDiffReporter(log),
		Store:    store,
		TestsDir: cfg.Suite.Tests,
		LockPath: filepath.Join(cfg.Suite.DataDir, helpers.SuiteLockFile),
		Options: engine.Options{
			Strict: cfg.Suite.Strict,
			IRIify: cfg.Suite.IRIify,
		},
		Compare: compare.Options{
			RequireReferenceCoverage: cfg.Suite.RequireReferenceCoverage,
		},
		Log: log,
	}, nil
}
