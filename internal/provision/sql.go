package provision

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/rdfio"
	"evalgo.org/rmlconformance/internal/sqlfixture"
)

// FixtureLoader recreates a database and fills it from a script.
type FixtureLoader interface {
	Load(ctx context.Context, path string) (sqlfixture.Result, error)
	Drop(ctx context.Context) error
}

// SQLProvisioner loads resource.sql into a fresh database and points the
// mapping's d2rq:Database connections at the provisioned servers.
type SQLProvisioner struct {
	Fixtures FixtureLoader
	Database string
	// Connections maps JDBC driver classes to the connection written into
	// the mapping.
	Connections map[string]Connection
	// DropAfter drops the database on teardown.
	DropAfter bool
	Log       logrus.FieldLogger
}

// Provision loads the fixture and writes mapping-sql.ttl.
func (p *SQLProvisioner) Provision(ctx context.Context, tc domain.TestCase, dir string) (*Environment, error) {
	env := newEnvironment(tc, dir)
	log := p.Log.WithFields(logrus.Fields{"test_case": tc.ID, "format": tc.Format})

	script := filepath.Join(dir, helpers.ResourceSQLFile)
	if !helpers.FileExists(script) {
		return nil, domain.NewFixtureError(tc.ID, helpers.ResourceSQLFile, domain.NewNotFoundError("file", script))
	}

	res, err := p.Fixtures.Load(ctx, script)
	if err != nil {
		return nil, domain.NewProvisionError(tc.ID, "load "+helpers.ResourceSQLFile, err)
	}
	env.Database = p.Database
	env.Fixture = &res
	if res.Failed > 0 {
		log.WithField("failed", res.Failed).Warn("some fixture statements failed")
	}

	mapping, err := rdfio.ReadGraph(env.MappingPath)
	if err != nil {
		return env, domain.NewFixtureError(tc.ID, helpers.MappingFile, err)
	}
	n, err := RewriteConnections(mapping, p.Connections)
	if err != nil {
		return env, domain.NewFixtureError(tc.ID, helpers.MappingFile, err)
	}

	out := filepath.Join(dir, helpers.MappingSQLFile)
	if err := rdfio.WriteGraphFile(out, mapping); err != nil {
		return env, err
	}
	env.MappingPath = out

	log.WithField("databases", n).Debug("sql environment ready")
	return env, nil
}

// Teardown drops the database when DropAfter is set and leaves it in place
// otherwise.
func (p *SQLProvisioner) Teardown(ctx context.Context, env *Environment) error {
	if !p.DropAfter || env.Database == "" {
		return nil
	}
	return p.Fixtures.Drop(ctx)
}

// ConnectionsFor builds the mapping connections of the given dialect
// configurations, keyed by JDBC driver class.
func ConnectionsFor(cfgs map[domain.Format]sqlfixture.Config) map[string]Connection {
	conns := make(map[string]Connection, len(cfgs))
	for _, d := range sqlfixture.Dialects {
		cfg, ok := cfgs[d.Format]
		if !ok {
			continue
		}
		conns[d.JDBCDriver] = Connection{DSN: cfg.MappingDSN, Password: cfg.MappingPassword}
	}
	return conns
}
