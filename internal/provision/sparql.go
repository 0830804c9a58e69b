package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/rdfio"
)

// DatasetStore is the part of the triplestore client SPARQL cases need.
type DatasetStore interface {
	CreateDataset(ctx context.Context, name string) error
	LoadTurtle(ctx context.Context, name string, data []byte) error
	DeleteDataset(ctx context.Context, name string) error
	DatasetURL(name string) string
}

// SPARQLProvisioner loads each resource file of a case into its own
// triplestore dataset and points the mapping endpoints at them.
type SPARQLProvisioner struct {
	Store DatasetStore
	Log   logrus.FieldLogger
}

// NewSPARQLProvisioner creates a SPARQL provisioner.
func NewSPARQLProvisioner(store DatasetStore, log logrus.FieldLogger) *SPARQLProvisioner {
	return &SPARQLProvisioner{Store: store, Log: log}
}

// Resources lists the resource files of dir ordered by index.
func Resources(tc domain.TestCase, dir string) ([]GraphResource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var graphs []GraphResource
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), helpers.ResourcePrefix) {
			continue
		}
		idx, err := ResourceIndex(e.Name())
		if err != nil {
			return nil, domain.NewFixtureError(tc.ID, e.Name(), err)
		}
		graphs = append(graphs, GraphResource{
			Index:   idx,
			File:    e.Name(),
			Dataset: tc.ID + "_" + e.Name(),
		})
	}
	sort.SliceStable(graphs, func(i, j int) bool { return graphs[i].Index < graphs[j].Index })
	return graphs, nil
}

// Provision loads the resources and writes mapping-sparql.ttl. The original
// mapping.ttl is left untouched.
func (p *SPARQLProvisioner) Provision(ctx context.Context, tc domain.TestCase, dir string) (*Environment, error) {
	env := newEnvironment(tc, dir)
	log := p.Log.WithField("test_case", tc.ID)

	graphs, err := Resources(tc, dir)
	if err != nil {
		return nil, err
	}

	for i := range graphs {
		g := &graphs[i]
		path := filepath.Join(dir, g.File)
		parsed, err := rdfio.ReadGraph(path)
		if err != nil {
			return env, domain.NewFixtureError(tc.ID, g.File, err)
		}
		data, err := parsed.Bytes()
		if err != nil {
			return env, domain.NewFixtureError(tc.ID, g.File, err)
		}

		if err := p.Store.CreateDataset(ctx, g.Dataset); err != nil {
			return env, domain.NewProvisionError(tc.ID, "create dataset "+g.Dataset, err)
		}
		g.URL = p.Store.DatasetURL(g.Dataset)
		env.Graphs = append(env.Graphs, *g)

		if err := p.Store.LoadTurtle(ctx, g.Dataset, data); err != nil {
			return env, domain.NewProvisionError(tc.ID, "load dataset "+g.Dataset, err)
		}
		log.WithFields(logrus.Fields{
			"dataset": g.Dataset,
			"index":   g.Index,
			"triples": parsed.Len(),
		}).Debug("resource loaded")
	}

	mapping, err := rdfio.ReadGraph(env.MappingPath)
	if err != nil {
		return env, domain.NewFixtureError(tc.ID, helpers.MappingFile, err)
	}
	n, err := RewriteEndpoints(mapping, env.Graphs)
	if err != nil {
		return env, domain.NewFixtureError(tc.ID, helpers.MappingFile, err)
	}

	out := filepath.Join(dir, helpers.MappingSPARQLFile)
	if err := rdfio.WriteGraphFile(out, mapping); err != nil {
		return env, err
	}
	env.MappingPath = out

	log.WithFields(logrus.Fields{
		"resources": len(env.Graphs),
		"endpoints": n,
	}).Debug("sparql environment ready")
	return env, nil
}

// Teardown deletes every dataset created for the case.
func (p *SPARQLProvisioner) Teardown(ctx context.Context, env *Environment) error {
	var errs []error
	for _, g := range env.Graphs {
		if err := p.Store.DeleteDataset(ctx, g.Dataset); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
