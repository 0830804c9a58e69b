// Package provision prepares the external environment a test case needs
// before the mapping engine runs: triplestore datasets for SPARQL cases,
// databases for SQL cases, and the rewritten mapping pointing at them.
package provision

import (
	"context"
	"path/filepath"

	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/sqlfixture"
)

// GraphResource is one resource file loaded into its own triplestore dataset.
type GraphResource struct {
	// Index is the position the mapping refers to: resource.ttl is 0,
	// resourceN.ttl is N-1.
	Index   int    `json:"index"`
	File    string `json:"file"`
	Dataset string `json:"dataset"`
	URL     string `json:"url"`
}

// Environment is the prepared state of one test case. Dir is the test case
// directory; every relative path the engine sees is resolved against it.
type Environment struct {
	TestCase    domain.TestCase    `json:"test_case"`
	Dir         string             `json:"dir"`
	MappingPath string             `json:"mapping_path"`
	Graphs      []GraphResource    `json:"graphs,omitempty"`
	Database    string             `json:"database,omitempty"`
	Fixture     *sqlfixture.Result `json:"fixture,omitempty"`
}

// Provisioner prepares and releases the environment of one fixture format.
type Provisioner interface {
	Provision(ctx context.Context, tc domain.TestCase, dir string) (*Environment, error)
	Teardown(ctx context.Context, env *Environment) error
}

func newEnvironment(tc domain.TestCase, dir string) *Environment {
	return &Environment{
		TestCase:    tc,
		Dir:         dir,
		MappingPath: filepath.Join(dir, helpers.MappingFile),
	}
}

// FileProvisioner serves formats read straight from the case directory.
type FileProvisioner struct{}

// Provision checks the mapping exists and uses it unchanged.
func (FileProvisioner) Provision(_ context.Context, tc domain.TestCase, dir string) (*Environment, error) {
	env := newEnvironment(tc, dir)
	if !helpers.FileExists(env.MappingPath) {
		return nil, domain.NewFixtureError(tc.ID, helpers.MappingFile, domain.NewNotFoundError("file", env.MappingPath))
	}
	return env, nil
}

// Teardown has nothing to release.
func (FileProvisioner) Teardown(context.Context, *Environment) error { return nil }
