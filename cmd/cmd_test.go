package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/rmlconformance/internal/compare"
	"evalgo.org/rmlconformance/internal/config"
	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/provision"
	"evalgo.org/rmlconformance/internal/report"
	"evalgo.org/rmlconformance/internal/suite"
)

const catalogNT = `<http://rml.io/test-cases/#RMLTC0001a-CSV> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/earl#TestCase> .
<http://rml.io/test-cases/#RMLTC0001a-CSV> <http://purl.org/dc/terms/identifier> "RMLTC0001a-CSV" .
<http://rml.io/test-cases/#RMLTC0001a-CSV> <http://purl.org/dc/terms/description> "One column mapping" .
<http://rml.io/test-cases/#RMLTC0001b-CSV> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/earl#TestCase> .
<http://rml.io/test-cases/#RMLTC0001b-CSV> <http://purl.org/dc/terms/identifier> "RMLTC0001b-CSV" .
<http://rml.io/test-cases/#RMLTC0001a-MySQL> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/earl#TestCase> .
<http://rml.io/test-cases/#RMLTC0001a-MySQL> <http://purl.org/dc/terms/identifier> "RMLTC0001a-MySQL" .
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	tests := filepath.Join(root, "test-cases")
	for _, id := range []string{"RMLTC0001a-CSV", "RMLTC0001b-CSV", "RMLTC0001a-MySQL"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tests, id), 0755))
	}
	catalog := filepath.Join(root, "metadata.nt")
	require.NoError(t, os.WriteFile(catalog, []byte(catalogNT), 0644))

	v := viper.New()
	config.SetDefaults(v)
	v.Set("suite.catalog", catalog)
	v.Set("suite.tests", tests)
	v.Set("suite.data-dir", filepath.Join(root, "data"))
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestSelectCases(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)

	cases, err := selectCases(cfg, nil, log)
	require.NoError(t, err)
	assert.Len(t, cases, 2, "default formats select CSV only")

	cases, err = selectCases(cfg, []string{"RMLTC0001b-CSV"}, log)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "RMLTC0001b-CSV", cases[0].ID)

	cfg.Suite.Formats = []string{"CSV", "MySQL"}
	cfg.Suite.Only = []string{"RMLTC0001a-MySQL"}
	cases, err = selectCases(cfg, nil, log)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, domain.FormatMySQL, cases[0].Format)

	cfg.Suite.Catalog = filepath.Join(t.TempDir(), "missing.nt")
	_, err = selectCases(cfg, nil, log)
	var catalogErr *domain.CatalogError
	assert.ErrorAs(t, err, &catalogErr)
}

func TestNewOrchestrator(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.SQL.DropAfter = true

	orch, err := newOrchestrator(cfg, log)
	require.NoError(t, err)
	assert.Equal(t, domain.AllFormats, orch.Registry.Formats())
	assert.Equal(t, filepath.Join(cfg.Suite.DataDir, helpers.SuiteLockFile), orch.LockPath)
	assert.NotNil(t, orch.Store)

	p, ok := orch.Registry.Get(domain.FormatPostgreSQL)
	require.True(t, ok)
	sqlProv, ok := p.(*provision.SQLProvisioner)
	require.True(t, ok)
	assert.Equal(t, "test", sqlProv.Database)
	assert.True(t, sqlProv.DropAfter)
	assert.Equal(t, provision.Connection{
		DSN:      "postgresql+psycopg2://localhost/test",
		Password: "pyrml",
	}, sqlProv.Connections["org.postgresql.Driver"])

	eng := newEngine(cfg, log)
	assert.Equal(t, "pyrml", eng.Command)
	assert.Equal(t, 5*time.Minute, eng.Timeout)
}

func TestPrintCases(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCases(&buf, []domain.TestCase{
		{ID: "RMLTC0001a-CSV", Format: domain.FormatCSV, Description: "One column mapping"},
		{ID: "RMLTC0002a-SPARQL", Format: domain.FormatSPARQL, IgnoreFail: true},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "One column mapping")
	assert.Contains(t, lines[2], "true")
}

func TestPrintSummary(t *testing.T) {
	res := &suite.Result{
		RunID:  "run-1",
		Passed: 1,
		Failed: 2,
		Cases: []suite.CaseResult{
			{TestCase: domain.TestCase{ID: "a"}, Status: suite.StatusPass},
			{
				TestCase: domain.TestCase{ID: "b"},
				Status:   suite.StatusFail,
				Outcome:  compare.Outcome{Graph: "<http://e/g>", Reason: compare.ReasonNotIsomorphic},
			},
			{
				TestCase: domain.TestCase{ID: "c"},
				Status:   suite.StatusFail,
				Err:      errors.New("fuseki unreachable"),
			},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "FAIL b: "+compare.ReasonNotIsomorphic+" in graph <http://e/g>")
	assert.Contains(t, out, "FAIL c: fuseki unreachable")
	assert.Contains(t, out, "run run-1: 1 passed, 2 failed, 0 ignored")
	assert.NotContains(t, out, "FAIL a")
}

func TestPrintStatistics(t *testing.T) {
	stats := &report.Statistics{
		TotalRuns:    2,
		FailedRuns:   2,
		TotalCases:   6,
		PassedCases:  3,
		FailedCases:  3,
		PassRate:     50,
		FailingCases: map[string]int{"x": 1, "y": 2, "z": 1},
		ErrorTypes:   map[string]int{"conversion": 1},
	}

	var buf bytes.Buffer
	printStatistics(&buf, stats, 2)
	out := buf.String()
	assert.Contains(t, out, "pass rate 50.0%")
	assert.Less(t, strings.Index(out, "  y"), strings.Index(out, "  x"))
	assert.NotContains(t, out, "  z ")
	assert.Contains(t, out, "conversion")
}

func TestRank(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, rank(map[string]int{"a": 1, "b": 3, "c": 1}))
	assert.Empty(t, rank(nil))
}
