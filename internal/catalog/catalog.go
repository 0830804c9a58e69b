// Package catalog loads the conformance test cases declared in the metadata
// catalog of the test suite.
package catalog

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knakk/rdf"
	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/rdfio"
)

// Loader reads a catalog and resolves test case directories.
type Loader struct {
	// TestsDir is the directory holding one sub directory per test case.
	TestsDir string
	// Formats are the fixture formats to keep.
	Formats []domain.Format
	Log     logrus.FieldLogger
}

// Load parses the catalog at path and returns, in declaration order, the test
// cases whose format is supported and whose directory exists.
func (l *Loader) Load(path string) ([]domain.TestCase, error) {
	g, err := rdfio.ReadGraph(path)
	if err != nil {
		return nil, domain.NewCatalogError(path, err)
	}

	supported := make(map[domain.Format]bool, len(l.Formats))
	for _, f := range l.Formats {
		supported[f] = true
	}

	var cases []domain.TestCase
	for _, subj := range g.Subjects(helpers.RDFType, helpers.EARLTestCase) {
		id := literalValue(g.Objects(subj, helpers.DCIdentifier))
		log := l.Log.WithField("test_case", id)
		if id == "" {
			l.Log.WithField("subject", subj.String()).Warn("test case without identifier skipped")
			continue
		}

		format, ok := domain.FormatFromID(id)
		if !ok || !supported[format] {
			log.Debug("unsupported fixture format")
			continue
		}
		if !helpers.DirExists(filepath.Join(l.TestsDir, id)) {
			log.Debug("test case directory not found")
			continue
		}

		tc := domain.TestCase{
			ID:          id,
			Description: literalValue(g.Objects(subj, helpers.DCDescription)),
			IgnoreFail:  parseBool(literalValue(g.Objects(subj, helpers.TCIgnoreFail))),
			Format:      format,
		}
		cases = append(cases, tc)
		log.WithFields(logrus.Fields{
			"format":      tc.Format,
			"ignore_fail": tc.IgnoreFail,
		}).Debug("test case added")
	}

	return cases, nil
}

// Load is a convenience wrapper around Loader.Load.
func Load(path, testsDir string, formats []domain.Format, log logrus.FieldLogger) ([]domain.TestCase, error) {
	l := &Loader{TestsDir: testsDir, Formats: formats, Log: log}
	return l.Load(path)
}

// Filter keeps the cases whose id is listed in ids. An empty ids keeps all.
func Filter(cases []domain.TestCase, ids []string) []domain.TestCase {
	if len(ids) == 0 {
		return cases
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	out := make([]domain.TestCase, 0, len(ids))
	for _, tc := range cases {
		if want[tc.ID] {
			out = append(out, tc)
		}
	}
	return out
}

func literalValue(objs []rdf.Object) string {
	if len(objs) == 0 {
		return ""
	}
	return strings.TrimSpace(objs[0].String())
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
