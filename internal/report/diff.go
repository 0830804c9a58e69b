// Package report explains failed comparisons and keeps the history of suite
// runs.
package report

import (
	"github.com/knakk/rdf"
	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/compare"
	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/rdfio"
)

// Diff sections as they appear in the "section" log field.
const (
	SectionProducedOnly  = "produced-only"
	SectionReferenceOnly = "reference-only"
	SectionProduced      = "produced"
	SectionReference     = "reference"
)

// GraphDiff holds the triples of one graph found on one side only. Blank
// nodes are compared by label, so renamed blank nodes show up on both sides.
type GraphDiff struct {
	Graph           string       `json:"graph"`
	OnlyInProduced  []rdf.Triple `json:"-"`
	OnlyInReference []rdf.Triple `json:"-"`
}

// Empty reports whether both sides agree.
func (d GraphDiff) Empty() bool {
	return len(d.OnlyInProduced) == 0 && len(d.OnlyInReference) == 0
}

// Diff computes per-graph set differences over the union of graph names,
// produced graphs first.
func Diff(produced, reference *rdfio.Dataset) []GraphDiff {
	keys := produced.Keys()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, k := range reference.Keys() {
		if !seen[k] {
			keys = append(keys, k)
		}
	}

	diffs := make([]GraphDiff, 0, len(keys))
	for _, k := range keys {
		p, _ := produced.Lookup(k)
		r, _ := reference.Lookup(k)
		diffs = append(diffs, GraphDiff{
			Graph:           k,
			OnlyInProduced:  minus(p, r),
			OnlyInReference: minus(r, p),
		})
	}
	return diffs
}

func minus(a, b *rdfio.Graph) []rdf.Triple {
	if a == nil {
		return nil
	}
	var out []rdf.Triple
	for _, t := range a.Triples() {
		if b == nil || !b.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// DiffReporter writes diagnostics for failed test cases to the log.
type DiffReporter struct {
	Log logrus.FieldLogger
}

// NewDiffReporter creates a reporter logging to log.
func NewDiffReporter(log logrus.FieldLogger) *DiffReporter {
	return &DiffReporter{Log: log}
}

// Report logs the differences and full contents of both datasets. It is a
// no-op for passing and ignore-listed cases. It returns the computed diffs.
func (r *DiffReporter) Report(tc domain.TestCase, produced, reference *rdfio.Dataset, outcome compare.Outcome) []GraphDiff {
	if outcome.Passed || tc.IgnoreFail {
		return nil
	}

	log := r.Log.WithField("test_case", tc.ID)
	log.WithFields(logrus.Fields{
		"graph":  outcome.Graph,
		"reason": outcome.Reason,
	}).Error("produced dataset differs from reference")

	diffs := Diff(produced, reference)
	for _, d := range diffs {
		r.logTriples(log, d.Graph, SectionProducedOnly, d.OnlyInProduced)
		r.logTriples(log, d.Graph, SectionReferenceOnly, d.OnlyInReference)
	}
	for _, g := range produced.Graphs() {
		r.logTriples(log, g.Key(), SectionProduced, g.Triples())
	}
	for _, g := range reference.Graphs() {
		r.logTriples(log, g.Key(), SectionReference, g.Triples())
	}
	return diffs
}

func (r *DiffReporter) logTriples(log logrus.FieldLogger, graph, section string, triples []rdf.Triple) {
	entry := log.WithFields(logrus.Fields{"graph": graph, "section": section})
	for _, t := range triples {
		entry.Info(rdfio.TripleKey(t))
	}
}
