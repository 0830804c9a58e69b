package compare

import (
	"evalgo.org/rmlconformance/internal/rdfio"
)

// Reasons reported in an Outcome.
const (
	ReasonMissingGraph    = "produced graph has no counterpart in the reference"
	ReasonNotIsomorphic   = "graph is not isomorphic to the reference"
	ReasonUnproducedGraph = "reference graph was not produced"
)

// Options tunes the equivalence check.
type Options struct {
	// RequireReferenceCoverage also fails when the reference holds a graph
	// that was not produced. Off by default: the check only requires every
	// produced graph to be matched.
	RequireReferenceCoverage bool
}

// Outcome is the verdict of comparing a produced dataset to a reference.
type Outcome struct {
	Passed bool   `json:"passed"`
	Graph  string `json:"graph,omitempty"`
	Reason string `json:"reason,omitempty"`

	// MissingInProduced lists reference graphs with no produced counterpart,
	// whether or not they caused a failure.
	MissingInProduced []string `json:"missing_in_produced,omitempty"`
}

// Equivalent compares produced against reference graph by graph. The default
// graph is always checked, even when nothing was produced into it. Every
// other graph of produced must exist in reference under the same identifier
// and be isomorphic to it; the first violation ends the check.
func Equivalent(produced, reference *rdfio.Dataset, opts Options) Outcome {
	var out Outcome
	for _, key := range reference.Keys() {
		if _, ok := produced.Lookup(key); !ok {
			out.MissingInProduced = append(out.MissingInProduced, key)
		}
	}

	if reason := compareDefault(produced, reference); reason != "" {
		out.Graph, out.Reason = rdfio.DefaultGraphKey, reason
		return out
	}

	for _, g := range produced.Graphs() {
		if g.Key() == rdfio.DefaultGraphKey {
			continue
		}
		ref, ok := reference.Lookup(g.Key())
		if !ok {
			out.Graph, out.Reason = g.Key(), ReasonMissingGraph
			return out
		}
		if !Isomorphic(g, ref) {
			out.Graph, out.Reason = g.Key(), ReasonNotIsomorphic
			return out
		}
	}

	if opts.RequireReferenceCoverage && len(out.MissingInProduced) > 0 {
		out.Graph, out.Reason = out.MissingInProduced[0], ReasonUnproducedGraph
		return out
	}

	out.Passed = true
	return out
}

// compareDefault checks the default graphs, treating an absent graph as
// empty. It returns the failure reason or "".
func compareDefault(produced, reference *rdfio.Dataset) string {
	got, gotOK := produced.Lookup(rdfio.DefaultGraphKey)
	want, wantOK := reference.Lookup(rdfio.DefaultGraphKey)
	switch {
	case !gotOK && !wantOK:
		return ""
	case gotOK && !wantOK:
		return ReasonMissingGraph
	case !gotOK:
		got = rdfio.NewGraph(nil)
	}
	if !Isomorphic(got, want) {
		return ReasonNotIsomorphic
	}
	return ""
}
