// Package rdfio holds the in-memory RDF dataset model used by the harness and
// the glue to read and write it with knakk/rdf.
//
// A Dataset is an ordered collection of graphs. Graphs are keyed by the
// N-Quads serialization of their name; the default graph has the empty key.
// Each graph is a set: adding a triple twice keeps one copy.
package rdfio

import (
	"strings"

	"github.com/knakk/rdf"
)

// DefaultGraphKey identifies the unnamed graph.
const DefaultGraphKey = ""

// TermKey returns a stable string form of a term, suitable for map keys.
func TermKey(t rdf.Term) string {
	if t == nil {
		return ""
	}
	return t.Serialize(rdf.NQuads)
}

// TripleKey returns a stable string form of a triple.
func TripleKey(t rdf.Triple) string {
	var b strings.Builder
	b.WriteString(TermKey(t.Subj))
	b.WriteByte(' ')
	b.WriteString(TermKey(t.Pred))
	b.WriteByte(' ')
	b.WriteString(TermKey(t.Obj))
	return b.String()
}

// IsBlank reports whether t is a blank node.
func IsBlank(t rdf.Term) bool {
	return t != nil && t.Type() == rdf.TermBlank
}

// Graph is a set of triples with an optional name.
type Graph struct {
	name    rdf.Context
	key     string
	triples []rdf.Triple
	index   map[string]int
}

// NewGraph returns an empty graph. A nil name denotes the default graph.
func NewGraph(name rdf.Context) *Graph {
	return &Graph{
		name:  name,
		key:   TermKey(name),
		index: make(map[string]int),
	}
}

// Name returns the graph name, nil for the default graph.
func (g *Graph) Name() rdf.Context { return g.name }

// Key returns the graph identifier used to match graphs across datasets.
func (g *Graph) Key() string { return g.key }

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Add inserts t and reports whether it was new.
func (g *Graph) Add(t rdf.Triple) bool {
	k := TripleKey(t)
	if _, ok := g.index[k]; ok {
		return false
	}
	g.index[k] = len(g.triples)
	g.triples = append(g.triples, t)
	return true
}

// Has reports whether t is in the graph, comparing blank nodes by label.
func (g *Graph) Has(t rdf.Triple) bool {
	_, ok := g.index[TripleKey(t)]
	return ok
}

// Triples returns the triples in insertion order. The slice must not be
// modified.
func (g *Graph) Triples() []rdf.Triple { return g.triples }

// Match returns the triples accepted by keep.
func (g *Graph) Match(keep func(rdf.Triple) bool) []rdf.Triple {
	var out []rdf.Triple
	for _, t := range g.triples {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Remove deletes every triple accepted by drop and returns how many were
// removed.
func (g *Graph) Remove(drop func(rdf.Triple) bool) int {
	kept := g.triples[:0]
	removed := 0
	for _, t := range g.triples {
		if drop(t) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	g.triples = kept
	g.index = make(map[string]int, len(kept))
	for i, t := range kept {
		g.index[TripleKey(t)] = i
	}
	return removed
}

// Objects returns the objects of triples with the given subject and predicate.
func (g *Graph) Objects(subj rdf.Subject, pred string) []rdf.Object {
	sk := TermKey(subj)
	var out []rdf.Object
	for _, t := range g.triples {
		if t.Pred.String() == pred && TermKey(t.Subj) == sk {
			out = append(out, t.Obj)
		}
	}
	return out
}

// Subjects returns the distinct subjects having pred with the given IRI
// object, in first-seen order.
func (g *Graph) Subjects(pred, obj string) []rdf.Subject {
	seen := make(map[string]bool)
	var out []rdf.Subject
	for _, t := range g.triples {
		if t.Pred.String() != pred || t.Obj.Type() != rdf.TermIRI || t.Obj.String() != obj {
			continue
		}
		k := TermKey(t.Subj)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t.Subj)
	}
	return out
}

// Dataset is an ordered set of graphs.
type Dataset struct {
	graphs map[string]*Graph
	order  []string
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{graphs: make(map[string]*Graph)}
}

// graph returns the graph named name, creating it when missing.
func (d *Dataset) graph(name rdf.Context) *Graph {
	k := TermKey(name)
	if g, ok := d.graphs[k]; ok {
		return g
	}
	g := NewGraph(name)
	d.graphs[k] = g
	d.order = append(d.order, k)
	return g
}

// Add inserts a triple into the named graph (nil for the default graph).
func (d *Dataset) Add(name rdf.Context, t rdf.Triple) bool {
	return d.graph(name).Add(t)
}

// AddQuad inserts a quad. A quad without a usable graph label goes to the
// default graph.
func (d *Dataset) AddQuad(q rdf.Quad) bool {
	if q.Ctx == nil || q.Ctx.String() == "" {
		return d.Add(nil, q.Triple)
	}
	return d.Add(q.Ctx, q.Triple)
}

// AddGraph merges all triples of g into the graph with the same name.
func (d *Dataset) AddGraph(g *Graph) {
	target := d.graph(g.Name())
	for _, t := range g.Triples() {
		target.Add(t)
	}
}

// Lookup returns the graph with the given key.
func (d *Dataset) Lookup(key string) (*Graph, bool) {
	g, ok := d.graphs[key]
	if !ok || g.Len() == 0 {
		return nil, false
	}
	return g, true
}

// Graphs returns the non-empty graphs in first-seen order.
func (d *Dataset) Graphs() []*Graph {
	out := make([]*Graph, 0, len(d.order))
	for _, k := range d.order {
		if g := d.graphs[k]; g.Len() > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Keys returns the identifiers of the non-empty graphs in first-seen order.
func (d *Dataset) Keys() []string {
	graphs := d.Graphs()
	keys := make([]string, len(graphs))
	for i, g := range graphs {
		keys[i] = g.Key()
	}
	return keys
}

// Len returns the total number of triples over all graphs.
func (d *Dataset) Len() int {
	n := 0
	for _, g := range d.graphs {
		n += g.Len()
	}
	return n
}

// IsEmpty reports whether the dataset holds no triples.
func (d *Dataset) IsEmpty() bool { return d.Len() == 0 }

// HasNamedGraphs reports whether any non-empty graph other than the default
// graph exists.
func (d *Dataset) HasNamedGraphs() bool {
	for _, g := range d.Graphs() {
		if g.Key() != DefaultGraphKey {
			return true
		}
	}
	return false
}

// Quads returns every triple of the dataset as a quad, graph by graph.
func (d *Dataset) Quads() []rdf.Quad {
	out := make([]rdf.Quad, 0, d.Len())
	for _, g := range d.Graphs() {
		for _, t := range g.Triples() {
			out = append(out, rdf.Quad{Triple: t, Ctx: g.Name()})
		}
	}
	return out
}
