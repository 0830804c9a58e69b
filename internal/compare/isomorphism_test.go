package compare

import (
	"fmt"
	"strings"
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/rmlconformance/internal/rdfio"
)

func graph(t *testing.T, nt string) *rdfio.Graph {
	t.Helper()
	g, err := rdfio.DecodeGraph(strings.NewReader(nt), rdf.NTriples)
	require.NoError(t, err)
	return g
}

func dataset(t *testing.T, nq string) *rdfio.Dataset {
	t.Helper()
	d, err := rdfio.DecodeDataset(strings.NewReader(nq))
	require.NoError(t, err)
	return d
}

// cycle builds a directed cycle of blank nodes with the given labels.
func cycle(labels ...string) string {
	var b strings.Builder
	for i, l := range labels {
		next := labels[(i+1)%len(labels)]
		fmt.Fprintf(&b, "_:%s <http://e/next> _:%s .\n", l, next)
	}
	return b.String()
}

func TestIsomorphic(t *testing.T) {
	tests := []struct {
		name string
		g1   string
		g2   string
		want bool
	}{
		{
			name: "ground graphs equal",
			g1:   "<http://e/a> <http://e/p> \"1\" .\n<http://e/a> <http://e/q> <http://e/b> .\n",
			g2:   "<http://e/a> <http://e/q> <http://e/b> .\n<http://e/a> <http://e/p> \"1\" .\n",
			want: true,
		},
		{
			name: "ground graphs differ in literal",
			g1:   "<http://e/a> <http://e/p> \"1\" .\n",
			g2:   "<http://e/a> <http://e/p> \"2\" .\n",
			want: false,
		},
		{
			name: "datatype matters",
			g1:   "<http://e/a> <http://e/p> \"1\" .\n",
			g2:   "<http://e/a> <http://e/p> \"1\"^^<http://www.w3.org/2001/XMLSchema#integer> .\n",
			want: false,
		},
		{
			name: "blank nodes renamed",
			g1:   "_:x <http://e/name> \"Venus\" .\n_:x <http://e/id> \"10\" .\n_:y <http://e/name> \"Mars\" .\n",
			g2:   "_:b1 <http://e/name> \"Mars\" .\n_:b0 <http://e/id> \"10\" .\n_:b0 <http://e/name> \"Venus\" .\n",
			want: true,
		},
		{
			name: "blank node structure differs",
			g1:   "_:x <http://e/name> \"Venus\" .\n_:x <http://e/id> \"10\" .\n",
			g2:   "_:a <http://e/name> \"Venus\" .\n_:b <http://e/id> \"10\" .\n",
			want: false,
		},
		{
			name: "blank node versus IRI",
			g1:   "_:x <http://e/name> \"Venus\" .\n",
			g2:   "<http://e/x> <http://e/name> \"Venus\" .\n",
			want: false,
		},
		{
			name: "symmetric cycle relabelled",
			g1:   cycle("a", "b", "c", "d", "e", "f"),
			g2:   cycle("u", "w", "z", "v", "x", "y"),
			want: true,
		},
		{
			name: "one six-cycle versus two three-cycles",
			g1:   cycle("a", "b", "c", "d", "e", "f"),
			g2:   cycle("a", "b", "c") + cycle("d", "e", "f"),
			want: false,
		},
		{
			name: "two three-cycles relabelled",
			g1:   cycle("a", "b", "c") + cycle("d", "e", "f"),
			g2:   cycle("q", "r", "s") + cycle("t", "u", "v"),
			want: true,
		},
		{
			name: "empty graphs",
			g1:   "",
			g2:   "",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g1, g2 := graph(t, tt.g1), graph(t, tt.g2)
			assert.Equal(t, tt.want, Isomorphic(g1, g2), "Isomorphic(g1, g2)")
			assert.Equal(t, tt.want, Isomorphic(g2, g1), "Isomorphic(g2, g1)")
			assert.True(t, Isomorphic(g1, g1), "Isomorphic(g1, g1)")
		})
	}
}

func TestEquivalent(t *testing.T) {
	const reference = `<http://e/Venus> <http://e/name> "Venus" .
_:b <http://e/id> "10" <http://e/graph1> .
`

	t.Run("reflexive", func(t *testing.T) {
		ref := dataset(t, reference)
		out := Equivalent(ref, ref, Options{})
		assert.True(t, out.Passed)
		assert.Empty(t, out.MissingInProduced)
	})

	t.Run("blank renamed across graphs", func(t *testing.T) {
		produced := dataset(t, `_:zz <http://e/id> "10" <http://e/graph1> .
<http://e/Venus> <http://e/name> "Venus" .
`)
		ref := dataset(t, reference)
		assert.True(t, Equivalent(produced, ref, Options{}).Passed)
		assert.True(t, Equivalent(ref, produced, Options{}).Passed)
	})

	t.Run("produced graph missing in reference", func(t *testing.T) {
		produced := dataset(t, `<http://e/Venus> <http://e/name> "Venus" .
<http://e/Venus> <http://e/name> "Venus" <http://e/other> .
`)
		out := Equivalent(produced, dataset(t, reference), Options{})
		assert.False(t, out.Passed)
		assert.Equal(t, "<http://e/other>", out.Graph)
		assert.Equal(t, ReasonMissingGraph, out.Reason)
	})

	t.Run("graph not isomorphic", func(t *testing.T) {
		produced := dataset(t, `<http://e/Venus> <http://e/name> "Mars" .`+"\n")
		out := Equivalent(produced, dataset(t, reference), Options{})
		assert.False(t, out.Passed)
		assert.Equal(t, rdfio.DefaultGraphKey, out.Graph)
		assert.Equal(t, ReasonNotIsomorphic, out.Reason)
	})

	t.Run("under-production passes unless coverage is required", func(t *testing.T) {
		produced := dataset(t, `<http://e/Venus> <http://e/name> "Venus" .`+"\n")
		ref := dataset(t, reference)

		lenient := Equivalent(produced, ref, Options{})
		assert.True(t, lenient.Passed)
		assert.Equal(t, []string{"<http://e/graph1>"}, lenient.MissingInProduced)

		strict := Equivalent(produced, ref, Options{RequireReferenceCoverage: true})
		assert.False(t, strict.Passed)
		assert.Equal(t, ReasonUnproducedGraph, strict.Reason)
	})

	t.Run("empty production fails against a reference", func(t *testing.T) {
		out := Equivalent(rdfio.NewDataset(), dataset(t, reference), Options{})
		assert.False(t, out.Passed)
		assert.Equal(t, rdfio.DefaultGraphKey, out.Graph)
		assert.Equal(t, ReasonNotIsomorphic, out.Reason)
	})

	t.Run("default graph is checked when only named graphs are produced", func(t *testing.T) {
		produced := dataset(t, `_:b <http://e/id> "10" <http://e/graph1> .`+"\n")
		out := Equivalent(produced, dataset(t, reference), Options{})
		assert.False(t, out.Passed)
		assert.Equal(t, rdfio.DefaultGraphKey, out.Graph)

		named := dataset(t, `_:b <http://e/id> "10" <http://e/graph1> .`+"\n")
		assert.True(t, Equivalent(produced, named, Options{}).Passed)
	})

	t.Run("missing reference is empty", func(t *testing.T) {
		empty := rdfio.NewDataset()
		assert.True(t, Equivalent(rdfio.NewDataset(), empty, Options{}).Passed)
		assert.False(t, Equivalent(dataset(t, reference), empty, Options{}).Passed)
	})
}
