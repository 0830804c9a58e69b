// Package compare decides whether a produced RDF dataset is equivalent to a
// reference dataset.
//
// Graphs are compared by RDF isomorphism: blank nodes may be renamed
// consistently, everything else must match exactly. Ground triples are compared
// as sets. Blank nodes are coloured by iterative refinement over both graphs in
// lockstep; remaining ties are broken by individualising one node at a time
// and backtracking. A candidate bijection is always checked against the
// triples before it is accepted, so hash collisions can only cost time.
package compare

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/knakk/rdf"

	"evalgo.org/rmlconformance/internal/rdfio"
)

type node struct {
	key   string // serialized term, empty for blank nodes
	blank int    // blank node index, -1 for ground terms
	hash  uint64 // hash of key for ground terms
}

type edge struct {
	s, o node
	p    string
}

// bgraph is the blank-node view of a graph.
type bgraph struct {
	ground map[string]struct{}
	edges  []edge
	blanks int
}

func newBGraph(g *rdfio.Graph) *bgraph {
	b := &bgraph{ground: make(map[string]struct{})}
	labels := make(map[string]int)

	toNode := func(t rdf.Term) node {
		if !rdfio.IsBlank(t) {
			k := rdfio.TermKey(t)
			return node{key: k, blank: -1, hash: hashString(k)}
		}
		label := t.String()
		i, ok := labels[label]
		if !ok {
			i = len(labels)
			labels[label] = i
		}
		return node{blank: i}
	}

	for _, t := range g.Triples() {
		if !rdfio.IsBlank(t.Subj) && !rdfio.IsBlank(t.Obj) {
			b.ground[rdfio.TripleKey(t)] = struct{}{}
			continue
		}
		b.edges = append(b.edges, edge{s: toNode(t.Subj), p: rdfio.TermKey(t.Pred), o: toNode(t.Obj)})
	}
	b.blanks = len(labels)
	return b
}

// Isomorphic reports whether g1 and g2 are equal up to blank node renaming.
func Isomorphic(g1, g2 *rdfio.Graph) bool {
	if g1.Len() != g2.Len() {
		return false
	}

	b1, b2 := newBGraph(g1), newBGraph(g2)
	if len(b1.ground) != len(b2.ground) || len(b1.edges) != len(b2.edges) || b1.blanks != b2.blanks {
		return false
	}
	for k := range b1.ground {
		if _, ok := b2.ground[k]; !ok {
			return false
		}
	}
	if b1.blanks == 0 {
		return true
	}

	return search(b1, b2, make([]uint64, b1.blanks), make([]uint64, b2.blanks), 0)
}

func search(b1, b2 *bgraph, c1, c2 []uint64, depth int) bool {
	c1, c2, ok := refineBoth(b1, b2, c1, c2)
	if !ok {
		return false
	}

	classes1, classes2 := groupByColor(c1), groupByColor(c2)

	// Pick the smallest non-trivial colour class, lowest colour on ties.
	var target uint64
	found := false
	for color, members := range classes1 {
		if len(members) < 2 {
			continue
		}
		if !found || len(members) < len(classes1[target]) ||
			(len(members) == len(classes1[target]) && color < target) {
			target, found = color, true
		}
	}

	if !found {
		mapping := make([]int, b1.blanks)
		for i, color := range c1 {
			mapping[i] = classes2[color][0]
		}
		return verify(b1, b2, mapping)
	}

	pivot := classes1[target][0]
	mark := mix(target, uint64(depth)+1)
	for _, candidate := range classes2[target] {
		n1 := append([]uint64(nil), c1...)
		n2 := append([]uint64(nil), c2...)
		n1[pivot], n2[candidate] = mark, mark
		if search(b1, b2, n1, n2, depth+1) {
			return true
		}
	}
	return false
}

// refineBoth refines both colourings until neither partition gets finer. It
// fails as soon as the colour histograms differ.
func refineBoth(b1, b2 *bgraph, c1, c2 []uint64) ([]uint64, []uint64, bool) {
	n1, n2 := countColors(c1), countColors(c2)
	for {
		if !sameHistogram(c1, c2) {
			return nil, nil, false
		}
		x1, x2 := b1.refine(c1), b2.refine(c2)
		if !sameHistogram(x1, x2) {
			return nil, nil, false
		}
		m1, m2 := countColors(x1), countColors(x2)
		if m1 == n1 && m2 == n2 {
			return x1, x2, true
		}
		c1, c2, n1, n2 = x1, x2, m1, m2
	}
}

const (
	dirOut byte = 'o'
	dirIn  byte = 'i'
)

// refine computes one round of colour refinement: the new colour of a blank
// node hashes its old colour with the sorted signatures of its edges.
func (b *bgraph) refine(colors []uint64) []uint64 {
	sigs := make([][]uint64, b.blanks)
	for _, e := range b.edges {
		if e.s.blank >= 0 {
			sigs[e.s.blank] = append(sigs[e.s.blank], edgeSignature(dirOut, e.p, e.o, colors))
		}
		if e.o.blank >= 0 {
			sigs[e.o.blank] = append(sigs[e.o.blank], edgeSignature(dirIn, e.p, e.s, colors))
		}
	}

	next := make([]uint64, len(colors))
	buf := make([]byte, 8)
	for i, old := range colors {
		s := sigs[i]
		sort.Slice(s, func(a, b int) bool { return s[a] < s[b] })
		h := fnv.New64a()
		binary.BigEndian.PutUint64(buf, old)
		_, _ = h.Write(buf)
		for _, v := range s {
			binary.BigEndian.PutUint64(buf, v)
			_, _ = h.Write(buf)
		}
		next[i] = h.Sum64()
	}
	return next
}

func edgeSignature(dir byte, pred string, other node, colors []uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte{dir})
	_, _ = h.Write([]byte(pred))
	buf := make([]byte, 9)
	if other.blank >= 0 {
		buf[0] = 'b'
		binary.BigEndian.PutUint64(buf[1:], colors[other.blank])
	} else {
		buf[0] = 'g'
		binary.BigEndian.PutUint64(buf[1:], other.hash)
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}

// verify checks that mapping (blank index in b1 -> blank index in b2) turns
// the blank-node triples of b1 into exactly those of b2.
func verify(b1, b2 *bgraph, mapping []int) bool {
	used := make([]bool, b2.blanks)
	for _, j := range mapping {
		if used[j] {
			return false
		}
		used[j] = true
	}

	want := make(map[string]struct{}, len(b2.edges))
	for _, e := range b2.edges {
		want[edgeKey(e, nil)] = struct{}{}
	}
	for _, e := range b1.edges {
		if _, ok := want[edgeKey(e, mapping)]; !ok {
			return false
		}
	}
	return true
}

func edgeKey(e edge, mapping []int) string {
	term := func(n node) string {
		if n.blank < 0 {
			return n.key
		}
		i := n.blank
		if mapping != nil {
			i = mapping[i]
		}
		return "_:" + strconv.Itoa(i)
	}
	return term(e.s) + " " + e.p + " " + term(e.o)
}

func groupByColor(colors []uint64) map[uint64][]int {
	out := make(map[uint64][]int)
	for i, c := range colors {
		out[c] = append(out[c], i)
	}
	return out
}

func countColors(colors []uint64) int {
	seen := make(map[uint64]struct{}, len(colors))
	for _, c := range colors {
		seen[c] = struct{}{}
	}
	return len(seen)
}

func sameHistogram(c1, c2 []uint64) bool {
	if len(c1) != len(c2) {
		return false
	}
	h := make(map[uint64]int, len(c1))
	for _, c := range c1 {
		h[c]++
	}
	for _, c := range c2 {
		h[c]--
		if h[c] < 0 {
			return false
		}
	}
	return true
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func mix(a, b uint64) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf, a)
	binary.BigEndian.PutUint64(buf[8:], b)
	_, _ = h.Write([]byte("individualised"))
	_, _ = h.Write(buf)
	return h.Sum64()
}
