package rdfio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/knakk/rdf"

	"evalgo.org/rmlconformance/internal/helpers"
)

// tripleFormat maps a file name to the knakk/rdf triple format.
func tripleFormat(path string) (rdf.Format, error) {
	switch helpers.GetFileType(path) {
	case helpers.FormatTurtle:
		return rdf.Turtle, nil
	case helpers.FormatNTriples:
		return rdf.NTriples, nil
	case helpers.FormatRDFXML:
		return rdf.RDFXML, nil
	}
	return 0, fmt.Errorf("no triple format for %s", filepath.Base(path))
}

// DecodeGraph reads all triples of r into a default graph.
func DecodeGraph(r io.Reader, f rdf.Format) (*Graph, error) {
	if f == rdf.Turtle {
		src, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(normalizeTurtle(src))
	}

	g := NewGraph(nil)
	dec := rdf.NewTripleDecoder(r, f)
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, err
		}
		g.Add(t)
	}
}

// DecodeDataset reads N-Quads from r. Quads without a graph label land in the
// default graph.
func DecodeDataset(r io.Reader) (*Dataset, error) {
	d := NewDataset()
	dec := rdf.NewQuadDecoder(r, rdf.NQuads)
	// knakk/rdf labels unnamed quads with a blank node by default.
	dec.DefaultGraph = nil
	for {
		q, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return d, nil
		}
		if err != nil {
			return nil, err
		}
		d.AddQuad(q)
	}
}

// ReadGraph parses a Turtle, N-Triples or RDF/XML file.
func ReadGraph(path string) (*Graph, error) {
	f, err := tripleFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	g, err := DecodeGraph(bufio.NewReader(file), f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return g, nil
}

// ReadDataset parses a dataset file. N-Quads files keep their graphs; triple
// formats are read into the default graph.
func ReadDataset(path string) (*Dataset, error) {
	if helpers.GetFileType(path) != helpers.FormatNQuads {
		g, err := ReadGraph(path)
		if err != nil {
			return nil, err
		}
		d := NewDataset()
		d.AddGraph(g)
		return d, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	d, err := DecodeDataset(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d, nil
}

// ReadOptionalDataset parses path, treating a missing file as an empty
// dataset.
func ReadOptionalDataset(path string) (*Dataset, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return NewDataset(), nil
	}
	return ReadDataset(path)
}

// WriteNQuads writes every quad of d, one per line.
func WriteNQuads(w io.Writer, d *Dataset) error {
	bw := bufio.NewWriter(w)
	for _, g := range d.Graphs() {
		for _, t := range g.Triples() {
			if _, err := bw.WriteString(TripleKey(t)); err != nil {
				return err
			}
			if g.Key() != DefaultGraphKey {
				if _, err := bw.WriteString(" " + g.Key()); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(" .\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteNTriples writes the triples of every graph of d, dropping graph names.
func WriteNTriples(w io.Writer, d *Dataset) error {
	bw := bufio.NewWriter(w)
	for _, g := range d.Graphs() {
		for _, t := range g.Triples() {
			if _, err := bw.WriteString(TripleKey(t) + " .\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteTurtle serializes g as Turtle.
func WriteTurtle(w io.Writer, g *Graph) error {
	enc := rdf.NewTripleEncoder(w, rdf.Turtle)
	for _, t := range g.Triples() {
		if err := enc.Encode(t); err != nil {
			return err
		}
	}
	return enc.Close()
}

// WriteGraphFile writes g to path as Turtle.
func WriteGraphFile(path string, g *Graph) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTurtle(file, g); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	return file.Close()
}

// WriteDatasetFile writes d next to stem, as N-Quads (stem.nq) when it has
// named graphs and as N-Triples (stem.nt) otherwise. It returns the path
// written.
func WriteDatasetFile(stem string, d *Dataset) (string, error) {
	path := stem + helpers.ExtNTrips
	write := WriteNTriples
	if d.HasNamedGraphs() {
		path = stem + helpers.ExtNQuads
		write = WriteNQuads
	}

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(file, d); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	return path, file.Close()
}

// Bytes serializes g as Turtle into memory.
func (g *Graph) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTurtle(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
