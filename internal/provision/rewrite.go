package provision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knakk/rdf"

	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/rdfio"
)

// EndpointIndex extracts the resource index from a placeholder SPARQL
// endpoint such as http://localhost:PORT/ds2/sparql. A bare endpoint without
// a dataset number refers to index 0, dsN to N-1.
func EndpointIndex(endpoint string) (int, error) {
	ds := strings.TrimPrefix(endpoint, helpers.EndpointPrefix)
	ds = strings.TrimSuffix(ds, helpers.EndpointSuffix)
	ds = strings.TrimSuffix(ds, "/")
	n := strings.TrimPrefix(ds, helpers.EndpointDSLabel)
	if n == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 {
		return 0, fmt.Errorf("unrecognised endpoint %q", endpoint)
	}
	return i - 1, nil
}

// ResourceIndex derives the index of a resource file from its name:
// resource.ttl is 0, resourceN.ttl is N-1.
func ResourceIndex(file string) (int, error) {
	n := strings.TrimPrefix(file, helpers.ResourcePrefix)
	n = strings.TrimSuffix(n, helpers.ExtTTL)
	if n == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 {
		return 0, fmt.Errorf("unrecognised resource file %q", file)
	}
	return i - 1, nil
}

// RewriteEndpoints replaces every sd:endpoint object of the mapping with the
// URL of the dataset holding the resource it refers to. It returns the
// number of rewritten endpoints.
func RewriteEndpoints(mapping *rdfio.Graph, graphs []GraphResource) (int, error) {
	byIndex := make(map[int]GraphResource, len(graphs))
	for _, g := range graphs {
		byIndex[g.Index] = g
	}

	var replaced []rdf.Triple
	for _, t := range mapping.Match(func(t rdf.Triple) bool { return t.Pred.String() == helpers.SDEndpoint }) {
		idx, err := EndpointIndex(t.Obj.String())
		if err != nil {
			return 0, err
		}
		res, ok := byIndex[idx]
		if !ok {
			return 0, fmt.Errorf("endpoint %s refers to resource %d, only %d loaded", t.Obj.String(), idx, len(graphs))
		}
		iri, err := rdf.NewIRI(res.URL)
		if err != nil {
			return 0, err
		}
		replaced = append(replaced, rdf.Triple{Subj: t.Subj, Pred: t.Pred, Obj: iri})
	}

	mapping.Remove(func(t rdf.Triple) bool { return t.Pred.String() == helpers.SDEndpoint })
	for _, t := range replaced {
		mapping.Add(t)
	}
	return len(replaced), nil
}

// Connection is the database connection a mapping should use for one JDBC
// driver class.
type Connection struct {
	DSN      string
	Password string
}

// RewriteConnections replaces the d2rq:jdbcDSN and d2rq:password of every
// d2rq:Database whose d2rq:jdbcDriver has an entry in conns. It returns the
// number of rewritten databases.
func RewriteConnections(mapping *rdfio.Graph, conns map[string]Connection) (int, error) {
	rewritten := 0
	for _, db := range mapping.Subjects(helpers.RDFType, helpers.D2RQDatabase) {
		drivers := mapping.Objects(db, helpers.D2RQJdbcDriver)
		if len(drivers) == 0 {
			continue
		}
		conn, ok := conns[drivers[0].String()]
		if !ok {
			continue
		}

		dsn, err := rdf.NewLiteral(conn.DSN)
		if err != nil {
			return rewritten, err
		}
		pwd, err := rdf.NewLiteral(conn.Password)
		if err != nil {
			return rewritten, err
		}

		dbKey := rdfio.TermKey(db)
		mapping.Remove(func(t rdf.Triple) bool {
			if rdfio.TermKey(t.Subj) != dbKey {
				return false
			}
			p := t.Pred.String()
			return p == helpers.D2RQJdbcDSN || p == helpers.D2RQPassword
		})
		dsnPred, _ := rdf.NewIRI(helpers.D2RQJdbcDSN)
		pwdPred, _ := rdf.NewIRI(helpers.D2RQPassword)
		mapping.Add(rdf.Triple{Subj: db, Pred: dsnPred, Obj: dsn})
		mapping.Add(rdf.Triple{Subj: db, Pred: pwdPred, Obj: pwd})
		rewritten++
	}
	return rewritten, nil
}
