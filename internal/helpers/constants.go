// Package helpers provides utility functions and constants for conformance runs.
package helpers

// Per test case file layout
const (
	MappingFile       = "mapping.ttl"
	MappingSPARQLFile = "mapping-sparql.ttl"
	MappingSQLFile    = "mapping-sql.ttl"
	ResourcePrefix    = "resource"
	ResourceSQLFile   = "resource.sql"
	ReferenceFile     = "output.nq"
	ProducedFileStem  = "output_pyrml"
	CatalogFile       = "metadata.nt"
	SuiteLockFile     = ".suite.lock"
	TempFileZipPrefix = "testsuite_"
	BenchmarkSuiteDir = "testsuite"
	BenchmarkCasesDir = "test-cases"
	BenchmarkFixDir   = "fix"
)

// File extensions
const (
	ExtRDF    = ".rdf"
	ExtXML    = ".xml"
	ExtTTL    = ".ttl"
	ExtNTrips = ".nt"
	ExtNQuads = ".nq"
	ExtSQL    = ".sql"
	ExtZip    = ".zip"
)

// RDF format types
const (
	FormatRDFXML   = "rdf-xml"
	FormatTurtle   = "turtle"
	FormatNTriples = "n-triples"
	FormatNQuads   = "n-quads"
	FormatUnknown  = "unknown"
)

// Well-known vocabulary IRIs
const (
	NSRDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSEARL     = "http://www.w3.org/ns/earl#"
	NSDCTerms  = "http://purl.org/dc/terms/"
	NSTestCase = "http://rml.io/ns/test-case/"
	NSD2RQ     = "http://www.wiwiss.fu-berlin.de/suhl/bizer/D2RQ/0.1#"
	NSSD       = "http://www.w3.org/ns/sparql-service-description#"

	RDFType         = NSRDF + "type"
	EARLTestCase    = NSEARL + "TestCase"
	DCIdentifier    = NSDCTerms + "identifier"
	DCDescription   = NSDCTerms + "description"
	TCIgnoreFail    = NSTestCase + "ignoreFail"
	D2RQDatabase    = NSD2RQ + "Database"
	D2RQJdbcDriver  = NSD2RQ + "jdbcDriver"
	D2RQJdbcDSN     = NSD2RQ + "jdbcDSN"
	D2RQPassword    = NSD2RQ + "password"
	SDEndpoint      = NSSD + "endpoint"
	EndpointPrefix  = "http://localhost:PORT/"
	EndpointSuffix  = "sparql"
	EndpointDSLabel = "ds"
)

// HTTP content types
const (
	ContentTypeTurtle = "text/turtle"
	ContentTypeForm   = "application/x-www-form-urlencoded"
)
