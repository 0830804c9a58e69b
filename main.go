// Package main provides the entry point of the RML conformance harness.
//
// The harness runs the RML test-case corpus against a mapping engine and
// reports every test case whose output is not isomorphic to the reference.
//
// Usage:
//
//	rmlconformance fetch
//	rmlconformance run --formats CSV,SPARQL
//
// Environment Variables:
//   - RMLCONF_ENGINE_COMMAND: mapping engine executable
//   - RMLCONF_TRIPLESTORE_URL: Fuseki server for SPARQL cases
//   - RMLCONF_SUITE_FORMATS: comma separated formats to run
package main

import (
	"os"

	"evalgo.org/rmlconformance/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
