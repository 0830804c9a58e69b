// Package domain defines the core domain types for conformance test cases.
package domain

import (
	"fmt"
	"strings"
)

// Format is the fixture format of a test case. It is decided once, from the
// identifier suffix, when the catalog is loaded.
type Format string

// Supported fixture formats.
//
// File-based formats (CSV, JSON, XML) need no provisioning. SPARQL cases load
// their resources into a triplestore; the SQL formats load resource.sql into a
// freshly created database.
const (
	FormatCSV        Format = "CSV"
	FormatJSON       Format = "JSON"
	FormatXML        Format = "XML"
	FormatSPARQL     Format = "SPARQL"
	FormatMySQL      Format = "MySQL"
	FormatPostgreSQL Format = "PostgreSQL"
	FormatSQLServer  Format = "SQLServer"
)

// AllFormats lists every known format in a stable order.
var AllFormats = []Format{
	FormatCSV,
	FormatJSON,
	FormatXML,
	FormatSPARQL,
	FormatMySQL,
	FormatPostgreSQL,
	FormatSQLServer,
}

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	for _, f := range AllFormats {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", NewValidationError("format", fmt.Sprintf("unknown fixture format %q", s))
}

// ParseFormats resolves a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool)
	formats := make([]Format, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// FormatFromID returns the format encoded by the suffix of a test case
// identifier, e.g. "RMLTC0001a-CSV" -> CSV.
func FormatFromID(id string) (Format, bool) {
	i := strings.LastIndex(id, "-")
	if i < 0 || i == len(id)-1 {
		return "", false
	}
	suffix := id[i+1:]
	for _, f := range AllFormats {
		if string(f) == suffix {
			return f, true
		}
	}
	return "", false
}

// IsSQL reports whether the format is backed by a relational database.
func (f Format) IsSQL() bool {
	switch f {
	case FormatMySQL, FormatPostgreSQL, FormatSQLServer:
		return true
	}
	return false
}

// IsFileBased reports whether the format reads plain local files.
func (f Format) IsFileBased() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatXML:
		return true
	}
	return false
}

// TestCase is a single entry of the conformance catalog.
//
// The ID doubles as the name of the test case directory below the test-cases
// root.
type TestCase struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	IgnoreFail  bool   `json:"ignore_fail"`
	Format      Format `json:"format"`
}

func (tc TestCase) String() string {
	return tc.ID
}
