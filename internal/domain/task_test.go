package domain

import (
	"errors"
	"testing"
)

func TestFormatFromID(t *testing.T) {
	tests := []struct {
		id     string
		want   Format
		wantOK bool
	}{
		{"RMLTC0001a-CSV", FormatCSV, true},
		{"RMLTC0009a-SPARQL", FormatSPARQL, true},
		{"RMLTC0002b-MySQL", FormatMySQL, true},
		{"RMLTC0002b-PostgreSQL", FormatPostgreSQL, true},
		{"RMLTC0002b-SQLServer", FormatSQLServer, true},
		{"RMLTC0002b-JSON", FormatJSON, true},
		{"RMLTC0002b-csv", "", false},
		{"RMLTC0002b-", "", false},
		{"RMLTC0002b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := FormatFromID(tt.id)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FormatFromID(%q) = %q, %v, want %q, %v", tt.id, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"csv", " SPARQL ", "CSV", "", "mysql"})
	if err != nil {
		t.Fatalf("ParseFormats() failed: %v", err)
	}
	want := []Format{FormatCSV, FormatSPARQL, FormatMySQL}
	if len(got) != len(want) {
		t.Fatalf("ParseFormats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseFormats()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	_, err = ParseFormats([]string{"parquet"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("ParseFormats(parquet) error = %v, want *ValidationError", err)
	}
}

func TestFormatKinds(t *testing.T) {
	for _, f := range AllFormats {
		if f.IsSQL() && f.IsFileBased() {
			t.Errorf("%s is both SQL and file based", f)
		}
	}
	if !FormatSQLServer.IsSQL() || FormatSPARQL.IsSQL() {
		t.Error("IsSQL() misclassifies formats")
	}
	if !FormatXML.IsFileBased() || FormatMySQL.IsFileBased() {
		t.Error("IsFileBased() misclassifies formats")
	}
}

func TestFixtureErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewFixtureError("RMLTC0001a-CSV", "output.nq", cause)
	if !errors.Is(err, cause) {
		t.Error("FixtureError does not unwrap to its cause")
	}
	if err.Error() != "fixture output.nq of RMLTC0001a-CSV: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
