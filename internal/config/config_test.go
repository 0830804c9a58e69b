package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/rmlconformance/internal/domain"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, []domain.Format{domain.FormatCSV}, cfg.Formats())
	assert.Equal(t, "http://localhost:3030", cfg.Triplestore.URL)
	assert.Equal(t, "admin", cfg.Triplestore.Username)
	assert.Equal(t, 30*time.Second, cfg.Triplestore.Timeout)
	assert.Equal(t, "root", cfg.MySQL.User)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, "postgres", cfg.PostgreSQL.User)
	assert.Equal(t, "TestDB", cfg.SQLServer.Database)
	assert.Equal(t, "_pyRML_admin", cfg.SQLServer.MappingPassword)
	assert.Equal(t, []string{"{mapping}"}, cfg.Engine.Args)
	assert.False(t, cfg.SQL.DropAfter)
	assert.False(t, cfg.Suite.IRIify)
	assert.Len(t, cfg.Databases(), 3)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("RMLCONF_SUITE_FORMATS", "CSV,MySQL")
	t.Setenv("RMLCONF_MYSQL_PORT", "3307")
	t.Setenv("RMLCONF_SQL_DROP_AFTER", "true")
	t.Setenv("RMLCONF_TRIPLESTORE_TIMEOUT", "5s")

	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, []domain.Format{domain.FormatCSV, domain.FormatMySQL}, cfg.Formats())
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.True(t, cfg.SQL.DropAfter)
	assert.Equal(t, 5*time.Second, cfg.Triplestore.Timeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rmlconformance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`suite:
  formats: [SPARQL, PostgreSQL]
  only: [RMLTC0009a-PostgreSQL]
  strict: true
triplestore:
  url: http://fuseki:3030
engine:
  command: rmlmapper
  args: ["-m", "{mapping}", "-o", "{output}"]
  output: out.nq
`), 0600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, []domain.Format{domain.FormatSPARQL, domain.FormatPostgreSQL}, cfg.Formats())
	assert.Equal(t, []string{"RMLTC0009a-PostgreSQL"}, cfg.Suite.Only)
	assert.True(t, cfg.Suite.Strict)
	assert.Equal(t, "http://fuseki:3030", cfg.Triplestore.URL)
	assert.Equal(t, "rmlmapper", cfg.Engine.Command)
	assert.Equal(t, []string{"-m", "{mapping}", "-o", "{output}"}, cfg.Engine.Args)
	assert.Equal(t, "admin", cfg.Triplestore.Username, "unset keys keep their defaults")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		field string
	}{
		{"unknown format", "suite.formats", []string{"CSV", "Parquet"}, "suite.formats"},
		{"relative triplestore url", "triplestore.url", "localhost:3030", "triplestore.url"},
		{"ftp corpus url", "benchmark.url", "ftp://example.com/master.zip", "benchmark.url"},
		{"no engine", "engine.command", "", "engine.command"},
		{"no data dir", "suite.data-dir", "", "suite.data-dir"},
		{"bad log format", "log.format", "xml", "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}
