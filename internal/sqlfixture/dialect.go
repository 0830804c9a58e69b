// Package sqlfixture creates the relational databases used by SQL test cases
// and fills them from the resource.sql script of each case.
package sqlfixture

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"evalgo.org/rmlconformance/internal/domain"
)

// Dialect describes how to reach and administer one database server kind.
type Dialect struct {
	Format domain.Format
	// Driver is the database/sql driver name.
	Driver string
	// JDBCDriver is the driver class mappings name in d2rq:jdbcDriver.
	JDBCDriver string
	// AdminDatabase is the database connected to while dropping and
	// creating the test database. Empty means none.
	AdminDatabase string

	quote func(string) string
}

// Known dialects.
var (
	MySQL = Dialect{
		Format:     domain.FormatMySQL,
		Driver:     "mysql",
		JDBCDriver: "com.mysql.cj.jdbc.Driver",
		quote:      func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
	}
	PostgreSQL = Dialect{
		Format:        domain.FormatPostgreSQL,
		Driver:        "pgx",
		JDBCDriver:    "org.postgresql.Driver",
		AdminDatabase: "postgres",
		quote:         func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
	}
	SQLServer = Dialect{
		Format:        domain.FormatSQLServer,
		Driver:        "sqlserver",
		JDBCDriver:    "com.microsoft.sqlserver.jdbc.SQLServerDriver",
		AdminDatabase: "master",
		quote:         func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
	}
)

// Dialects lists the known dialects.
var Dialects = []Dialect{MySQL, PostgreSQL, SQLServer}

// DialectFor returns the dialect serving a SQL format.
func DialectFor(f domain.Format) (Dialect, bool) {
	for _, d := range Dialects {
		if d.Format == f {
			return d, true
		}
	}
	return Dialect{}, false
}

func (d Dialect) String() string { return string(d.Format) }

// Config holds the connection settings of one database server.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// MappingDSN and MappingPassword replace the placeholder connection in
	// the mapping so the engine reaches the provisioned database.
	MappingDSN      string `mapstructure:"mapping-dsn"`
	MappingPassword string `mapstructure:"mapping-password"`
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the driver connection string for database on the server of
// cfg. An empty database connects to the server without selecting one.
func (d Dialect) DSN(cfg Config, database string) string {
	switch d.Format {
	case domain.FormatMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.addr()
		mc.DBName = database
		return mc.FormatDSN()

	case domain.FormatPostgreSQL:
		parts := []string{
			"host=" + pgQuote(cfg.Host),
			"port=" + strconv.Itoa(cfg.Port),
			"user=" + pgQuote(cfg.User),
			"password=" + pgQuote(cfg.Password),
			"sslmode=disable",
		}
		if database != "" {
			parts = append(parts, "dbname="+pgQuote(database))
		}
		return strings.Join(parts, " ")

	case domain.FormatSQLServer:
		u := url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   cfg.addr(),
		}
		if database != "" {
			u.RawQuery = url.Values{"database": {database}}.Encode()
		}
		return u.String()
	}
	return ""
}

// AdminDSN connects to the administrative database of the server.
func (d Dialect) AdminDSN(cfg Config) string {
	return d.DSN(cfg, d.AdminDatabase)
}

// DropStatement drops database if it exists.
func (d Dialect) DropStatement(database string) string {
	return fmt.Sprintf("DROP DATABASE IF EXISTS %s", d.quote(database))
}

// CreateStatement creates database.
func (d Dialect) CreateStatement(database string) string {
	return fmt.Sprintf("CREATE DATABASE %s", d.quote(database))
}

// RedactDSN hides the password of a DSN for logging.
func RedactDSN(d Dialect, cfg Config, database string) string {
	cfg.Password = strings.Repeat("x", len(cfg.Password))
	return d.DSN(cfg, database)
}

func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
