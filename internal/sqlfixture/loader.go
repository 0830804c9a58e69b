package sqlfixture

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/domain"
)

// OpenFunc opens a database handle. It matches sql.Open.
type OpenFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Result summarizes a fixture load.
type Result struct {
	Statements int `json:"statements"`
	Failed     int `json:"failed"`
}

// Loader recreates the test database of one dialect and runs fixture scripts
// against it.
type Loader struct {
	Dialect Dialect
	Config  Config
	Open    OpenFunc
	Log     logrus.FieldLogger
}

// NewLoader returns a loader using sql.Open.
func NewLoader(d Dialect, cfg Config, log logrus.FieldLogger) *Loader {
	return &Loader{Dialect: d, Config: cfg, Open: sql.Open, Log: log}
}

// SplitStatements cuts a script on ";". Newlines are folded into spaces,
// blank statements dropped and the terminator re-appended.
func SplitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		part = strings.ReplaceAll(part, "\r\n", " ")
		part = strings.ReplaceAll(part, "\n", " ")
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		stmts = append(stmts, part+";")
	}
	return stmts
}

// Reset drops the test database if it exists and creates it again.
func (l *Loader) Reset(ctx context.Context) error {
	db, err := l.Open(l.Dialect.Driver, l.Dialect.AdminDSN(l.Config))
	if err != nil {
		return domain.NewOperationError("reset database", "connect failed", err)
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range []string{
		l.Dialect.DropStatement(l.Config.Database),
		l.Dialect.CreateStatement(l.Config.Database),
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return domain.NewOperationError("reset database", stmt, err)
		}
	}

	l.Log.WithFields(logrus.Fields{
		"dialect":  l.Dialect.String(),
		"database": l.Config.Database,
		"dsn":      RedactDSN(l.Dialect, l.Config, l.Dialect.AdminDatabase),
	}).Debug("database recreated")
	return nil
}

// Drop removes the test database.
func (l *Loader) Drop(ctx context.Context) error {
	db, err := l.Open(l.Dialect.Driver, l.Dialect.AdminDSN(l.Config))
	if err != nil {
		return domain.NewOperationError("drop database", "connect failed", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, l.Dialect.DropStatement(l.Config.Database)); err != nil {
		return domain.NewOperationError("drop database", l.Config.Database, err)
	}
	return nil
}

// Exec runs script statement by statement on the test database. A failing
// statement is logged and skipped; only connection failures are returned.
func (l *Loader) Exec(ctx context.Context, script string) (Result, error) {
	var res Result

	db, err := l.Open(l.Dialect.Driver, l.Dialect.DSN(l.Config, l.Config.Database))
	if err != nil {
		return res, domain.NewOperationError("load fixture", "connect failed", err)
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range SplitStatements(script) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Statements++
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			res.Failed++
			l.Log.WithFields(logrus.Fields{
				"dialect":   l.Dialect.String(),
				"statement": stmt,
			}).WithError(err).Warn("fixture statement failed")
		}
	}
	return res, nil
}

// Load recreates the test database and runs the script file at path.
func (l *Loader) Load(ctx context.Context, path string) (Result, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read fixture script: %w", err)
	}
	if err := l.Reset(ctx); err != nil {
		return Result{}, err
	}
	res, err := l.Exec(ctx, string(script))
	if err != nil {
		return res, err
	}

	l.Log.WithFields(logrus.Fields{
		"dialect":    l.Dialect.String(),
		"statements": res.Statements,
		"failed":     res.Failed,
	}).Info("fixture loaded")
	return res, nil
}
