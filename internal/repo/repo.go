package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"demos/internal/db"
	"demos/internal/errs"
)

// Repo is the data access layer. Methods taking a Querier run against
// either the pool or an open transaction.
type Repo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// Querier is implemented by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var ErrNotFound = errs.ErrNotFound

// TimeLayout is the stored form of every timestamp column.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

func New(conn *sql.DB, dialect db.Dialect) Repo {
	return Repo{DB: conn, Dialect: dialect}
}

func (r Repo) q(query string) string {
	return db.Rebind(r.Dialect, query)
}

// FormatTime renders t in UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// mapErr turns datastore constraint failures into ConstraintViolationError.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23505", "23514":
			return errs.ConstraintViolationError{Constraint: pgErr.ConstraintName, Err: err}
		}
		return err
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) && sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return errs.ConstraintViolationError{Constraint: sqliteConstraint(sqErr), Err: err}
	}
	return err
}

// sqliteConstraint extracts what sqlite reports about the failed constraint;
// sqlite does not expose constraint names.
func sqliteConstraint(e *sqlite.Error) string {
	switch e.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return "foreign key"
	}
	msg := e.Error()
	if i := strings.Index(msg, "failed: "); i >= 0 {
		msg = msg[i+len("failed: "):]
		if j := strings.LastIndex(msg, " ("); j >= 0 {
			msg = msg[:j]
		}
		return msg
	}
	return ""
}
