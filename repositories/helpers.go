package repositories

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/fogna/football-stats/db"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rebind rewrites "?" placeholders to "$1..$n" for postgres.
// Queries in this package never contain literal question marks.
func rebind(driver, query string) string {
	if driver != db.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func intArg(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func stringArg(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
