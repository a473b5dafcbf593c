package users

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect adapts the shared SQL to one driver.
type Dialect struct {
	Name string
	// Rebind rewrites $n placeholders for the driver.
	Rebind func(query string) string
	// IsUniqueViolation recognises the driver's unique constraint error.
	IsUniqueViolation func(err error) bool
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Postgres is the pgx dialect. Queries are used as written.
var Postgres = Dialect{
	Name:   "postgres",
	Rebind: func(q string) string { return q },
	IsUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	},
}

// SQLite is the modernc.org/sqlite dialect. Every query binds its
// placeholders once and in order, so $n can become a plain "?".
var SQLite = Dialect{
	Name:   "sqlite",
	Rebind: func(q string) string { return placeholder.ReplaceAllString(q, "?") },
	IsUniqueViolation: func(err error) bool {
		var sqErr *sqlite.Error
		if !errors.As(err, &sqErr) {
			return false
		}
		code := sqErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		// primary code only when extended codes are off
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), "UNIQUE")
	},
}
