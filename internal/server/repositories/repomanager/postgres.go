// Package repomanager wires repository constructors and migrations together
// per database driver.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/server/migrations"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves one database/sql driver.
type SQLRepositoryManager struct {
	driver  string
	dialect users.Dialect
}

func NewPostgresRepositoryManager() *SQLRepositoryManager {
	return &SQLRepositoryManager{driver: "postgres", dialect: users.Postgres}
}

func NewSQLiteRepositoryManager() *SQLRepositoryManager {
	return &SQLRepositoryManager{driver: "sqlite", dialect: users.SQLite}
}

// New returns the manager for driver ("postgres" or "sqlite").
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case "postgres":
		return NewPostgresRepositoryManager(), nil
	case "sqlite":
		return NewSQLiteRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (m *SQLRepositoryManager) Driver() string { return m.driver }

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

// newRunner is a seam for tests.
var newRunner = func(db *sql.DB, driver string) (migrator, error) {
	return migrations.NewRunner(db, driver)
}

type migrator interface {
	Up(ctx context.Context) ([]int64, error)
}

// RunMigrations applies every pending embedded migration.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	r, err := newRunner(db, m.driver)
	if err != nil {
		return err
	}
	_, err = r.Up(ctx)
	return err
}

// Open connects to the database and checks it answers. sqlite gets a single
// connection: in-memory databases are per connection and writers serialize
// anyway.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var name string
	switch driver {
	case "postgres":
		name = "pgx"
	case "sqlite":
		name = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}
