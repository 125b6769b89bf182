// Package postgres implements repository.UserRepository on PostgreSQL using
// the pgx driver through database/sql. Migrations are embedded and applied
// with goose when the repository is opened.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Repository is a PostgreSQL-backed user store.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an existing pool. It does not run migrations.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open connects to dsn, verifies the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	r := NewRepository(db)
	if err := r.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return r, nil
}

// RunMigrations applies every pending embedded migration.
func (r *Repository) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, r.db, "migrations")
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
