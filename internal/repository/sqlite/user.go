package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/user-accounts/internal/apperror"
	"github.com/sakif/user-accounts/internal/model"
	"github.com/sakif/user-accounts/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, password_hash, status, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u      model.User
		status string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Status = model.Status(status)
	return &u, nil
}

// isUniqueViolation reports whether err came from the unique index on
// active usernames.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// List returns users ordered by id, optionally filtered by status.
//
// rows.Close() is deferred immediately: an unclosed *sql.Rows keeps its
// connection out of the pool, and this pool has exactly one.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// GetByID retrieves a user by id.
// sql.ErrNoRows is translated to apperror.NotFound so the handler returns 404.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", "id "+strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by username. A deleted account may share its
// username with a newer one, so non-deleted rows sort first, then the newest.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE username = ?
		 ORDER BY (status = 'DELETED'), id DESC
		 LIMIT 1`,
		username,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", "username "+username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %q: %w", username, err)
	}
	return u, nil
}

func (db *DB) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user %d exists: %w", id, err)
	}
	return exists, nil
}

// ExistsByUsername checks non-deleted users only. Ids start at 1, so an
// excludeID of 0 excludes nothing.
func (db *DB) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM users
			WHERE username = ? AND status <> 'DELETED' AND id <> ?
		 )`,
		username, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking username %q exists: %w", username, err)
	}
	return exists, nil
}

// Create inserts a new user. The id comes from SQLite's AUTOINCREMENT and is
// read back with LastInsertId.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		string(user.Status),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("user", "username "+user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted user id: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Update overwrites the mutable columns. id and created_at never change.
// RowsAffected == 0 means the id does not exist.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, password_hash = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.PasswordHash,
		string(user.Status),
		now,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("user", "username "+user.Username)
		}
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", "id "+strconv.FormatInt(user.ID, 10))
	}

	user.UpdatedAt = now
	return nil
}
