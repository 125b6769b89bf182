package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/user-accounts/internal/apperror"
	"github.com/sakif/user-accounts/internal/model"
	"github.com/sakif/user-accounts/internal/repository"
)

var _ repository.UserRepository = (*Repository)(nil)

const userColumns = `id, username, password_hash, status, created_at, updated_at`

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

func (r *Repository) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return users, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", "id "+strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername returns the non-deleted holder of username if there is one,
// otherwise the most recent deleted account with it.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE username = $1
		 ORDER BY (status = 'DELETED'), id DESC
		 LIMIT 1`,
		username,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", "username "+username)
		}
		return nil, fmt.Errorf("postgres: getting user by username %q: %w", username, err)
	}
	return u, nil
}

func (r *Repository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: checking user %d exists: %w", id, err)
	}
	return exists, nil
}

func (r *Repository) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM users
			WHERE username = $1 AND status <> 'DELETED' AND id <> $2
		 )`,
		username, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: checking username %q exists: %w", username, err)
	}
	return exists, nil
}

// Create inserts user and reads the generated id and timestamps back with
// RETURNING.
func (r *Repository) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		user.Username, user.PasswordHash, string(user.Status),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("user", "username "+user.Username)
		}
		return fmt.Errorf("postgres: inserting user %q: %w", user.Username, err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET username = $1, password_hash = $2, status = $3, updated_at = now()
		 WHERE id = $4
		 RETURNING updated_at`,
		user.Username, user.PasswordHash, string(user.Status), user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("user", "id "+strconv.FormatInt(user.ID, 10))
		}
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("user", "username "+user.Username)
		}
		return fmt.Errorf("postgres: updating user %d: %w", user.ID, err)
	}
	return nil
}
