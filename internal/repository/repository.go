// Package repository defines the storage contract the service layer depends
// on. Implementations live in sub-packages (sqlite, postgres).
package repository

import (
	"context"

	"github.com/sakif/user-accounts/internal/model"
)

// ListOptions filters List. The zero value returns every record.
type ListOptions struct {
	Status model.Status // empty = any status
}

// UserRepository is the single source of truth for user records.
//
// Lookups that find nothing return an apperror wrapping ErrNotFound.
// Create and Update return an apperror wrapping ErrAlreadyExists when the
// store's unique index on active usernames rejects the write. Anything else
// is a raw, wrapped driver error.
type UserRepository interface {
	// List returns matching users ordered by ascending id.
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername prefers a non-deleted match over deleted ones.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// ExistsByUsername only considers non-deleted users. A non-zero
	// excludeID leaves that record out of the check.
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	// Create inserts user, filling ID, CreatedAt and UpdatedAt in place.
	Create(ctx context.Context, user *model.User) error
	// Update writes username, password hash and status, refreshing UpdatedAt.
	Update(ctx context.Context, user *model.User) error
	Ping(ctx context.Context) error
	Close() error
}
