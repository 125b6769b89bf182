// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// UserService takes a repository.UserRepository (interface), NOT a concrete
// store, so SQLite, Postgres and the in-memory fake used by the tests are
// interchangeable.
//
// ERROR CONTRACT:
// Every error returned from this package is an *apperror.AppError. Business
// rule failures (NotFound, AlreadyExists, InvalidInput, BadRequest) pass
// through untouched; anything else from storage is logged and wrapped with
// apperror.Internal so the handler can answer 500 without leaking details.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sakif/user-accounts/internal/apperror"
	"github.com/sakif/user-accounts/internal/auth"
	"github.com/sakif/user-accounts/internal/mapper"
	"github.com/sakif/user-accounts/internal/model"
	"github.com/sakif/user-accounts/internal/repository"
)

// MsgPasswordMismatch is returned when password and its confirmation differ.
const MsgPasswordMismatch = "Passwords do not match"

// UserService handles business logic for user accounts.
type UserService struct {
	repo      repository.UserRepository
	mapper    mapper.UserMapper
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a new UserService. All dependencies are injected;
// the caller decides which repository implementation backs it.
func NewUserService(repo repository.UserRepository, m mapper.UserMapper, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		mapper:    m,
		passwords: passwords,
		logger:    logger,
	}
}

// ListUsers returns every user ordered by id, optionally filtered by status.
func (s *UserService) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.UserResponse, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, apperror.BadRequest("status", fmt.Sprintf("unknown status %q", opts.Status))
	}

	users, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, s.storageError(err, "listing users")
	}
	return s.mapper.ToResponses(users), nil
}

// CreateUser registers a new active account.
//
// ORDER OF CHECKS:
//  1. password confirmation (no I/O)
//  2. username availability
//  3. hash + insert
//
// Nothing is written unless every check passes. The availability check and
// the insert are not atomic; the store's unique index catches the race and
// Create reports it as AlreadyExists.
func (s *UserService) CreateUser(ctx context.Context, username, password, confirmPassword string) (model.UserResponse, error) {
	if password != confirmPassword {
		return model.UserResponse{}, apperror.InvalidInput(MsgPasswordMismatch)
	}

	if err := s.ensureUsernameFree(ctx, username, 0); err != nil {
		return model.UserResponse{}, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Status:       model.StatusActivate,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return model.UserResponse{}, s.storageError(err, "creating user")
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)

	return s.mapper.ToResponse(user), nil
}

// FindByUsername looks a user up by username. Deleted accounts are still
// found when no live account holds the name.
func (s *UserService) FindByUsername(ctx context.Context, username string) (model.UserResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return model.UserResponse{}, s.storageError(err, "finding user by username")
	}
	return s.mapper.ToResponse(user), nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.UserResponse{}, s.storageError(err, "finding user by id")
	}
	return s.mapper.ToResponse(user), nil
}

// UpdateUser replaces the username and password of an existing user. The
// status is left as it is. Keeping one's own username is not a conflict.
func (s *UserService) UpdateUser(ctx context.Context, id int64, username, password string) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.UserResponse{}, s.storageError(err, "loading user for update")
	}

	if err := s.ensureUsernameFree(ctx, username, id); err != nil {
		return model.UserResponse{}, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user.Username = username
	user.PasswordHash = hash
	if err := s.repo.Update(ctx, user); err != nil {
		return model.UserResponse{}, s.storageError(err, "updating user")
	}

	s.logger.Info("user updated",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)

	return s.mapper.ToResponse(user), nil
}

// UpdateStatus moves a user to status. Any transition is allowed, including
// out of DELETED; bringing a deleted account back requires that no other
// live account has taken its username in the meantime.
func (s *UserService) UpdateStatus(ctx context.Context, id int64, status model.Status) (model.UserResponse, error) {
	if !status.Valid() {
		return model.UserResponse{}, apperror.BadRequest("status", fmt.Sprintf("unknown status %q", status))
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.UserResponse{}, s.storageError(err, "loading user for status change")
	}

	if user.Status == model.StatusDeleted && status != model.StatusDeleted {
		if err := s.ensureUsernameFree(ctx, user.Username, id); err != nil {
			return model.UserResponse{}, err
		}
	}

	previous := user.Status
	user.Status = status
	if err := s.repo.Update(ctx, user); err != nil {
		return model.UserResponse{}, s.storageError(err, "updating user status")
	}

	s.logger.Info("user status changed",
		slog.Int64("id", user.ID),
		slog.String("from", previous.String()),
		slog.String("status", status.String()),
	)

	return s.mapper.ToResponse(user), nil
}

// DeleteUser marks a user DELETED. The row is kept and stays retrievable by
// id. Deleting an already deleted user succeeds.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return s.storageError(err, "checking user exists")
	}
	if !exists {
		return apperror.NotFound("user", "id "+strconv.FormatInt(id, 10))
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.storageError(err, "loading user for delete")
	}

	user.Status = model.StatusDeleted
	if err := s.repo.Update(ctx, user); err != nil {
		return s.storageError(err, "deleting user")
	}

	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// ensureUsernameFree returns AlreadyExists when a live user other than
// excludeID holds username.
func (s *UserService) ensureUsernameFree(ctx context.Context, username string, excludeID int64) error {
	taken, err := s.repo.ExistsByUsername(ctx, username, excludeID)
	if err != nil {
		return s.storageError(err, "checking username availability")
	}
	if taken {
		return apperror.AlreadyExists("user", "username "+username)
	}
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperror.InvalidInput(fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return "", apperror.Internal("hashing password", err)
	}
	return hash, nil
}

// storageError passes business errors from the repository through and wraps
// everything else as internal. Only the latter is logged.
func (s *UserService) storageError(err error, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("storage failure",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return apperror.Internal(op, err)
}
