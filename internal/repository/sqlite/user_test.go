package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/user-accounts/internal/apperror"
	"github.com/sakif/user-accounts/internal/model"
	"github.com/sakif/user-accounts/internal/repository"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" gives every test a fresh, migrated database that disappears
// when the connection closes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that creates an active user and fails the
// test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "$2a$04$not-a-real-hash",
		Status:       model.StatusActivate,
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username:     "root@gmail.com",
		PasswordHash: "$2a$04$hash",
		Status:       model.StatusActivate,
	}

	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
	if user.UpdatedAt.IsZero() {
		t.Error("Create() did not set user.UpdatedAt")
	}
}

func TestUserCreate_AssignsIncreasingIDs(t *testing.T) {
	db := newTestDB(t)

	first := createTestUser(t, db, "first")
	second := createTestUser(t, db, "second")

	if second.ID <= first.ID {
		t.Errorf("second.ID = %d, want > %d", second.ID, first.ID)
	}
}

func TestUserCreate_DuplicateActiveUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken")

	duplicate := &model.User{Username: "taken", PasswordHash: "x", Status: model.StatusActivate}
	err := db.Create(context.Background(), duplicate)

	if !errors.Is(err, apperror.ErrAlreadyExists) {
		t.Fatalf("Create() error = %v, want ErrAlreadyExists", err)
	}
}

// The unique index is partial: a soft-deleted account frees its username.
func TestUserCreate_UsernameOfDeletedUserIsReusable(t *testing.T) {
	db := newTestDB(t)
	old := createTestUser(t, db, "recycled")
	old.Status = model.StatusDeleted
	if err := db.Update(context.Background(), old); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	fresh := createTestUser(t, db, "recycled")

	if fresh.ID == old.ID {
		t.Fatal("expected a new row for the reused username")
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "getbyid_user")

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
	if found.Username != "getbyid_user" {
		t.Errorf("Username = %q, want %q", found.Username, "getbyid_user")
	}
	if found.PasswordHash != created.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, created.PasswordHash)
	}
	if found.Status != model.StatusActivate {
		t.Errorf("Status = %q, want %q", found.Status, model.StatusActivate)
	}
	if found.CreatedAt.IsZero() {
		t.Error("CreatedAt was not read back")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 999)

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "lookup")

	found, err := db.GetByUsername(context.Background(), "lookup")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestUserGetByUsername_PrefersActiveOverDeleted(t *testing.T) {
	db := newTestDB(t)
	old := createTestUser(t, db, "shared")
	old.Status = model.StatusDeleted
	if err := db.Update(context.Background(), old); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	current := createTestUser(t, db, "shared")

	found, err := db.GetByUsername(context.Background(), "shared")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if found.ID != current.ID {
		t.Errorf("GetByUsername() returned id %d, want active id %d", found.ID, current.ID)
	}
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByUsername(context.Background(), "ghost")

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// EXISTS TESTS
// =========================================================================

func TestUserExistsByID(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "exists")

	ok, err := db.ExistsByID(context.Background(), u.ID)
	if err != nil || !ok {
		t.Errorf("ExistsByID(%d) = %v, %v; want true, nil", u.ID, ok, err)
	}

	ok, err = db.ExistsByID(context.Background(), u.ID+100)
	if err != nil || ok {
		t.Errorf("ExistsByID(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestUserExistsByUsername(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	ghost := createTestUser(t, db, "ghost")
	ghost.Status = model.StatusDeleted
	if err := db.Update(context.Background(), ghost); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	tests := []struct {
		name      string
		username  string
		excludeID int64
		want      bool
	}{
		{"active user", "alice", 0, true},
		{"excluding itself", "alice", alice.ID, false},
		{"excluding someone else", "alice", ghost.ID, true},
		{"deleted user is ignored", "ghost", 0, false},
		{"unknown", "nobody", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ExistsByUsername(context.Background(), tt.username, tt.excludeID)
			if err != nil {
				t.Fatalf("ExistsByUsername() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExistsByUsername(%q, %d) = %v, want %v", tt.username, tt.excludeID, got, tt.want)
			}
		})
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestUserList_Empty(t *testing.T) {
	db := newTestDB(t)

	users, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", users)
	}
}

func TestUserList_OrderedByID(t *testing.T) {
	db := newTestDB(t)
	a := createTestUser(t, db, "a")
	b := createTestUser(t, db, "b")
	c := createTestUser(t, db, "c")

	users, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("List() returned %d users, want 3", len(users))
	}
	for i, want := range []int64{a.ID, b.ID, c.ID} {
		if users[i].ID != want {
			t.Errorf("users[%d].ID = %d, want %d", i, users[i].ID, want)
		}
	}
}

func TestUserList_FilterByStatus(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "active")
	idle := createTestUser(t, db, "idle")
	idle.Status = model.StatusInactivate
	if err := db.Update(context.Background(), idle); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	users, err := db.List(context.Background(), repository.ListOptions{Status: model.StatusInactivate})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 1 || users[0].ID != idle.ID {
		t.Errorf("List(INACTIVATE) = %+v, want only user %d", users, idle.ID)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "before")

	u.Username = "after"
	u.PasswordHash = "$2a$04$new"
	u.Status = model.StatusInactivate
	if err := db.Update(context.Background(), u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() after update error = %v", err)
	}
	if found.Username != "after" || found.PasswordHash != "$2a$04$new" || found.Status != model.StatusInactivate {
		t.Errorf("after update = %+v", found)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Update(context.Background(), &model.User{ID: 404, Username: "x", PasswordHash: "x", Status: model.StatusActivate})

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate_UsernameCollision(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "one")
	two := createTestUser(t, db, "two")

	two.Username = "one"
	err := db.Update(context.Background(), two)

	if !errors.Is(err, apperror.ErrAlreadyExists) {
		t.Errorf("Update() error = %v, want ErrAlreadyExists", err)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

// TestMigrationsAreIdempotent reruns goose against an already-migrated
// database; it must be a no-op.
func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}
