// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle flag of a user account. Deletion is logical:
// a deleted user keeps its row and carries StatusDeleted.
type Status string

const (
	StatusActivate   Status = "ACTIVATE"
	StatusInactivate Status = "INACTIVATE"
	StatusDeleted    Status = "DELETED"
)

// Statuses lists every valid status, in declaration order.
var Statuses = []Status{StatusActivate, StatusInactivate, StatusDeleted}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActivate, StatusInactivate, StatusDeleted:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus converts a symbolic name into a Status. Matching is exact and
// case-sensitive; surrounding whitespace is ignored.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// User is the persisted account record.
//
// WHY PasswordHash AND json:"-"?
// Only a bcrypt hash is ever stored, and the "-" tag keeps it out of every
// JSON encoding, so the record can never leak its secret even if a handler
// were to encode it directly.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Status       Status    `json:"status"    db:"status"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserResponse is the public representation of a user returned by the API.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
