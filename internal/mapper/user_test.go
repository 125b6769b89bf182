package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/user-accounts/internal/model"
)

func TestToResponse(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &model.User{
		ID:           42,
		Username:     "root@gmail.com",
		PasswordHash: "$2a$04$hash",
		Status:       model.StatusInactivate,
		CreatedAt:    now,
		UpdatedAt:    now.Add(time.Minute),
	}

	got := New().ToResponse(u)

	assert.Equal(t, model.UserResponse{
		ID:        42,
		Username:  "root@gmail.com",
		Status:    model.StatusInactivate,
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	}, got)
}

func TestToResponses_PreservesOrder(t *testing.T) {
	users := []model.User{
		{ID: 3, Username: "c"},
		{ID: 1, Username: "a"},
		{ID: 2, Username: "b"},
	}

	got := New().ToResponses(users)

	if assert.Len(t, got, 3) {
		assert.Equal(t, int64(3), got[0].ID)
		assert.Equal(t, int64(1), got[1].ID)
		assert.Equal(t, int64(2), got[2].ID)
	}
}

func TestToResponses_NilIsEmptySlice(t *testing.T) {
	got := New().ToResponses(nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
