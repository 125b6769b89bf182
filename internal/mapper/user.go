// Package mapper converts between the persisted user record and its public
// representation. Conversions are pure and stateless.
package mapper

import "github.com/sakif/user-accounts/internal/model"

// UserMapper is the capability the service uses to build responses.
type UserMapper interface {
	ToResponse(u *model.User) model.UserResponse
	ToResponses(users []model.User) []model.UserResponse
}

// compile-time check that defaultMapper implements UserMapper
var _ UserMapper = defaultMapper{}

type defaultMapper struct{}

// New returns the default UserMapper.
func New() UserMapper {
	return defaultMapper{}
}

// ToResponse copies every public field. The password hash is never copied.
func (defaultMapper) ToResponse(u *model.User) model.UserResponse {
	return model.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToResponses maps a slice, preserving order. It never returns nil, so an
// empty result encodes as [] rather than null.
func (m defaultMapper) ToResponses(users []model.User) []model.UserResponse {
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, m.ToResponse(&users[i]))
	}
	return out
}
