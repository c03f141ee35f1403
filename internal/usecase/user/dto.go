package user

import (
	"encoding/json"
	"time"

	domain "user-table/internal/domain/user"
)

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	FirstName string `validate:"required,max=100"`
	Email     string `validate:"required,email"`
	Extra     map[string]json.RawMessage // any other attributes sent by the client
}

// UpdateUserRequest represents the request payload for updating an existing user.
// Empty fields keep their stored value; Extra keys are merged into the stored attributes.
type UpdateUserRequest struct {
	ID        int64  `validate:"required,gt=0"`
	FirstName string `validate:"omitempty,max=100"`
	Email     string `validate:"omitempty,email"`
	Extra     map[string]json.RawMessage
}

// ListUsersRequest represents the request payload for listing users.
// Limit 0 returns every match; a negative limit selects domain.DefaultLimit.
type ListUsersRequest struct {
	Query string
	Skip  int64
	Limit int64
}

// ListUsersResponse represents one window of the user collection.
type ListUsersResponse struct {
	Users  []domain.User
	Window domain.Window
}

// DeletedUser is the last state of a removed user.
type DeletedUser struct {
	User      domain.User
	DeletedOn time.Time
}
