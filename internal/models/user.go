package models

import "github.com/google/uuid"

// User is an account that can sit down at a game table.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	IsEphemeral bool `json:"is_ephemeral"`
}
