// internal/database/user.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/inkwell/internal/auth"
	"github.com/jason-s-yu/inkwell/internal/models"
)

// ErrUserNotFound is returned when no row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// CreateUser hashes user.Password in place and inserts the row, assigning an id if missing.
func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Password != "" {
		hash, err := auth.HashPassword(user.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hash
	}

	q := `INSERT INTO users (id, email, password, username, is_ephemeral)
	      VALUES ($1, NULLIF($2, ''), $3, $4, $5)`
	if _, err := DB.Exec(ctx, q, user.ID, user.Email, user.Password, user.Username, user.IsEphemeral); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(ctx, `
	SELECT id, COALESCE(email, ''), COALESCE(password, ''), username, is_ephemeral
	FROM users WHERE email=$1`, email)
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(ctx, `
	SELECT id, COALESCE(email, ''), COALESCE(password, ''), username, is_ephemeral
	FROM users WHERE id=$1`, id)
}

func scanUser(ctx context.Context, q string, arg interface{}) (*models.User, error) {
	var u models.User
	err := DB.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Email, &u.Password, &u.Username, &u.IsEphemeral)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// AuthenticateUser loads the user by email and checks the password.
func AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	u, err := GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	ok, err := auth.VerifyPassword(password, u.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Password = ""
	return u, nil
}
