package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oftalmo/records/internal/domain/user"
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, u user.User) error
}

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
}

type SeedUser struct {
	Username string
	Password string
	Name     string
	Role     user.Role
}

// EnsureUser creates the seed user if it does not exist yet. It reports
// whether a user was created. Empty credentials are a no-op.
func EnsureUser(ctx context.Context, users UserStore, hasher PasswordHasher, seed SeedUser) (bool, error) {
	if seed.Username == "" || seed.Password == "" {
		return false, nil
	}

	if !seed.Role.Valid() {
		return false, user.ErrInvalidRole
	}

	// check if the user exists
	_, err := users.GetByUsername(ctx, seed.Username)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.HashPassword(seed.Password)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     seed.Username,
		PasswordHash: hash,
		Name:         seed.Name,
		Role:         seed.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = users.Create(ctx, u)
	if errors.Is(err, user.ErrUsernameTaken) {
		// another instance seeded it first
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
