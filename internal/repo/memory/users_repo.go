package memory

import (
	"context"
	"sync"

	"github.com/oftalmo/records/internal/domain/user"
)

// UsersRepo is an in-process user store keyed by username.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.Username]; ok {
		return user.ErrUsernameTaken
	}
	r.items[u.Username] = u
	return nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
