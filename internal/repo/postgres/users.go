package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oftalmo/records/internal/domain/user"
	"github.com/oftalmo/records/internal/observability"
)

type UsersRepo struct {
	db   DBTX
	prom *observability.Prom
}

func NewUsersRepo(db DBTX, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	var role string

	err := r.prom.ObserveDB("users.get_by_username", func() error {
		return r.db.QueryRow(
			ctx,
			`SELECT id, username, password_hash, name, role, created_at, updated_at
			 FROM users
			 WHERE username = $1`,
			username,
		).Scan(
			&u.ID,
			&u.Username,
			&u.PasswordHash,
			&u.Name,
			&role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO users (id, username, password_hash, name, role, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Username, u.PasswordHash, u.Name, string(u.Role), u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if IsUniqueViolation(err) {
		return user.ErrUsernameTaken
	}
	return err
}
