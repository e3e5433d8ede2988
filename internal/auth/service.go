package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oftalmo/records/internal/domain/user"
	"github.com/oftalmo/records/internal/security"
)

type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) error
}

// Outcomes are reported to an optional observer, e.g. a metrics counter.
type LoginObserver func(result string)

type Service struct {
	users    UserFinder
	hasher   PasswordHasher
	tokens   *Manager
	observe  LoginObserver
	dummyPwd string
}

type LoginResult struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func NewService(users UserFinder, hasher PasswordHasher, tokens *Manager, observe LoginObserver) *Service {
	if observe == nil {
		observe = func(string) {}
	}

	s := &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		observe: observe,
	}

	// compared against when the user does not exist so both failure paths cost one bcrypt compare
	if h, err := hasher.HashPassword("unknown-user-placeholder"); err == nil {
		s.dummyPwd = h
	}

	return s
}

func (s *Service) HashPassword(plain string) (string, error) {
	return s.hasher.HashPassword(plain)
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.observe("error")
			return LoginResult{}, err
		}

		if s.dummyPwd != "" {
			_ = s.hasher.CheckPassword(s.dummyPwd, password)
		}
		slog.Default().DebugContext(ctx, "login_rejected", "username", username, "reason", "unknown_user")
		s.observe("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	err = s.hasher.CheckPassword(u.PasswordHash, password)
	if err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			slog.Default().WarnContext(ctx, "stored password hash unusable", "user_id", u.ID, "err", err)
		}
		slog.Default().DebugContext(ctx, "login_rejected", "username", username, "reason", "password_mismatch")
		s.observe("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.MintToken(u.ID, u.Username, u.Role)
	if err != nil {
		s.observe("error")
		return LoginResult{}, err
	}

	s.observe("success")
	return LoginResult{User: u, Token: token}, nil
}

func (s *Service) MintToken(userID, username string, role user.Role) (string, error) {
	return s.tokens.MintToken(userID, username, role)
}

func (s *Service) VerifyToken(token string) (Identity, error) {
	return s.tokens.VerifyToken(token)
}
