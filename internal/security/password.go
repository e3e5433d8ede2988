package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinCost     = 10
	MaxCost     = 12
	DefaultCost = 12
)

var ErrPasswordMismatch = errors.New("password does not match")

// Hasher hashes and compares passwords with bcrypt at a fixed work factor.
type Hasher struct {
	cost int
}

// NewHasher clamps cost into the accepted work factor range.
func NewHasher(cost int) *Hasher {
	if cost < MinCost {
		cost = MinCost
	}
	if cost > MaxCost {
		cost = MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int { return h.cost }

// HashPassword hashes a plain text password with bcrypt.
func (h *Hasher) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password in constant time.
func (h *Hasher) CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
