package userservice

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt hasher. A cost outside bcrypt's range falls back to the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), h.cost)
}

func (h *PasswordHasher) Compare(pwd string, hash []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(pwd))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}
