package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// MinBcryptCost is the lowest work factor accepted for stored hashes.
const MinBcryptCost = 10

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// BcryptHasher implements ports.PasswordHasher.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into [MinBcryptCost, bcrypt.MaxCost].
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports domain.ErrInvalidCredentials on mismatch. Inputs longer
// than maxPasswordBytes never match, since bcrypt would ignore the tail.
func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if len(password) > maxPasswordBytes {
		if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("compare password: %w", err)
		}
		return domain.ErrInvalidCredentials
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	return fmt.Errorf("compare password: %w", err)
}
