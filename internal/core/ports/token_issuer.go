package ports

import "github.com/estatehub/marketplace-api/internal/core/domain"

// TokenIssuer mints and validates stateless session tokens.
type TokenIssuer interface {
	Mint(subjectID string, role domain.Role) (string, *domain.Session, error)
	// Parse returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
	Parse(token string) (*domain.Session, error)
}

// PasswordHasher derives and checks one-way salted password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns domain.ErrInvalidCredentials on mismatch.
	Compare(hash, password string) error
}
