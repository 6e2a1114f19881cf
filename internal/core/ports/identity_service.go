package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// RegisterInput carries a registration request. Role-specific fields are
// ignored for roles that do not use them.
type RegisterInput struct {
	Role      string
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string

	BusinessName      string
	LicenseNumber     string
	YearsOfExperience int

	Department string
	EmployeeID string
}

// LoginInput identifies an account by email or phone.
type LoginInput struct {
	Email    string
	Phone    string
	Password string
}

// AuthResult is returned by every successful registration and login.
type AuthResult struct {
	Token   string
	Session *domain.Session
	Profile *domain.Profile
}

// IdentityService is the identity and session resolver.
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	RegisterLegacy(ctx context.Context, store domain.StoreKind, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Profile(ctx context.Context, token string) (*domain.Profile, error)
	Lookup(ctx context.Context, store domain.StoreKind, id string) (*domain.Profile, error)
}
