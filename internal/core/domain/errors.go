package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingFields          = errors.New("missing required fields")
	ErrDuplicateIdentity      = errors.New("email or phone already registered")
	ErrMissingCredential      = errors.New("email or phone is required")
	ErrIdentityNotFound       = errors.New("identity not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrTokenInvalid           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")
	ErrAccountDeactivated     = errors.New("account is deactivated")
	ErrRegistrationInProgress = errors.New("registration already in progress")
	ErrInvalidStore           = errors.New("unknown identity store")
	ErrForbidden              = errors.New("access forbidden")
	ErrPasswordTooLong        = errors.New("password must be at most 72 bytes")
)

// MissingFieldsError names the fields a registration for Role lacked.
type MissingFieldsError struct {
	Role   Role
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("%v: %s", ErrMissingFields, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%v for %s: %s", ErrMissingFields, e.Role, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingFields }
