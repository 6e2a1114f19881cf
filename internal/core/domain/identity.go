package domain

import (
	"strings"
	"time"
)

// Role is the canonical account role carried by session tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// ParseRole resolves a requested role. An empty value means a plain user.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, true
	case RoleAgent:
		return RoleAgent, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the three canonical roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent || r == RoleAdmin
}

// StoreKind names one of the three credential record sets.
type StoreKind string

const (
	// StoreUsers is the unified primary store. Its records carry a role column.
	StoreUsers StoreKind = "users"
	// StoreAgents and StoreAdmins are the legacy role-specific stores.
	StoreAgents StoreKind = "agents"
	StoreAdmins StoreKind = "admins"
)

// ParseStoreKind accepts a store name or its singular role alias ("agent" -> agents).
func ParseStoreKind(s string) (StoreKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "users", "user":
		return StoreUsers, true
	case "agents", "agent":
		return StoreAgents, true
	case "admins", "admin":
		return StoreAdmins, true
	}
	return "", false
}

// ImpliedRole is the role of a legacy record, which has no role column.
func (k StoreKind) ImpliedRole() Role {
	switch k {
	case StoreAgents:
		return RoleAgent
	case StoreAdmins:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Identity is a credential record in any of the three stores.
type Identity struct {
	ID           string
	Store        StoreKind
	Role         Role
	Email        string
	Phone        string
	FirstName    string
	LastName     string
	PasswordHash string `json:"-"`

	BusinessName      string
	LicenseNumber     string
	YearsOfExperience int

	Department string
	EmployeeID string

	// PrimaryID links a legacy mirror record back to its users-store record.
	PrimaryID string

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the sanitized projection of an Identity returned to clients.
// It deliberately has no password field.
type Profile struct {
	ID                string    `json:"id"`
	Role              Role      `json:"role"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	BusinessName      string    `json:"businessName,omitempty"`
	LicenseNumber     string    `json:"licenseNumber,omitempty"`
	YearsOfExperience *int      `json:"yearsOfExperience,omitempty"`
	Department        string    `json:"department,omitempty"`
	EmployeeID        string    `json:"employeeId,omitempty"`
	Active            bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Project builds the client-facing profile of id annotated with role.
// Role-specific fields are only included for the matching role.
func Project(id *Identity, role Role) *Profile {
	p := &Profile{
		ID:        id.ID,
		Role:      role,
		Email:     id.Email,
		Phone:     id.Phone,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Active:    id.Active,
		CreatedAt: id.CreatedAt,
	}
	switch role {
	case RoleAgent:
		years := id.YearsOfExperience
		p.BusinessName = id.BusinessName
		p.LicenseNumber = id.LicenseNumber
		p.YearsOfExperience = &years
	case RoleAdmin:
		p.Department = id.Department
		p.EmployeeID = id.EmployeeID
	}
	return p
}

// Session is the identity asserted by a validated session token.
type Session struct {
	SubjectID string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
