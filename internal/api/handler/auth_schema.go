package handler

import "github.com/estatehub/marketplace-api/internal/core/domain"

// --- Request / Response types ---

// Required fields are enforced by the identity service, which knows the
// role-specific rules. Tags here only check the shape of what was sent.
type registerRequest struct {
	Role              string `json:"role"              validate:"omitempty,oneof=user agent admin"`
	Email             string `json:"email"             validate:"omitempty,email"`
	Phone             string `json:"phone"             validate:"omitempty,max=32"`
	FirstName         string `json:"firstName"         validate:"omitempty,max=100"`
	LastName          string `json:"lastName"          validate:"omitempty,max=100"`
	Password          string `json:"password"`
	BusinessName      string `json:"businessName"      validate:"omitempty,max=200"`
	LicenseNumber     string `json:"licenseNumber"     validate:"omitempty,max=100"`
	YearsOfExperience int    `json:"yearsOfExperience" validate:"gte=0,lte=80"`
	Department        string `json:"department"        validate:"omitempty,max=100"`
	EmployeeID        string `json:"employeeId"        validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"omitempty,email"`
	Phone    string `json:"phone"    validate:"omitempty,max=32"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *domain.Profile `json:"user,omitempty"`
	Agent   *domain.Profile `json:"agent,omitempty"`
}

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Error  string   `json:"error"`
	Role   string   `json:"role,omitempty"`
	Fields []string `json:"fields,omitempty"`
}
