package service

import (
	"strings"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

// registrationPlan describes where a registration writes and what it requires.
type registrationPlan struct {
	role    domain.Role
	primary domain.StoreKind
	// mirror is the legacy role-specific store that also receives a copy of the
	// record. Empty when no mirror write is needed.
	mirror domain.StoreKind
	// required lists role-specific fields on top of the universal ones.
	required []string
	// placeholderPhone synthesizes a phone when none is given, since the users
	// store requires a unique non-null phone even for roles without one.
	placeholderPhone bool
}

// unifiedPlans drive POST /api/auth/register.
var unifiedPlans = map[domain.Role]registrationPlan{
	domain.RoleUser: {
		role:     domain.RoleUser,
		primary:  domain.StoreUsers,
		required: []string{"phone"},
	},
	domain.RoleAgent: {
		role:     domain.RoleAgent,
		primary:  domain.StoreUsers,
		mirror:   domain.StoreAgents,
		required: []string{"phone", "businessName", "licenseNumber"},
	},
	domain.RoleAdmin: {
		role:             domain.RoleAdmin,
		primary:          domain.StoreUsers,
		mirror:           domain.StoreAdmins,
		required:         []string{"department", "employeeId"},
		placeholderPhone: true,
	},
}

// legacyPlans drive the pre-unification per-role endpoints.
var legacyPlans = map[domain.StoreKind]registrationPlan{
	domain.StoreUsers: {
		role:     domain.RoleUser,
		primary:  domain.StoreUsers,
		required: []string{"phone"},
	},
	domain.StoreAgents: {
		role:     domain.RoleAgent,
		primary:  domain.StoreAgents,
		required: []string{"phone", "businessName"},
	},
}

var universalFields = []string{"email", "firstName", "lastName", "password"}

func fieldValue(in ports.RegisterInput, field string) string {
	switch field {
	case "email":
		return in.Email
	case "phone":
		return in.Phone
	case "firstName":
		return in.FirstName
	case "lastName":
		return in.LastName
	case "password":
		return in.Password
	case "businessName":
		return in.BusinessName
	case "licenseNumber":
		return in.LicenseNumber
	case "department":
		return in.Department
	case "employeeId":
		return in.EmployeeID
	}
	return ""
}

// missing returns the blank fields among names. The password is not trimmed.
func missing(in ports.RegisterInput, names []string) []string {
	var out []string
	for _, name := range names {
		v := fieldValue(in, name)
		if name != "password" {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			out = append(out, name)
		}
	}
	return out
}

// validate checks universal fields first, then the role-specific ones.
func (p registrationPlan) validate(in ports.RegisterInput) error {
	if fields := missing(in, universalFields); len(fields) > 0 {
		return &domain.MissingFieldsError{Role: p.role, Fields: fields}
	}
	if fields := missing(in, p.required); len(fields) > 0 {
		return &domain.MissingFieldsError{Role: p.role, Fields: fields}
	}
	return nil
}
