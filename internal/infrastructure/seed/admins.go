package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

type adminsFile struct {
	Admins []struct {
		Email      string `yaml:"email"`
		Phone      string `yaml:"phone"`
		FirstName  string `yaml:"firstName"`
		LastName   string `yaml:"lastName"`
		Password   string `yaml:"password"`
		Department string `yaml:"department"`
		EmployeeID string `yaml:"employeeId"`
	} `yaml:"admins"`
}

// AdminsFromFile registers every admin listed in the YAML file at path through
// the unified registration flow. Entries that already exist are skipped. It
// returns the number of admins created.
func AdminsFromFile(ctx context.Context, svc ports.IdentityService, path string, log zerolog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read admin seed: %w", err)
	}
	var f adminsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse admin seed: %w", err)
	}

	created := 0
	for _, a := range f.Admins {
		_, err := svc.Register(ctx, ports.RegisterInput{
			Role:       string(domain.RoleAdmin),
			Email:      a.Email,
			Phone:      a.Phone,
			FirstName:  a.FirstName,
			LastName:   a.LastName,
			Password:   a.Password,
			Department: a.Department,
			EmployeeID: a.EmployeeID,
		})
		switch {
		case err == nil:
			created++
			log.Info().Str("email", a.Email).Msg("seeded admin")
		case errors.Is(err, domain.ErrDuplicateIdentity):
			continue
		default:
			return created, fmt.Errorf("seed admin %q: %w", a.Email, err)
		}
	}
	return created, nil
}
