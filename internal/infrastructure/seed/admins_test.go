package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

type stubIdentityService struct {
	ports.IdentityService
	existing map[string]bool
	got      []ports.RegisterInput
	err      error
}

func (s *stubIdentityService) Register(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	s.got = append(s.got, in)
	if s.err != nil {
		return nil, s.err
	}
	if s.existing[in.Email] {
		return nil, domain.ErrDuplicateIdentity
	}
	return &ports.AuthResult{}, nil
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admins.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

const seedBody = `
admins:
  - email: root@estatehub.test
    firstName: Root
    lastName: Admin
    password: change-me-1
    department: Platform
    employeeId: E-001
  - email: ops@estatehub.test
    firstName: Ops
    lastName: Admin
    password: change-me-2
    department: Operations
    employeeId: E-002
`

func TestAdminsFromFile(t *testing.T) {
	svc := &stubIdentityService{existing: map[string]bool{"ops@estatehub.test": true}}

	n, err := AdminsFromFile(context.Background(), svc, writeSeed(t, seedBody), zerolog.Nop())
	if err != nil {
		t.Fatalf("AdminsFromFile: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 created admin, got %d", n)
	}
	if len(svc.got) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(svc.got))
	}
	first := svc.got[0]
	if first.Role != "admin" || first.Department != "Platform" || first.EmployeeID != "E-001" {
		t.Fatalf("unexpected input %+v", first)
	}
}

func TestAdminsFromFile_Errors(t *testing.T) {
	if _, err := AdminsFromFile(context.Background(), &stubIdentityService{}, filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := AdminsFromFile(context.Background(), &stubIdentityService{}, writeSeed(t, "admins: [oops"), zerolog.Nop()); err == nil {
		t.Fatalf("expected parse error")
	}

	boom := errors.New("store down")
	_, err := AdminsFromFile(context.Background(), &stubIdentityService{err: boom}, writeSeed(t, seedBody), zerolog.Nop())
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
