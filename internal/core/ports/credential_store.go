package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// Probe is a uniqueness / lookup query: a logical OR over the non-empty fields.
type Probe struct {
	Email string
	Phone string
}

// Empty reports whether the probe would match nothing.
func (p Probe) Empty() bool { return p.Email == "" && p.Phone == "" }

// EmailOnly drops the phone half of the probe (the admins store has no phone index).
func (p Probe) EmailOnly() Probe { return Probe{Email: p.Email} }

// CredentialStore persists identities across the users, agents and admins
// record sets. Implementations must enforce per-store unique indexes on email
// and phone and report violations as domain.ErrDuplicateIdentity.
type CredentialStore interface {
	// FindByProbe returns the first record in store matching any probe field,
	// or domain.ErrIdentityNotFound. An empty probe never matches.
	FindByProbe(ctx context.Context, store domain.StoreKind, probe Probe) (*domain.Identity, error)
	// FindByID returns domain.ErrIdentityNotFound for unknown or malformed ids.
	FindByID(ctx context.Context, store domain.StoreKind, id string) (*domain.Identity, error)
	// Create inserts identity into store and returns it with ID and timestamps set.
	Create(ctx context.Context, store domain.StoreKind, identity *domain.Identity) (*domain.Identity, error)
	// Delete removes a record. Only used to compensate a failed legacy mirror write.
	Delete(ctx context.Context, store domain.StoreKind, id string) error
	Ping(ctx context.Context) error
}
