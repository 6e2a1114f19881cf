package service

import "github.com/estatehub/marketplace-api/internal/core/domain"

// Store probe orders. The first match wins, so the order is policy: when a
// phone or email exists in more than one legacy store, login resolves it to
// the earliest store in loginLookupOrder.
var (
	registrationProbeOrder = []domain.StoreKind{domain.StoreUsers, domain.StoreAgents, domain.StoreAdmins}
	loginLookupOrder       = []domain.StoreKind{domain.StoreUsers, domain.StoreAdmins, domain.StoreAgents}
)

// RegistrationProbeOrder returns the store order of the registration duplicate check.
func RegistrationProbeOrder() []domain.StoreKind {
	return append([]domain.StoreKind(nil), registrationProbeOrder...)
}

// LoginLookupOrder returns the store order used to locate an account at login.
func LoginLookupOrder() []domain.StoreKind {
	return append([]domain.StoreKind(nil), loginLookupOrder...)
}
