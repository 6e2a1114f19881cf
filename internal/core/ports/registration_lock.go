package ports

import "context"

// RegistrationLock serializes concurrent registrations that share an email or
// phone. Acquire returns domain.ErrRegistrationInProgress when another request
// holds any of the keys. The returned release func is always safe to call.
type RegistrationLock interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}
