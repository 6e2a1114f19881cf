package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

// IdentityService resolves registrations, logins and profiles across the
// users, agents and admins stores. It holds no per-request state.
type IdentityService struct {
	store  ports.CredentialStore
	tokens ports.TokenIssuer
	hasher ports.PasswordHasher
	lock   ports.RegistrationLock
	audit  ports.AuditPublisher
	log    zerolog.Logger

	legacyLoginErrors bool
	lockWait          time.Duration
	now               func() time.Time
	placeholderPhone  func() string

	dummyOnce sync.Once
	dummyHash string
}

const (
	// DefaultLockWait bounds how long a registration waits for a competing
	// registration of the same email or phone to finish.
	DefaultLockWait   = 2 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// Option configures optional collaborators of IdentityService.
type Option func(*IdentityService)

// WithRegistrationLock serializes registrations sharing an email or phone.
func WithRegistrationLock(lock ports.RegistrationLock) Option {
	return func(s *IdentityService) { s.lock = lock }
}

// WithLockWait sets how long Register retries a held registration lock before
// giving up with domain.ErrRegistrationInProgress. Zero disables retrying.
func WithLockWait(d time.Duration) Option {
	return func(s *IdentityService) {
		if d < 0 {
			d = 0
		}
		s.lockWait = d
	}
}

// WithAuditPublisher sends register/login events to the audit trail.
func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *IdentityService) { s.audit = p }
}

// WithLegacyLoginErrors makes Login report unknown accounts as
// domain.ErrIdentityNotFound instead of domain.ErrInvalidCredentials.
func WithLegacyLoginErrors(enabled bool) Option {
	return func(s *IdentityService) { s.legacyLoginErrors = enabled }
}

func NewIdentityService(
	store ports.CredentialStore,
	tokens ports.TokenIssuer,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
	opts ...Option,
) *IdentityService {
	s := &IdentityService{
		store:  store,
		tokens: tokens,
		hasher:   hasher,
		log:      log,
		lockWait: DefaultLockWait,
		now:    func() time.Time { return time.Now().UTC() },
		placeholderPhone: func() string {
			return "admin-" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register handles the unified registration endpoint. An empty role registers
// a plain user.
func (s *IdentityService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, &domain.MissingFieldsError{Role: domain.Role(in.Role), Fields: []string{"role"}}
	}
	return s.register(ctx, unifiedPlans[role], in)
}

// RegisterLegacy handles the per-role endpoints that predate the unified
// users store. Only the users and agents stores accept legacy registrations.
func (s *IdentityService) RegisterLegacy(ctx context.Context, store domain.StoreKind, in ports.RegisterInput) (*ports.AuthResult, error) {
	plan, ok := legacyPlans[store]
	if !ok {
		return nil, domain.ErrInvalidStore
	}
	return s.register(ctx, plan, in)
}

func (s *IdentityService) register(ctx context.Context, plan registrationPlan, in ports.RegisterInput) (*ports.AuthResult, error) {
	if err := plan.validate(in); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)
	if phone == "" && plan.placeholderPhone {
		phone = s.placeholderPhone()
	}

	probe := ports.Probe{Email: email, Phone: phone}
	release, err := s.acquire(ctx, probe)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureUnique(ctx, probe); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	identity := &domain.Identity{
		Store:        plan.primary,
		Role:         plan.role,
		Email:        email,
		Phone:        phone,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch plan.role {
	case domain.RoleAgent:
		identity.BusinessName = strings.TrimSpace(in.BusinessName)
		identity.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
		identity.YearsOfExperience = in.YearsOfExperience
	case domain.RoleAdmin:
		identity.Department = strings.TrimSpace(in.Department)
		identity.EmployeeID = strings.TrimSpace(in.EmployeeID)
	}

	created, err := s.store.Create(ctx, plan.primary, identity)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("register %s: %w", plan.role, err)
	}

	if plan.mirror != "" {
		if err := s.writeMirror(ctx, plan.mirror, created); err != nil {
			return nil, err
		}
	}

	token, session, err := s.tokens.Mint(created.ID, plan.role)
	if err != nil {
		return nil, fmt.Errorf("register %s: mint token: %w", plan.role, err)
	}

	s.publish(domain.AuthEvent{
		Type:       domain.EventRegister,
		SubjectID:  created.ID,
		Role:       plan.role,
		Store:      plan.primary,
		Identifier: email,
	})
	s.log.Info().
		Str("subject_id", created.ID).
		Str("role", string(plan.role)).
		Str("store", string(plan.primary)).
		Msg("identity registered")

	return &ports.AuthResult{
		Token:   token,
		Session: session,
		Profile: domain.Project(created, plan.role),
	}, nil
}

// acquire takes the registration lock for the probe keys. A held lock is
// retried for up to lockWait so that, once the holder commits, the caller's
// duplicate probe reports ErrDuplicateIdentity. Lock infrastructure failures
// are logged and the request proceeds on the store's unique indexes.
func (s *IdentityService) acquire(ctx context.Context, probe ports.Probe) (func(), error) {
	noop := func() {}
	if s.lock == nil {
		return noop, nil
	}
	keys := make([]string, 0, 2)
	if probe.Email != "" {
		keys = append(keys, "email:"+probe.Email)
	}
	if probe.Phone != "" {
		keys = append(keys, "phone:"+probe.Phone)
	}
	release, err := s.lock.Acquire(ctx, keys...)
	if errors.Is(err, domain.ErrRegistrationInProgress) && s.lockWait > 0 {
		release, err = s.retryAcquire(ctx, keys)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationInProgress) {
			return noop, domain.ErrRegistrationInProgress
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return noop, ctxErr
		}
		s.log.Warn().Err(err).Msg("registration lock unavailable, relying on store constraints")
		return noop, nil
	}
	return release, nil
}

func (s *IdentityService) retryAcquire(ctx context.Context, keys []string) (func(), error) {
	deadline := time.NewTimer(s.lockWait)
	defer deadline.Stop()
	tick := time.NewTicker(lockRetryInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, domain.ErrRegistrationInProgress
		case <-tick.C:
		}
		release, err := s.lock.Acquire(ctx, keys...)
		if !errors.Is(err, domain.ErrRegistrationInProgress) {
			return release, err
		}
	}
}

// ensureUnique probes every store in registration order. The admins store is
// probed by email only. An empty probe skips the check.
func (s *IdentityService) ensureUnique(ctx context.Context, probe ports.Probe) error {
	for _, kind := range registrationProbeOrder {
		p := probe
		if kind == domain.StoreAdmins {
			p = p.EmailOnly()
		}
		if p.Empty() {
			continue
		}
		_, err := s.store.FindByProbe(ctx, kind, p)
		switch {
		case err == nil:
			return domain.ErrDuplicateIdentity
		case errors.Is(err, domain.ErrIdentityNotFound):
			continue
		default:
			return fmt.Errorf("duplicate check %s: %w", kind, err)
		}
	}
	return nil
}

// writeMirror copies a freshly created users record into its legacy store.
// On failure the primary record is removed so the account is not half-created.
func (s *IdentityService) writeMirror(ctx context.Context, store domain.StoreKind, primary *domain.Identity) error {
	mirror := *primary
	mirror.ID = ""
	mirror.Store = store
	mirror.PrimaryID = primary.ID

	if _, err := s.store.Create(ctx, store, &mirror); err != nil {
		if delErr := s.store.Delete(ctx, primary.Store, primary.ID); delErr != nil {
			s.log.Error().Err(delErr).
				Str("subject_id", primary.ID).
				Msg("failed to roll back primary record after mirror write failure")
		}
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("legacy mirror %s: %w", store, err)
	}
	return nil
}

// Login authenticates by email or phone. Stores are searched in
// loginLookupOrder and the first match wins.
func (s *IdentityService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	probe := ports.Probe{
		Email: domain.NormalizeEmail(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	if probe.Empty() {
		return nil, domain.ErrMissingCredential
	}
	if in.Password == "" {
		return nil, &domain.MissingFieldsError{Fields: []string{"password"}}
	}

	identifier := probe.Email
	if identifier == "" {
		identifier = probe.Phone
	}

	identity, err := s.locate(ctx, probe)
	if err != nil {
		if !errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, err
		}
		s.equalizeTiming(in.Password)
		s.publishFailure(identifier, "not_found")
		if s.legacyLoginErrors {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(identity.PasswordHash, in.Password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.publishFailure(identifier, "bad_password")
		}
		return nil, err
	}

	role := resolveRole(identity)
	if !identity.Active {
		s.publishFailure(identifier, "deactivated")
		return nil, domain.ErrAccountDeactivated
	}

	token, session, err := s.tokens.Mint(identity.ID, role)
	if err != nil {
		return nil, fmt.Errorf("login: mint token: %w", err)
	}

	s.publish(domain.AuthEvent{
		Type:       domain.EventLogin,
		SubjectID:  identity.ID,
		Role:       role,
		Store:      identity.Store,
		Identifier: identifier,
	})

	return &ports.AuthResult{
		Token:   token,
		Session: session,
		Profile: domain.Project(identity, role),
	}, nil
}

func (s *IdentityService) locate(ctx context.Context, probe ports.Probe) (*domain.Identity, error) {
	for _, kind := range loginLookupOrder {
		p := probe
		if kind == domain.StoreAdmins {
			p = p.EmailOnly()
		}
		if p.Empty() {
			continue
		}
		identity, err := s.store.FindByProbe(ctx, kind, p)
		if err == nil {
			return identity, nil
		}
		if !errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, fmt.Errorf("login lookup %s: %w", kind, err)
		}
	}
	return nil, domain.ErrIdentityNotFound
}

// equalizeTiming spends one bcrypt comparison so that unknown accounts take as
// long to reject as wrong passwords.
func (s *IdentityService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("timing-equalizer")
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare timing hash")
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// resolveRole reads the role column of unified records and falls back to the
// role implied by a legacy store.
func resolveRole(identity *domain.Identity) domain.Role {
	if identity.Store == domain.StoreUsers {
		if identity.Role == "" {
			return domain.RoleUser
		}
		return identity.Role
	}
	return identity.Store.ImpliedRole()
}

// Profile validates token and returns the owning identity. The role comes from
// the token, since legacy records have no role column.
func (s *IdentityService) Profile(ctx context.Context, token string) (*domain.Profile, error) {
	session, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	identity, err := s.resolveSubject(ctx, session)
	if err != nil {
		return nil, err
	}
	if !identity.Active {
		return nil, domain.ErrAccountDeactivated
	}
	return domain.Project(identity, session.Role), nil
}

// resolveSubject looks the subject up in the users store first, then in the
// legacy store matching the token role.
func (s *IdentityService) resolveSubject(ctx context.Context, session *domain.Session) (*domain.Identity, error) {
	identity, err := s.store.FindByID(ctx, domain.StoreUsers, session.SubjectID)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, fmt.Errorf("profile: %w", err)
	}

	var fallback domain.StoreKind
	switch session.Role {
	case domain.RoleAgent:
		fallback = domain.StoreAgents
	case domain.RoleAdmin:
		fallback = domain.StoreAdmins
	default:
		return nil, domain.ErrIdentityNotFound
	}

	identity, err = s.store.FindByID(ctx, fallback, session.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return identity, nil
}

// Lookup returns the sanitized record with id in store.
func (s *IdentityService) Lookup(ctx context.Context, store domain.StoreKind, id string) (*domain.Profile, error) {
	switch store {
	case domain.StoreUsers, domain.StoreAgents, domain.StoreAdmins:
	default:
		return nil, domain.ErrInvalidStore
	}
	identity, err := s.store.FindByID(ctx, store, id)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("lookup %s: %w", store, err)
	}
	return domain.Project(identity, resolveRole(identity)), nil
}

func (s *IdentityService) publish(event domain.AuthEvent) {
	if s.audit == nil {
		return
	}
	event.OccurredAt = s.now()
	s.audit.Publish(event)
}

func (s *IdentityService) publishFailure(identifier, reason string) {
	s.publish(domain.AuthEvent{
		Type:       domain.EventLoginFailed,
		Identifier: identifier,
		Reason:     reason,
	})
}
