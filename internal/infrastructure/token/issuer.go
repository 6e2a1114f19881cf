package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

var ErrEmptySecret = errors.New("token: signing secret is required")

// Claims is the JWT payload of a session token.
type Claims struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints and validates HS256 session tokens. Tokens are never stored;
// expiry is the only way a session ends.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Mint signs a token binding subjectID to role.
func (i *Issuer) Mint(subjectID string, role domain.Role) (string, *domain.Session, error) {
	now := i.now().UTC().Truncate(time.Second)
	expires := now.Add(i.ttl)

	claims := Claims{
		ID:   subjectID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, &domain.Session{
		SubjectID: subjectID,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

// Parse validates signature, algorithm and expiry. Expired tokens yield
// domain.ErrTokenExpired; every other failure yields domain.ErrTokenInvalid.
func (i *Issuer) Parse(tokenString string) (*domain.Session, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !tkn.Valid || claims.ID == "" {
		return nil, domain.ErrTokenInvalid
	}
	if !claims.Role.Valid() {
		return nil, domain.ErrTokenInvalid
	}

	session := &domain.Session{
		SubjectID: claims.ID,
		Role:      claims.Role,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
