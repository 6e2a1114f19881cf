package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

func TestNewIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestIssuer_MintAndParse(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss, err := NewIssuer("secret", 0, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	signed, minted, err := iss.Mint("abc123", domain.RoleAgent)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if !minted.ExpiresAt.Equal(now.Add(DefaultTTL)) {
		t.Fatalf("expected default 7 day ttl, got %v", minted.ExpiresAt.Sub(minted.IssuedAt))
	}

	session, err := iss.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if session.SubjectID != "abc123" || session.Role != domain.RoleAgent {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.IssuedAt.Equal(now) {
		t.Fatalf("unexpected issued at: %v", session.IssuedAt)
	}
}

func TestIssuer_ExpiredToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := now
	iss, _ := NewIssuer("secret", time.Hour, WithClock(func() time.Time { return clock }))

	signed, _, err := iss.Mint("abc123", domain.RoleUser)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	clock = now.Add(time.Hour + time.Second)
	if _, err := iss.Parse(signed); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestIssuer_WrongSecret(t *testing.T) {
	a, _ := NewIssuer("secret-a", time.Hour)
	b, _ := NewIssuer("secret-b", time.Hour)

	signed, _, _ := a.Mint("abc123", domain.RoleUser)
	if _, err := b.Parse(signed); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssuer_RejectsOtherAlgorithms(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Hour)
	claims := Claims{
		ID:   "abc123",
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := iss.Parse(signed); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssuer_RejectsMissingExpiry(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: "abc123", Role: domain.RoleUser}).
		SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := iss.Parse(signed); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssuer_RejectsUnknownRole(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Hour)
	claims := Claims{
		ID:   "abc123",
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if _, err := iss.Parse(signed); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssuer_Garbage(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Hour)
	if _, err := iss.Parse("not-a-token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
