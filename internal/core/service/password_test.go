package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	if h := NewBcryptHasher(4); h.cost != MinBcryptCost {
		t.Fatalf("expected cost %d, got %d", MinBcryptCost, h.cost)
	}
	if h := NewBcryptHasher(99); h.cost != bcrypt.MaxCost {
		t.Fatalf("expected cost %d, got %d", bcrypt.MaxCost, h.cost)
	}
	if h := NewBcryptHasher(12); h.cost != 12 {
		t.Fatalf("expected cost 12, got %d", h.cost)
	}
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(MinBcryptCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash equals plaintext")
	}
	if err := h.Compare(hash, "correct horse"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if err := h.Compare(hash, "correct horsf"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	other, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if other == hash {
		t.Fatalf("expected a fresh salt per hash")
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(MinBcryptCost)
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, domain.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 72)); err != nil {
		t.Fatalf("72 bytes must be accepted: %v", err)
	}
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(MinBcryptCost)
	err := h.Compare("not-a-hash", "pw")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("malformed hash must surface as an internal error, got %v", err)
	}
}

func TestBcryptHasher_CompareRejectsTailBeyondLimit(t *testing.T) {
	h := NewBcryptHasher(MinBcryptCost)
	pw := strings.Repeat("a", 72)
	hash, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := h.Compare(hash, pw); err != nil {
		t.Fatalf("Compare exact: %v", err)
	}
	for _, suffix := range []string{"b", "a", "xyz"} {
		if err := h.Compare(hash, pw+suffix); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("suffix %q: expected ErrInvalidCredentials, got %v", suffix, err)
		}
	}
}
