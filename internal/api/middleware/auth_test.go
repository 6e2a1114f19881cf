package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-api/internal/api/handler"
	"github.com/estatehub/marketplace-api/internal/core/domain"
)

type stubResolver struct {
	profile *domain.Profile
	err     error
	token   string
}

func (s *stubResolver) Profile(_ context.Context, token string) (*domain.Profile, error) {
	s.token = token
	return s.profile, s.err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{profile: &domain.Profile{ID: "u1", Role: domain.RoleAgent}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth(resolver)
	next := mw(func(c echo.Context) error {
		called = true
		if c.Get(handler.CtxRole) != "agent" {
			t.Fatalf("role not set")
		}
		p, _ := c.Get(handler.CtxProfile).(*domain.Profile)
		if p == nil || p.ID != "u1" {
			t.Fatalf("profile not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := next(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if resolver.token != "abc.def.ghi" {
		t.Fatalf("unexpected token passed to resolver: %q", resolver.token)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(&stubResolver{})
	next := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := next(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "Bearer    "} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		mw := Auth(&stubResolver{})
		next := mw(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := next(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthMiddleware_ResolverErrorsPassThrough(t *testing.T) {
	for _, want := range []error{domain.ErrTokenExpired, domain.ErrTokenInvalid, domain.ErrAccountDeactivated} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		c := e.NewContext(req, httptest.NewRecorder())

		mw := Auth(&stubResolver{err: want})
		next := mw(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := next(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestValidationResult(t *testing.T) {
	cases := map[error]string{
		domain.ErrTokenExpired:       "expired",
		domain.ErrTokenInvalid:       "invalid",
		domain.ErrAccountDeactivated: "deactivated",
		domain.ErrIdentityNotFound:   "unknown_subject",
	}
	for err, want := range cases {
		if got := validationResult(err); got != want {
			t.Fatalf("%v: expected %q, got %q", err, want, got)
		}
	}
}
