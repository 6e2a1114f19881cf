package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-api/internal/api/handler"
	"github.com/estatehub/marketplace-api/internal/api/metrics"
	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// ProfileResolver turns a session token into the owning profile.
type ProfileResolver interface {
	Profile(ctx context.Context, token string) (*domain.Profile, error)
}

// Auth validates the bearer token, loads the owning identity and injects its
// profile and role into the context. Token and account errors are returned
// unchanged for the API error handler to map.
func Auth(resolver ProfileResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.TokenValidationsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			profile, err := resolver.Profile(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues(validationResult(err)).Inc()
				return err
			}
			metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()

			c.Set(handler.CtxProfile, profile)
			c.Set(handler.CtxRole, string(profile.Role))

			return next(c)
		}
	}
}

func validationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrAccountDeactivated):
		return "deactivated"
	case errors.Is(err, domain.ErrIdentityNotFound):
		return "unknown_subject"
	}
	return "invalid"
}
