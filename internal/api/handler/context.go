package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// Context keys set by the Auth middleware.
const (
	CtxProfile = "profile"
	CtxRole    = "role"
)

// ctxProfile extracts the profile injected by the Auth middleware. A missing
// profile means the route was mounted without the middleware.
func ctxProfile(c echo.Context) (*domain.Profile, error) {
	p, _ := c.Get(CtxProfile).(*domain.Profile)
	if p == nil || p.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}
