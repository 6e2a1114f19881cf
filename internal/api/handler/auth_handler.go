package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-api/internal/api/metrics"
	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

type AuthHandler struct {
	identity ports.IdentityService
}

func NewAuthHandler(identity ports.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

func (r registerRequest) toInput() ports.RegisterInput {
	return ports.RegisterInput{
		Role:              r.Role,
		Email:             r.Email,
		Phone:             r.Phone,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Password:          r.Password,
		BusinessName:      r.BusinessName,
		LicenseNumber:     r.LicenseNumber,
		YearsOfExperience: r.YearsOfExperience,
		Department:        r.Department,
		EmployeeID:        r.EmployeeID,
	}
}

func bindRegister(c echo.Context) (registerRequest, error) {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return req, nil
}

// registrationResult labels the registrations_total metric.
func registrationResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return "duplicate"
	case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrPasswordTooLong):
		return "invalid"
	case errors.Is(err, domain.ErrRegistrationInProgress):
		return "in_progress"
	}
	return "error"
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrIdentityNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAccountDeactivated):
		return "deactivated"
	case errors.Is(err, domain.ErrMissingCredential), errors.Is(err, domain.ErrMissingFields):
		return "invalid"
	}
	return "error"
}

// Register creates an account in the unified users store. The role field
// selects user, agent or admin and defaults to user.
//
// @Summary      Register an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	req, err := bindRegister(c)
	if err != nil {
		return err
	}

	res, err := h.identity.Register(c.Request().Context(), req.toInput())
	role := string(domain.RoleUser)
	if res != nil {
		role = string(res.Profile.Role)
	} else if parsed, ok := domain.ParseRole(req.Role); ok {
		role = string(parsed)
	}
	metrics.RegistrationsTotal.WithLabelValues(role, registrationResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		Message: "registration successful",
		Token:   res.Token,
		User:    res.Profile,
	})
}

// RegisterUser creates a plain user through the legacy per-role endpoint.
//
// @Summary      Register a user (legacy)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register/user [post]
func (h *AuthHandler) RegisterUser(c echo.Context) error {
	return h.registerLegacy(c, domain.StoreUsers)
}

// RegisterAgent creates an agent in the legacy agents store.
//
// @Summary      Register an agent (legacy)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Agent details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register/agent [post]
func (h *AuthHandler) RegisterAgent(c echo.Context) error {
	return h.registerLegacy(c, domain.StoreAgents)
}

func (h *AuthHandler) registerLegacy(c echo.Context, store domain.StoreKind) error {
	req, err := bindRegister(c)
	if err != nil {
		return err
	}

	role := store.ImpliedRole()
	res, err := h.identity.RegisterLegacy(c.Request().Context(), store, req.toInput())
	metrics.RegistrationsTotal.WithLabelValues(string(role), registrationResult(err)).Inc()
	if err != nil {
		return err
	}

	resp := authResponse{Message: "registration successful", Token: res.Token}
	if role == domain.RoleAgent {
		resp.Agent = res.Profile
	} else {
		resp.User = res.Profile
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login authenticates by email or phone and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.identity.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Message: "login successful",
		Token:   res.Token,
		User:    res.Profile,
	})
}

// Profile returns the identity bound to the bearer token.
//
// @Summary      Current profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Lookup returns any identity by store and id. Admin only.
//
// @Summary      Look up an identity
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        store  path      string  true  "users, agents or admins"
// @Param        id     path      string  true  "Identity id"
// @Success      200    {object}  domain.Profile
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /api/admin/identities/{store}/{id} [get]
func (h *AuthHandler) Lookup(c echo.Context) error {
	store, ok := domain.ParseStoreKind(c.Param("store"))
	if !ok {
		return domain.ErrInvalidStore
	}

	p, err := h.identity.Lookup(c.Request().Context(), store, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
