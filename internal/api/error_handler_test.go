package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/pkg/logger"
)

func render(t *testing.T, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid json: %v", jerr)
	}
	return rec.Code, body
}

func TestHTTPErrorHandler_DomainMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrDuplicateIdentity, http.StatusBadRequest},
		{domain.ErrMissingCredential, http.StatusBadRequest},
		{domain.ErrInvalidStore, http.StatusBadRequest},
		{domain.ErrPasswordTooLong, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrTokenInvalid, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrAccountDeactivated, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrIdentityNotFound, http.StatusNotFound},
		{domain.ErrRegistrationInProgress, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.ErrDuplicateIdentity), http.StatusBadRequest},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		code, _ := render(t, tt.err)
		if code != tt.code {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.code, code)
		}
	}
}

func TestHTTPErrorHandler_TokenMessagesDiffer(t *testing.T) {
	_, expired := render(t, domain.ErrTokenExpired)
	_, invalid := render(t, domain.ErrTokenInvalid)
	if expired.Error == invalid.Error {
		t.Fatalf("expired and invalid tokens must be distinguishable, both %q", expired.Error)
	}
}

func TestHTTPErrorHandler_MissingFields(t *testing.T) {
	code, body := render(t, &domain.MissingFieldsError{Role: domain.RoleAgent, Fields: []string{"phone", "licenseNumber"}})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body.Role != "agent" || len(body.Fields) != 2 || body.Fields[1] != "licenseNumber" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHTTPErrorHandler_UnknownErrorIsOpaque(t *testing.T) {
	code, body := render(t, errors.New("mongo: connection pool exhausted"))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body.Error != "internal server error" {
		t.Fatalf("internal cause leaked: %q", body.Error)
	}
}

func TestHTTPErrorHandler_LogsWithRequestLogger(t *testing.T) {
	var scoped, base bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithRequestID(req.Context(), zerolog.New(&scoped), "01HREQID"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.New(&base))(errors.New("mongo: connection reset"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(scoped.String(), `"request_id":"01HREQID"`) || base.Len() != 0 {
		t.Fatalf("unhandled error must be logged with the request logger, got scoped=%q base=%q", scoped.String(), base.String())
	}
	if strings.Contains(rec.Body.String(), "mongo") {
		t.Fatalf("cause leaked to client: %s", rec.Body.String())
	}
}
