package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

var statusOf = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusServiceUnavailable},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
	{domain.ErrVendorUnavailable, http.StatusServiceUnavailable},
}

// errorStatus maps a service error to an HTTP status and the message shown
// to the client. Server-side failures are not described in detail.
func errorStatus(err error) (int, string) {
	for _, s := range statusOf {
		if !errors.Is(err, s.err) {
			continue
		}
		switch {
		case s.status >= http.StatusInternalServerError:
			return s.status, "service temporarily unavailable"
		case s.status == http.StatusNotFound:
			return s.status, "not found"
		case s.status == http.StatusForbidden:
			return s.status, "access denied"
		}
		return s.status, strings.TrimSuffix(err.Error(), ": "+s.err.Error())
	}
	return http.StatusInternalServerError, "internal server error"
}

func (h *Handler) writeError(c echo.Context, err error) error {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}
	return c.JSON(status, map[string]string{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
