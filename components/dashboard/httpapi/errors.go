package httpapi

import (
	"errors"
	"net/http"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
)

// StatusForError maps command and store errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrMissingViewer), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, commands.ErrWidgetForbidden):
		return http.StatusForbidden
	case errors.Is(err, dashboard.ErrPresetRejected):
		return http.StatusConflict
	case errors.Is(err, commands.ErrNameRestricted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrStoreClosed), errors.Is(err, commands.ErrGuardUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
