package http

import (
	"errors"
	"net/http"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError is the single place business errors become HTTP status
// codes. Everything a service can return is recovered here; nothing
// propagates past the request boundary.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCodeFormat),
		errors.Is(err, service.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotSessionOwner):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionEnded):
		ErrorResponse(c, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCodeExhausted):
		// Transient: the caller may simply retry the create.
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
