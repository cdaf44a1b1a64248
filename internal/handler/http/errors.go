package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CodeWizard-AB/realtime-chat/internal/service"
)

// HandleServiceError maps the service error taxonomy onto HTTP statuses:
// 400 invalid input, 403 reserved name or rate limit, 409 lock contention or
// duplicate ownership, 404 unknown room, 410 expired room, 500 everything
// else (upload and store failures included; neither is the client's fault).
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReservedUsername), errors.Is(err, service.ErrRateLimited):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUsernameBusy), errors.Is(err, service.ErrActiveRoomExists):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRoomExpired):
		ErrorResponse(c, http.StatusGone, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled service error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
