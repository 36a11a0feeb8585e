package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"boxoffice/entities"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusAndCode(err error) (int, string) {
	switch {
	case entities.IsTransient(err):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, entities.ErrPerformanceNotFound):
		return http.StatusNotFound, "performance_not_found"
	case errors.Is(err, entities.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found"
	case errors.Is(err, entities.ErrAttendeeNotFound):
		return http.StatusNotFound, "attendee_not_found"
	case errors.Is(err, entities.ErrSoldOut), errors.Is(err, entities.ErrNoCapacity):
		return http.StatusConflict, "sold_out"
	case errors.Is(err, entities.ErrDuplicateTicket):
		return http.StatusConflict, "duplicate_ticket"
	case errors.Is(err, entities.ErrTicketNotValid):
		return http.StatusConflict, "ticket_not_valid"
	case errors.Is(err, entities.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respondError writes err as a JSON error body. Internal errors are logged and
// their message is not exposed.
func respondError(c echo.Context, err error) error {
	status, code := statusAndCode(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(c.Request().Context()).WithError(err).Error("Request failed")
		message = http.StatusText(status)
	}

	return c.JSON(status, errorResponse{Code: code, Message: message})
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", entities.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func parseUUID(raw string, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidInput("%s must be a UUID", field)
	}
	return id, nil
}
