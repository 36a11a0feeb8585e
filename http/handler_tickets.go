package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"boxoffice/app"
	"boxoffice/entities"
)

type issueTicketRequest struct {
	PerformanceID string `json:"performance_id"`
	Email         string `json:"email"`
}

type issueTicketResponse struct {
	Ticket           entities.Ticket `json:"ticket"`
	QRPayload        string          `json:"qr_payload"`
	NotificationSent bool            `json:"notification_sent"`
}

type validateTicketRequest struct {
	TicketID string `json:"ticket_id"`
}

type validateTicketResponse struct {
	Outcome app.ValidationOutcome `json:"outcome"`
	Reason  app.InvalidReason     `json:"reason,omitempty"`
	Ticket  *entities.TicketView  `json:"ticket,omitempty"`
}

type cancelTicketResponse struct {
	Ticket         entities.Ticket       `json:"ticket"`
	PreviousStatus entities.TicketStatus `json:"previous_status"`
}

func (h Handler) PostTickets(c echo.Context) error {
	var request issueTicketRequest
	if err := c.Bind(&request); err != nil {
		return respondError(c, invalidInput("malformed request body"))
	}

	performanceID, err := parseUUID(request.PerformanceID, "performance_id")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.issuance.IssueTicket(c.Request().Context(), app.IssueTicketInput{
		PerformanceID: performanceID,
		Email:         request.Email,
	})
	ticketIssuanceTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, issueTicketResponse{
		Ticket:           result.Ticket,
		QRPayload:        result.Ticket.QRPayload,
		NotificationSent: result.NotificationSent(),
	})
}

func (h Handler) DeleteTicket(c echo.Context) error {
	ticketID, err := parseUUID(c.Param("id"), "ticket id")
	if err != nil {
		return respondError(c, err)
	}

	cancelled, err := h.issuance.CancelTicket(c.Request().Context(), ticketID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, cancelTicketResponse{
		Ticket:         cancelled.Ticket,
		PreviousStatus: cancelled.PreviousStatus,
	})
}

func (h Handler) PostValidateTicket(c echo.Context) error {
	var request validateTicketRequest
	if err := c.Bind(&request); err != nil {
		return respondError(c, invalidInput("malformed request body"))
	}

	ticketID, err := parseUUID(request.TicketID, "ticket_id")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.redemption.Validate(c.Request().Context(), ticketID)
	if err != nil {
		return respondError(c, err)
	}
	ticketValidationTotal.WithLabelValues(string(result.Outcome), string(result.Reason)).Inc()

	response := validateTicketResponse{
		Outcome: result.Outcome,
		Reason:  result.Reason,
		Ticket:  result.Ticket,
	}

	switch result.Outcome {
	case app.OutcomeNotFound:
		return c.JSON(http.StatusNotFound, response)
	case app.OutcomeInvalid:
		return c.JSON(http.StatusBadRequest, response)
	default:
		return c.JSON(http.StatusOK, response)
	}
}

func (h Handler) PatchUseTicket(c echo.Context) error {
	ticketID, err := parseUUID(c.Param("id"), "ticket id")
	if err != nil {
		return respondError(c, err)
	}

	ticket, err := h.redemption.Redeem(c.Request().Context(), ticketID)
	ticketRedemptionTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ticket)
}

func (h Handler) PostResendTicket(c echo.Context) error {
	ticketID, err := parseUUID(c.Param("id"), "ticket id")
	if err != nil {
		return respondError(c, err)
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		idempotencyKey = "resend-" + ticketID.String()
	}

	cmd := entities.ResendTicketNotification_v1{
		Header:   entities.NewEventHeaderWithIdempotencyKey(idempotencyKey),
		TicketID: ticketID,
	}
	if err := h.commandBus.Send(c.Request().Context(), cmd); err != nil {
		return fmt.Errorf("failed to send ResendTicketNotification command: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}

func (h Handler) GetPerformanceTickets(c echo.Context) error {
	performanceID, err := parseUUID(c.Param("id"), "performance id")
	if err != nil {
		return respondError(c, err)
	}

	tickets, err := h.tickets.ListByPerformance(c.Request().Context(), performanceID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tickets)
}

func (h Handler) GetAttendeeTickets(c echo.Context) error {
	attendeeID, err := parseUUID(c.Param("id"), "attendee id")
	if err != nil {
		return respondError(c, err)
	}

	tickets, err := h.tickets.ListByAttendee(c.Request().Context(), attendeeID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tickets)
}
