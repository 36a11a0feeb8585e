package app

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"boxoffice/clock"
	"boxoffice/entities"
)

type ValidationOutcome string

const (
	OutcomeValid    ValidationOutcome = "valid"
	OutcomeNotFound ValidationOutcome = "not_found"
	OutcomeInvalid  ValidationOutcome = "invalid"
)

type InvalidReason string

const (
	ReasonUsed      InvalidReason = "used"
	ReasonCancelled InvalidReason = "cancelled"
	ReasonExpired   InvalidReason = "expired"
)

type ValidationResult struct {
	Outcome ValidationOutcome
	Reason  InvalidReason

	// Ticket is set unless Outcome is OutcomeNotFound.
	Ticket *entities.TicketView
}

type RedemptionService struct {
	tickets TicketLedger
	clock   clock.Clock
}

func NewRedemptionService(tickets TicketLedger, clk clock.Clock) *RedemptionService {
	if tickets == nil {
		panic("missing tickets")
	}
	if clk == nil {
		panic("missing clock")
	}

	return &RedemptionService{
		tickets: tickets,
		clock:   clk,
	}
}

// Validate reports whether a ticket can be admitted. It never changes the
// ticket; err is only set when the store fails.
func (s *RedemptionService) Validate(ctx context.Context, ticketID uuid.UUID) (result ValidationResult, err error) {
	ctx, span := tracer.Start(ctx, "RedemptionService.Validate", trace.WithAttributes(
		attribute.String("ticket_id", ticketID.String()),
	))
	defer func() {
		span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
		endSpan(span, err)
	}()

	ticket, err := s.tickets.TicketByID(ctx, ticketID)
	if errors.Is(err, entities.ErrTicketNotFound) {
		return ValidationResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return ValidationResult{}, err
	}

	result = ValidationResult{Outcome: OutcomeValid, Ticket: &ticket}

	switch {
	case ticket.Status == entities.TicketStatusUsed:
		result.Outcome, result.Reason = OutcomeInvalid, ReasonUsed
	case ticket.Status == entities.TicketStatusCancelled:
		result.Outcome, result.Reason = OutcomeInvalid, ReasonCancelled
	case ticket.PerformanceStarted(s.clock.Now()):
		result.Outcome, result.Reason = OutcomeInvalid, ReasonExpired
	}

	return result, nil
}

// Redeem marks a valid ticket as used. A ticket can be redeemed once; later
// calls fail with ErrTicketNotValid.
func (s *RedemptionService) Redeem(ctx context.Context, ticketID uuid.UUID) (ticket entities.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "RedemptionService.Redeem", trace.WithAttributes(
		attribute.String("ticket_id", ticketID.String()),
	))
	defer func() { endSpan(span, err) }()

	ticket, err = s.tickets.MarkUsed(ctx, ticketID, s.clock.Now())
	if err != nil {
		return entities.Ticket{}, err
	}

	log.FromContext(ctx).WithField("ticket_id", ticketID).Info("Ticket redeemed")

	return ticket, nil
}
