package http

import (
	"context"

	"github.com/google/uuid"

	"boxoffice/app"
	"boxoffice/entities"
)

type Handler struct {
	issuance     TicketIssuer
	redemption   TicketRedeemer
	performances PerformanceRepository
	tickets      TicketReader
	attendance   AttendanceReadModel
	commandBus   CommandBus
}

type TicketIssuer interface {
	IssueTicket(ctx context.Context, in app.IssueTicketInput) (app.IssueTicketResult, error)
	CancelTicket(ctx context.Context, ticketID uuid.UUID) (entities.CancelledTicket, error)
}

type TicketRedeemer interface {
	Validate(ctx context.Context, ticketID uuid.UUID) (app.ValidationResult, error)
	Redeem(ctx context.Context, ticketID uuid.UUID) (entities.Ticket, error)
}

type PerformanceRepository interface {
	Create(ctx context.Context, performance entities.Performance) (entities.PerformanceCreateResponse, error)
	PerformanceByID(ctx context.Context, performanceID uuid.UUID) (entities.Performance, error)
	List(ctx context.Context) ([]entities.Performance, error)
}

type TicketReader interface {
	ListByPerformance(ctx context.Context, performanceID uuid.UUID) ([]entities.TicketView, error)
	ListByAttendee(ctx context.Context, attendeeID uuid.UUID) ([]entities.TicketView, error)
}

type AttendanceReadModel interface {
	AttendanceByPerformanceID(ctx context.Context, performanceID uuid.UUID) (entities.PerformanceAttendance, error)
}

type CommandBus interface {
	Send(ctx context.Context, cmd any) error
}
