package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"boxoffice/entities"
)

type InventoryStore interface {
	PerformanceByID(ctx context.Context, performanceID uuid.UUID) (entities.Performance, error)
	TryDecrement(ctx context.Context, performanceID uuid.UUID) (int, error)
	Increment(ctx context.Context, performanceID uuid.UUID) (int, error)
}

type AttendeeDirectory interface {
	FindOrCreate(ctx context.Context, email string) (entities.Attendee, error)
}

type TicketLedger interface {
	Exists(ctx context.Context, performanceID, attendeeID uuid.UUID) (bool, error)
	Create(ctx context.Context, ticket entities.Ticket) (entities.Ticket, error)
	MarkUsed(ctx context.Context, ticketID uuid.UUID, redeemedAt time.Time) (entities.Ticket, error)
	Cancel(ctx context.Context, ticketID uuid.UUID, cancelledAt time.Time) (entities.CancelledTicket, error)
	Void(ctx context.Context, ticketID uuid.UUID, voidedAt time.Time) error
	TicketByID(ctx context.Context, ticketID uuid.UUID) (entities.TicketView, error)
}

// Transactor runs fn in one store transaction. Store calls made with the
// context passed to fn take part in it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type QREncoder interface {
	Encode(payload []byte) ([]byte, error)
}

type NotificationSender interface {
	Send(ctx context.Context, notification entities.TicketNotification) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}
