package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type IEvent interface {
	EventHeader() EventHeader
}

type TicketIssued_v1 struct {
	Header EventHeader `json:"header"`

	TicketID      uuid.UUID `json:"ticket_id"`
	PerformanceID uuid.UUID `json:"performance_id"`
	AttendeeID    uuid.UUID `json:"attendee_id"`
	AttendeeEmail string    `json:"attendee_email"`

	PerformanceName string    `json:"performance_name"`
	StartDate       time.Time `json:"start_date"`

	// QRPayload is the canonical JSON embedded in the ticket's QR code.
	QRPayload string    `json:"qr_payload"`
	IssuedAt  time.Time `json:"issued_at"`
}

func (e TicketIssued_v1) EventHeader() EventHeader { return e.Header }

type TicketCancelled_v1 struct {
	Header EventHeader `json:"header"`

	TicketID       uuid.UUID    `json:"ticket_id"`
	PerformanceID  uuid.UUID    `json:"performance_id"`
	PreviousStatus TicketStatus `json:"previous_status"`
	CancelledAt    time.Time    `json:"cancelled_at"`
}

func (e TicketCancelled_v1) EventHeader() EventHeader { return e.Header }

type TicketRedeemed_v1 struct {
	Header EventHeader `json:"header"`

	TicketID      uuid.UUID `json:"ticket_id"`
	PerformanceID uuid.UUID `json:"performance_id"`
	RedeemedAt    time.Time `json:"redeemed_at"`
}

func (e TicketRedeemed_v1) EventHeader() EventHeader { return e.Header }

type TicketPrinted_v1 struct {
	Header EventHeader `json:"header"`

	TicketID      uuid.UUID `json:"ticket_id"`
	PerformanceID uuid.UUID `json:"performance_id"`
	FileName      string    `json:"file_name"`
}

func (e TicketPrinted_v1) EventHeader() EventHeader { return e.Header }

// DataLakeEvent is an event as stored in the append-only events table.
type DataLakeEvent struct {
	EventID      string          `db:"event_id"`
	PublishedAt  time.Time       `db:"published_at"`
	EventName    string          `db:"event_name"`
	EventPayload json.RawMessage `db:"event_payload"`
}
