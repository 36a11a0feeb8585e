package entities

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusValid     TicketStatus = "valid"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Counted reports whether a ticket in this status holds a unit of capacity.
func (s TicketStatus) Counted() bool {
	return s == TicketStatusValid || s == TicketStatusUsed
}

type Ticket struct {
	TicketID      uuid.UUID    `json:"ticket_id" db:"ticket_id"`
	PerformanceID uuid.UUID    `json:"performance_id" db:"performance_id"`
	AttendeeID    uuid.UUID    `json:"attendee_id" db:"attendee_id"`
	Status        TicketStatus `json:"status" db:"status"`
	QRPayload     string       `json:"-" db:"qr_payload"`

	IssuedAt    time.Time  `json:"issued_at" db:"issued_at"`
	RedeemedAt  *time.Time `json:"redeemed_at,omitempty" db:"redeemed_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// TicketView is a ticket joined with the display fields of its performance and attendee.
type TicketView struct {
	Ticket

	PerformanceName string    `json:"performance_name" db:"performance_name"`
	Category        string    `json:"category" db:"category"`
	StartDate       time.Time `json:"start_date" db:"start_date"`
	ScheduleTime    string    `json:"schedule_time" db:"schedule_time"`
	AttendeeEmail   string    `json:"attendee_email" db:"attendee_email"`
}

// PerformanceStarted reports whether the performance start is strictly before now.
func (t TicketView) PerformanceStarted(now time.Time) bool {
	return t.StartDate.Before(now)
}

type CancelledTicket struct {
	Ticket         Ticket
	PreviousStatus TicketStatus
}

// Transitioned is false when the ticket was already cancelled.
func (c CancelledTicket) Transitioned() bool {
	return c.PreviousStatus != TicketStatusCancelled
}
