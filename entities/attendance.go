package entities

import (
	"time"

	"github.com/google/uuid"
)

// PerformanceAttendance is the ops read model of one performance's tickets.
type PerformanceAttendance struct {
	PerformanceID uuid.UUID `json:"performance_id"`

	Tickets map[string]AttendanceTicket `json:"tickets"`

	Issued    int `json:"issued"`
	Redeemed  int `json:"redeemed"`
	Cancelled int `json:"cancelled"`

	LastUpdate time.Time `json:"last_update"`
}

type AttendanceTicket struct {
	AttendeeEmail string       `json:"attendee_email"`
	Status        TicketStatus `json:"status"`

	IssuedAt    time.Time `json:"issued_at"`
	RedeemedAt  time.Time `json:"redeemed_at"`
	CancelledAt time.Time `json:"cancelled_at"`

	PrintedFileName string `json:"printed_file_name"`
}

// Recount derives the totals from the per-ticket statuses.
func (a *PerformanceAttendance) Recount() {
	a.Issued, a.Redeemed, a.Cancelled = 0, 0, 0
	for _, t := range a.Tickets {
		switch t.Status {
		case TicketStatusValid:
			a.Issued++
		case TicketStatusUsed:
			a.Issued++
			a.Redeemed++
		case TicketStatusCancelled:
			a.Cancelled++
		}
	}
}
