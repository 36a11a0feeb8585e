package entities

import "github.com/google/uuid"

// TicketNotification is what the attendee receives after issuance.
type TicketNotification struct {
	AttendeeEmail string
	Performance   Performance
	TicketID      uuid.UUID

	// QRImage is a PNG of the ticket's QR payload.
	QRImage []byte
}
