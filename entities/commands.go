package entities

import "github.com/google/uuid"

type ResendTicketNotification_v1 struct {
	Header EventHeader `json:"header"`

	TicketID uuid.UUID `json:"ticket_id"`
}
