package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Attendee struct {
	AttendeeID      uuid.UUID `json:"attendee_id" db:"attendee_id"`
	Email           string    `json:"email" db:"email"`
	NormalizedEmail string    `json:"-" db:"normalized_email"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NormalizeEmail returns the key attendees are deduplicated by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
