package entities

import (
	"encoding/json"

	"github.com/google/uuid"
)

const qrDateLayout = "2006-01-02"

// QRPayload is what gate scanners read from a ticket. Field set and order are
// part of the printed ticket format and must not change.
type QRPayload struct {
	TicketID        string `json:"ticketId"`
	PerformanceID   string `json:"performanceId"`
	PerformanceName string `json:"performanceName"`
	StartDate       string `json:"startDate"`
	ScheduleTime    string `json:"scheduleTime"`
	Category        string `json:"category"`
	AttendeeEmail   string `json:"attendeeEmail"`
}

func NewQRPayload(ticketID uuid.UUID, performance Performance, attendeeEmail string) QRPayload {
	return QRPayload{
		TicketID:        ticketID.String(),
		PerformanceID:   performance.PerformanceID.String(),
		PerformanceName: performance.Name,
		StartDate:       performance.StartDate.UTC().Format(qrDateLayout),
		ScheduleTime:    performance.ScheduleTime,
		Category:        performance.Category,
		AttendeeEmail:   attendeeEmail,
	}
}

func (p QRPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
