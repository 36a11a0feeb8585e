package event

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"boxoffice/entities"
)

const (
	issuedTicketsSheet    = "issued-tickets"
	cancelledTicketsSheet = "cancelled-tickets"
)

func (h Handler) AppendIssuedToTracker(ctx context.Context, event *entities.TicketIssued_v1) error {
	log.FromContext(ctx).Info("Appending issued ticket to the tracker")

	return h.spreadsheetsAPI.AppendRow(
		ctx,
		issuedTicketsSheet,
		[]string{
			event.TicketID.String(),
			event.PerformanceName,
			event.StartDate.UTC().Format(time.DateOnly),
			event.AttendeeEmail,
			event.IssuedAt.UTC().Format(time.RFC3339),
		},
	)
}

func (h Handler) AppendCancelledToTracker(ctx context.Context, event *entities.TicketCancelled_v1) error {
	log.FromContext(ctx).Info("Appending cancelled ticket to the tracker")

	return h.spreadsheetsAPI.AppendRow(
		ctx,
		cancelledTicketsSheet,
		[]string{
			event.TicketID.String(),
			event.PerformanceID.String(),
			string(event.PreviousStatus),
			event.CancelledAt.UTC().Format(time.RFC3339),
		},
	)
}
