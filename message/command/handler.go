package command

import (
	"context"

	"github.com/google/uuid"
)

type TicketNotifier interface {
	ResendNotification(ctx context.Context, ticketID uuid.UUID) error
}

type Handler struct {
	notifier TicketNotifier
}

func NewHandler(notifier TicketNotifier) Handler {
	if notifier == nil {
		panic("notifier is required")
	}

	return Handler{
		notifier: notifier,
	}
}
