package command

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"boxoffice/entities"
)

func (h Handler) ResendTicketNotification(ctx context.Context, cmd *entities.ResendTicketNotification_v1) error {
	log.FromContext(ctx).WithField("ticket_id", cmd.TicketID).Info("Resending ticket notification")

	if err := h.notifier.ResendNotification(ctx, cmd.TicketID); err != nil {
		return fmt.Errorf("could not resend notification for ticket %s: %w", cmd.TicketID, err)
	}

	return nil
}
