package migrations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"

	"boxoffice/entities"
)

type EventSource interface {
	All(ctx context.Context) ([]entities.DataLakeEvent, error)
}

type AttendanceReadModel interface {
	Clear(ctx context.Context) error
	OnTicketIssued(ctx context.Context, event *entities.TicketIssued_v1) error
	OnTicketRedeemed(ctx context.Context, event *entities.TicketRedeemed_v1) error
	OnTicketCancelled(ctx context.Context, event *entities.TicketCancelled_v1) error
	OnTicketPrinted(ctx context.Context, event *entities.TicketPrinted_v1) error
}

// RebuildAttendanceReadModel drops the attendance projection and replays
// every event from the data lake into it, oldest first.
func RebuildAttendanceReadModel(ctx context.Context, dl EventSource, rm AttendanceReadModel) error {
	logger := log.FromContext(ctx)
	logger.Info("Rebuilding attendance read model")

	events, err := dl.All(ctx)
	if err != nil {
		return fmt.Errorf("could not get events from data lake: %w", err)
	}

	if err := rm.Clear(ctx); err != nil {
		return fmt.Errorf("could not clear attendance read model: %w", err)
	}

	logger.WithField("events_count", len(events)).Info("Has events to replay")

	for _, event := range events {
		start := time.Now()

		logger := logger.WithFields(logrus.Fields{
			"event_name": event.EventName,
			"event_id":   event.EventID,
		})

		replayed, err := replayEvent(ctx, event, rm)
		if err != nil {
			return fmt.Errorf("could not replay event %s (%s): %w", event.EventID, event.EventName, err)
		}
		if !replayed {
			logger.Warn("Skipping event not used by the attendance read model")
			continue
		}

		logger.WithField("duration", time.Since(start)).Debug("Event replayed")
	}

	logger.Info("Attendance read model rebuilt")

	return nil
}

func replayEvent(ctx context.Context, event entities.DataLakeEvent, rm AttendanceReadModel) (bool, error) {
	switch event.EventName {
	case "TicketIssued_v1":
		issued, err := unmarshalDataLakeEvent[entities.TicketIssued_v1](event)
		if err != nil {
			return false, err
		}
		return true, rm.OnTicketIssued(ctx, issued)
	case "TicketRedeemed_v1":
		redeemed, err := unmarshalDataLakeEvent[entities.TicketRedeemed_v1](event)
		if err != nil {
			return false, err
		}
		return true, rm.OnTicketRedeemed(ctx, redeemed)
	case "TicketCancelled_v1":
		cancelled, err := unmarshalDataLakeEvent[entities.TicketCancelled_v1](event)
		if err != nil {
			return false, err
		}
		return true, rm.OnTicketCancelled(ctx, cancelled)
	case "TicketPrinted_v1":
		printed, err := unmarshalDataLakeEvent[entities.TicketPrinted_v1](event)
		if err != nil {
			return false, err
		}
		return true, rm.OnTicketPrinted(ctx, printed)
	default:
		return false, nil
	}
}

func unmarshalDataLakeEvent[T any](event entities.DataLakeEvent) (*T, error) {
	eventInstance := new(T)

	err := json.Unmarshal(event.EventPayload, eventInstance)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal event %s: %w", event.EventName, err)
	}

	return eventInstance, nil
}
