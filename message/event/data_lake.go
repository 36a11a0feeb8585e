package event

import (
	"context"
	"encoding/json"
	"fmt"

	"boxoffice/entities"
)

// StoreInDataLake returns a handler that appends every received event of type T
// to the data lake.
func StoreInDataLake[T entities.IEvent](dataLake DataLake) func(ctx context.Context, event *T) error {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("could not marshal event: %w", err)
		}

		header := (*event).EventHeader()

		return dataLake.Create(ctx, entities.DataLakeEvent{
			EventID:      header.ID,
			PublishedAt:  header.PublishedAt,
			EventName:    Name(*event),
			EventPayload: payload,
		})
	}
}
