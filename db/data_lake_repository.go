package db

import (
	"context"

	"boxoffice/entities"
)

// EventRepository is the append-only data lake of every published event.
type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) EventRepository {
	if db == nil {
		panic("db is nil")
	}
	return EventRepository{
		db: db,
	}
}

func (e EventRepository) Create(ctx context.Context, event entities.DataLakeEvent) error {
	_, err := e.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
			events (event_id, published_at, event_name, event_payload)
		VALUES
			(:event_id, :published_at, :event_name, :event_payload)
		ON CONFLICT (event_id) DO NOTHING`, event)
	if err != nil {
		return storeError("could not store event in data lake", err)
	}

	return nil
}

// All returns the stored events in publication order.
func (e EventRepository) All(ctx context.Context) ([]entities.DataLakeEvent, error) {
	events := []entities.DataLakeEvent{}
	err := e.db.Conn.SelectContext(ctx, &events, `
		SELECT event_id, published_at, event_name, event_payload
		FROM events
		ORDER BY published_at, event_id`)
	if err != nil {
		return nil, storeError("could not get events from data lake", err)
	}

	return events, nil
}
