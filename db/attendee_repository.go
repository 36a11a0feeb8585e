package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"boxoffice/entities"
)

type AttendeeRepository struct {
	db *DB
}

func NewAttendeeRepository(db *DB) AttendeeRepository {
	if db == nil {
		panic("db is nil")
	}
	return AttendeeRepository{
		db: db,
	}
}

// FindOrCreate returns the attendee registered under email, creating it on
// first use. Concurrent calls for the same email resolve to one row, and the
// spelling of the first registration is kept.
func (r AttendeeRepository) FindOrCreate(ctx context.Context, email string) (entities.Attendee, error) {
	email = strings.TrimSpace(email)
	normalized := entities.NormalizeEmail(email)

	attendee, err := r.byNormalizedEmail(ctx, normalized)
	if err == nil {
		return attendee, nil
	}
	if !errors.Is(err, entities.ErrAttendeeNotFound) {
		return entities.Attendee{}, err
	}

	_, err = conn(ctx, r.db.Conn).ExecContext(ctx, `
		INSERT INTO
			attendees (attendee_id, email, normalized_email)
		VALUES
			($1, $2, $3)
		ON CONFLICT (normalized_email) DO NOTHING`,
		uuid.New(), email, normalized,
	)
	if err != nil {
		return entities.Attendee{}, storeError("could not create attendee", err)
	}

	return r.byNormalizedEmail(ctx, normalized)
}

func (r AttendeeRepository) byNormalizedEmail(ctx context.Context, normalizedEmail string) (entities.Attendee, error) {
	var attendee entities.Attendee
	err := conn(ctx, r.db.Conn).GetContext(ctx, &attendee, `
		SELECT attendee_id, email, normalized_email, created_at
		FROM attendees
		WHERE normalized_email = $1`, normalizedEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Attendee{}, entities.ErrAttendeeNotFound
	}
	if err != nil {
		return entities.Attendee{}, storeError("could not get attendee", err)
	}

	return attendee, nil
}
