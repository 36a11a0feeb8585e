package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"boxoffice/entities"
	"boxoffice/message/event"
	"boxoffice/message/outbox"
)

const ticketColumns = `ticket_id, performance_id, attendee_id, status, qr_payload, issued_at, redeemed_at, cancelled_at`

const ticketViewQuery = `
	SELECT
		t.ticket_id, t.performance_id, t.attendee_id, t.status, t.qr_payload, t.issued_at, t.redeemed_at, t.cancelled_at,
		p.name AS performance_name, p.category, p.start_date, p.schedule_time,
		a.email AS attendee_email
	FROM tickets t
	JOIN performances p ON p.performance_id = t.performance_id
	JOIN attendees a ON a.attendee_id = t.attendee_id`

type TicketRepository struct {
	db *DB
}

func NewTicketRepository(db *DB) TicketRepository {
	if db == nil {
		panic("db is nil")
	}
	return TicketRepository{
		db: db,
	}
}

// Exists reports whether the attendee already holds a valid or used ticket for
// the performance.
func (r TicketRepository) Exists(ctx context.Context, performanceID, attendeeID uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.db.Conn).GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE performance_id = $1 AND attendee_id = $2 AND status <> 'cancelled'
		)`, performanceID, attendeeID)
	if err != nil {
		return false, storeError("could not check if ticket exists", err)
	}

	return exists, nil
}

// Create stores a valid ticket. The partial unique index on
// (performance_id, attendee_id) rejects a second counted ticket for the pair,
// which is reported as ErrDuplicateTicket.
func (r TicketRepository) Create(ctx context.Context, ticket entities.Ticket) (entities.Ticket, error) {
	if ticket.TicketID == uuid.Nil {
		ticket.TicketID = uuid.New()
	}
	if ticket.IssuedAt.IsZero() {
		ticket.IssuedAt = time.Now().UTC()
	}

	var created entities.Ticket
	err := conn(ctx, r.db.Conn).GetContext(ctx, &created, `
		INSERT INTO
			tickets (ticket_id, performance_id, attendee_id, status, qr_payload, issued_at)
		VALUES
			($1, $2, $3, 'valid', $4, $5)
		RETURNING `+ticketColumns,
		ticket.TicketID, ticket.PerformanceID, ticket.AttendeeID, ticket.QRPayload, ticket.IssuedAt,
	)
	switch {
	case err == nil:
		return created, nil
	case isErrorUniqueViolation(err):
		return entities.Ticket{}, entities.ErrDuplicateTicket
	case isErrorForeignKeyViolation(err):
		var psqlErr *pq.Error
		if errors.As(err, &psqlErr) && strings.Contains(psqlErr.Constraint, "attendee") {
			return entities.Ticket{}, entities.ErrAttendeeNotFound
		}
		return entities.Ticket{}, entities.ErrPerformanceNotFound
	default:
		return entities.Ticket{}, storeError("could not create ticket", err)
	}
}

// MarkUsed moves a valid ticket to used and records TicketRedeemed_v1 in the
// outbox in the same transaction.
func (r TicketRepository) MarkUsed(ctx context.Context, ticketID uuid.UUID, redeemedAt time.Time) (entities.Ticket, error) {
	var ticket entities.Ticket

	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &ticket, `
			UPDATE tickets
			SET status = 'used', redeemed_at = $2
			WHERE ticket_id = $1 AND status = 'valid'
			RETURNING `+ticketColumns, ticketID, redeemedAt)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := r.lockTicket(ctx, tx, ticketID); err != nil {
				return err
			}
			return entities.ErrTicketNotValid
		}
		if err != nil {
			return storeError("could not mark ticket as used", err)
		}

		return publishInTx(ctx, tx, entities.TicketRedeemed_v1{
			Header:        entities.NewEventHeaderWithIdempotencyKey("redeem-" + ticket.TicketID.String()),
			TicketID:      ticket.TicketID,
			PerformanceID: ticket.PerformanceID,
			RedeemedAt:    redeemedAt,
		})
	})
	if err != nil {
		return entities.Ticket{}, err
	}

	return ticket, nil
}

// Cancel moves a valid or used ticket to cancelled and records
// TicketCancelled_v1 in the outbox. An already cancelled ticket is returned
// unchanged and nothing is published.
func (r TicketRepository) Cancel(ctx context.Context, ticketID uuid.UUID, cancelledAt time.Time) (entities.CancelledTicket, error) {
	var result entities.CancelledTicket

	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := r.lockTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}

		result.PreviousStatus = current.Status
		if current.Status == entities.TicketStatusCancelled {
			result.Ticket = current
			return nil
		}

		err = tx.GetContext(ctx, &result.Ticket, `
			UPDATE tickets
			SET status = 'cancelled', cancelled_at = $2
			WHERE ticket_id = $1
			RETURNING `+ticketColumns, ticketID, cancelledAt)
		if err != nil {
			return storeError("could not cancel ticket", err)
		}

		return publishInTx(ctx, tx, entities.TicketCancelled_v1{
			Header:         entities.NewEventHeaderWithIdempotencyKey("cancel-" + ticketID.String()),
			TicketID:       ticketID,
			PerformanceID:  current.PerformanceID,
			PreviousStatus: current.Status,
			CancelledAt:    cancelledAt,
		})
	})
	if err != nil {
		return entities.CancelledTicket{}, err
	}

	return result, nil
}

// Void cancels a valid ticket whose issuance did not complete. Nothing is
// published: the ticket was never announced as issued. Voiding a ticket that
// is no longer valid changes nothing.
func (r TicketRepository) Void(ctx context.Context, ticketID uuid.UUID, voidedAt time.Time) error {
	res, err := conn(ctx, r.db.Conn).ExecContext(ctx, `
		UPDATE tickets
		SET status = 'cancelled', cancelled_at = $2
		WHERE ticket_id = $1 AND status = 'valid'`, ticketID, voidedAt)
	if err != nil {
		return storeError("could not void ticket", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storeError("could not void ticket", err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.TicketByID(ctx, ticketID); err != nil {
		return err
	}

	return nil
}

func (r TicketRepository) TicketByID(ctx context.Context, ticketID uuid.UUID) (entities.TicketView, error) {
	var ticket entities.TicketView
	err := conn(ctx, r.db.Conn).GetContext(ctx, &ticket, ticketViewQuery+`
		WHERE t.ticket_id = $1`, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.TicketView{}, entities.ErrTicketNotFound
	}
	if err != nil {
		return entities.TicketView{}, storeError("could not get ticket", err)
	}

	return ticket, nil
}

func (r TicketRepository) ListByPerformance(ctx context.Context, performanceID uuid.UUID) ([]entities.TicketView, error) {
	return r.list(ctx, "t.performance_id = $1", performanceID)
}

func (r TicketRepository) ListByAttendee(ctx context.Context, attendeeID uuid.UUID) ([]entities.TicketView, error) {
	return r.list(ctx, "t.attendee_id = $1", attendeeID)
}

func (r TicketRepository) list(ctx context.Context, where string, arg uuid.UUID) ([]entities.TicketView, error) {
	tickets := []entities.TicketView{}
	err := conn(ctx, r.db.Conn).SelectContext(ctx, &tickets, ticketViewQuery+`
		WHERE `+where+`
		ORDER BY t.issued_at DESC, t.ticket_id`, arg)
	if err != nil {
		return nil, storeError("could not list tickets", err)
	}

	return tickets, nil
}

func (r TicketRepository) lockTicket(ctx context.Context, tx *sqlx.Tx, ticketID uuid.UUID) (entities.Ticket, error) {
	var ticket entities.Ticket
	err := tx.GetContext(ctx, &ticket, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE ticket_id = $1
		FOR UPDATE`, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Ticket{}, entities.ErrTicketNotFound
	}
	if err != nil {
		return entities.Ticket{}, storeError("could not get ticket", err)
	}

	return ticket, nil
}

func publishInTx(ctx context.Context, tx *sqlx.Tx, evt entities.IEvent) error {
	publisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	if err := event.NewBus(publisher).Publish(ctx, evt); err != nil {
		return storeError("could not publish "+event.Name(evt), err)
	}

	return nil
}
