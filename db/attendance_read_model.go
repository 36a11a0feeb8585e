package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boxoffice/entities"
)

type AttendanceReadModel struct {
	db *DB
}

func NewAttendanceReadModel(db *DB) AttendanceReadModel {
	if db == nil {
		panic("db is nil")
	}
	return AttendanceReadModel{
		db: db,
	}
}

func (r AttendanceReadModel) OnTicketIssued(ctx context.Context, event *entities.TicketIssued_v1) error {
	return r.updateTicket(ctx, event.PerformanceID, event.TicketID, func(ticket entities.AttendanceTicket) entities.AttendanceTicket {
		ticket.AttendeeEmail = event.AttendeeEmail
		ticket.IssuedAt = event.IssuedAt
		// a redemption or cancellation may have been applied first
		if ticket.Status == "" {
			ticket.Status = entities.TicketStatusValid
		}
		return ticket
	})
}

func (r AttendanceReadModel) OnTicketRedeemed(ctx context.Context, event *entities.TicketRedeemed_v1) error {
	return r.updateTicket(ctx, event.PerformanceID, event.TicketID, func(ticket entities.AttendanceTicket) entities.AttendanceTicket {
		ticket.RedeemedAt = event.RedeemedAt
		if ticket.Status != entities.TicketStatusCancelled {
			ticket.Status = entities.TicketStatusUsed
		}
		return ticket
	})
}

func (r AttendanceReadModel) OnTicketCancelled(ctx context.Context, event *entities.TicketCancelled_v1) error {
	return r.updateTicket(ctx, event.PerformanceID, event.TicketID, func(ticket entities.AttendanceTicket) entities.AttendanceTicket {
		ticket.CancelledAt = event.CancelledAt
		ticket.Status = entities.TicketStatusCancelled
		return ticket
	})
}

func (r AttendanceReadModel) OnTicketPrinted(ctx context.Context, event *entities.TicketPrinted_v1) error {
	return r.updateTicket(ctx, event.PerformanceID, event.TicketID, func(ticket entities.AttendanceTicket) entities.AttendanceTicket {
		ticket.PrintedFileName = event.FileName
		return ticket
	})
}

func (r AttendanceReadModel) AttendanceByPerformanceID(ctx context.Context, performanceID uuid.UUID) (entities.PerformanceAttendance, error) {
	rm, err := r.findModel(ctx, r.db.Conn, performanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.PerformanceAttendance{}, entities.ErrPerformanceNotFound
	}
	if err != nil {
		return entities.PerformanceAttendance{}, storeError("could not get attendance read model", err)
	}

	return rm, nil
}

// Clear drops every attendance read model, before a rebuild.
func (r AttendanceReadModel) Clear(ctx context.Context) error {
	_, err := r.db.Conn.ExecContext(ctx, `DELETE FROM read_model_performance_attendance`)
	if err != nil {
		return storeError("could not clear attendance read model", err)
	}

	return nil
}

func (r AttendanceReadModel) updateTicket(
	ctx context.Context,
	performanceID uuid.UUID,
	ticketID uuid.UUID,
	updateFunc func(ticket entities.AttendanceTicket) entities.AttendanceTicket,
) error {
	return updateInTx(
		ctx,
		r.db.Conn,
		sql.LevelRepeatableRead,
		func(ctx context.Context, tx *sqlx.Tx) error {
			rm, err := r.findModel(ctx, tx, performanceID)
			if errors.Is(err, sql.ErrNoRows) {
				log.
					FromContext(ctx).
					WithField("performance_id", performanceID).
					Debug("Creating attendance read model")

				rm = entities.PerformanceAttendance{
					PerformanceID: performanceID,
					Tickets:       map[string]entities.AttendanceTicket{},
				}
			} else if err != nil {
				return storeError("could not find read model", err)
			}

			key := ticketID.String()
			rm.Tickets[key] = updateFunc(rm.Tickets[key])
			rm.Recount()

			return r.updateModel(ctx, tx, rm)
		},
	)
}

func (r AttendanceReadModel) updateModel(ctx context.Context, tx *sqlx.Tx, readModel entities.PerformanceAttendance) error {
	readModel.LastUpdate = time.Now().UTC()

	payload, err := json.Marshal(readModel)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO
			read_model_performance_attendance (payload, performance_id)
		VALUES
			($1, $2)
		ON CONFLICT (performance_id) DO UPDATE SET payload = excluded.payload;
		`, payload, readModel.PerformanceID)
	if err != nil {
		return storeError("could not update read model", err)
	}

	return nil
}

func (r AttendanceReadModel) findModel(ctx context.Context, q sqlx.QueryerContext, performanceID uuid.UUID) (entities.PerformanceAttendance, error) {
	var payload []byte

	err := q.QueryRowxContext(
		ctx,
		"SELECT payload FROM read_model_performance_attendance WHERE performance_id = $1",
		performanceID,
	).Scan(&payload)
	if err != nil {
		return entities.PerformanceAttendance{}, err
	}

	var rm entities.PerformanceAttendance
	if err := json.Unmarshal(payload, &rm); err != nil {
		return entities.PerformanceAttendance{}, fmt.Errorf("could not unmarshal read model: %w", err)
	}

	if rm.Tickets == nil {
		rm.Tickets = map[string]entities.AttendanceTicket{}
	}

	return rm, nil
}
