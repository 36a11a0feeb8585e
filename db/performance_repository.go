package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boxoffice/entities"
)

type PerformanceRepository struct {
	db *DB
}

func NewPerformanceRepository(db *DB) PerformanceRepository {
	if db == nil {
		panic("db is nil")
	}
	return PerformanceRepository{
		db: db,
	}
}

func (r PerformanceRepository) Create(ctx context.Context, performance entities.Performance) (entities.PerformanceCreateResponse, error) {
	if performance.PerformanceID == uuid.Nil {
		performance.PerformanceID = uuid.New()
	}
	if performance.Status == "" {
		performance.Status = entities.PerformanceStatusActive
	}

	_, err := sqlx.NamedExecContext(
		ctx,
		conn(ctx, r.db.Conn),
		`
		INSERT INTO
			performances (performance_id, name, category, status, start_date, schedule_time, total_capacity, available_capacity)
		VALUES
			(:performance_id, :name, :category, :status, :start_date, :schedule_time, :total_capacity, :available_capacity)`,
		performance,
	)
	if err != nil {
		return entities.PerformanceCreateResponse{}, storeError("could not create performance", err)
	}

	return entities.PerformanceCreateResponse{PerformanceID: performance.PerformanceID}, nil
}

func (r PerformanceRepository) PerformanceByID(ctx context.Context, performanceID uuid.UUID) (entities.Performance, error) {
	var performance entities.Performance
	err := conn(ctx, r.db.Conn).GetContext(ctx, &performance, `
		SELECT performance_id, name, category, status, start_date, schedule_time, total_capacity, available_capacity, created_at
		FROM performances
		WHERE performance_id = $1`, performanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Performance{}, entities.ErrPerformanceNotFound
	}
	if err != nil {
		return entities.Performance{}, storeError("could not get performance", err)
	}

	return performance, nil
}

func (r PerformanceRepository) List(ctx context.Context) ([]entities.Performance, error) {
	performances := []entities.Performance{}
	err := conn(ctx, r.db.Conn).SelectContext(ctx, &performances, `
		SELECT performance_id, name, category, status, start_date, schedule_time, total_capacity, available_capacity, created_at
		FROM performances
		ORDER BY start_date, schedule_time`)
	if err != nil {
		return nil, storeError("could not list performances", err)
	}

	return performances, nil
}

// TryDecrement takes one seat. It returns ErrNoCapacity when none is left and
// never lets available_capacity drop below zero.
func (r PerformanceRepository) TryDecrement(ctx context.Context, performanceID uuid.UUID) (int, error) {
	var available int

	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &available, `
			UPDATE performances
			SET available_capacity = available_capacity - 1, updated_at = now()
			WHERE performance_id = $1 AND available_capacity > 0
			RETURNING available_capacity`, performanceID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storeError("could not decrement available capacity", err)
		}

		exists, err := r.exists(ctx, tx, performanceID)
		if err != nil {
			return err
		}
		if !exists {
			return entities.ErrPerformanceNotFound
		}

		return entities.ErrNoCapacity
	})
	if err != nil {
		return 0, err
	}

	return available, nil
}

// Increment gives one seat back.
func (r PerformanceRepository) Increment(ctx context.Context, performanceID uuid.UUID) (int, error) {
	var available int

	err := conn(ctx, r.db.Conn).GetContext(ctx, &available, `
		UPDATE performances
		SET available_capacity = available_capacity + 1, updated_at = now()
		WHERE performance_id = $1
		RETURNING available_capacity`, performanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, entities.ErrPerformanceNotFound
	}
	if err != nil {
		return 0, storeError("could not increment available capacity", err)
	}

	return available, nil
}

func (r PerformanceRepository) exists(ctx context.Context, tx *sqlx.Tx, performanceID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM performances WHERE performance_id = $1)`, performanceID)
	if err != nil {
		return false, storeError("could not check if performance exists", err)
	}

	return exists, nil
}
