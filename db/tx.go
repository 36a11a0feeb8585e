package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// executor is satisfied by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

// conn returns the transaction carried by ctx, if any, otherwise db.
func conn(ctx context.Context, db *sqlx.DB) executor {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// WithTx runs fn in one transaction; repositories called with the ctx passed to
// fn join it.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return updateInTx(ctx, db.Conn, sql.LevelReadCommitted, func(ctx context.Context, _ *sqlx.Tx) error {
		return fn(ctx)
	})
}

func updateInTx(
	ctx context.Context,
	db *sqlx.DB,
	isolation sql.IsolationLevel,
	fn func(ctx context.Context, tx *sqlx.Tx) error,
) (err error) {
	if tx := txFromContext(ctx); tx != nil {
		return fn(ctx, tx)
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return storeError("could not begin transaction", err)
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, fmt.Errorf("could not rollback transaction: %w", rollbackErr))
			}
			return
		}

		err = storeError("could not commit transaction", tx.Commit())
	}()

	return fn(context.WithValue(ctx, txKey{}, tx), tx)
}
