package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"boxoffice/entities"
)

const (
	postgresUniqueValueViolationErrorCode = "23505"
	postgresForeignKeyViolationErrorCode  = "23503"

	postgresSerializationFailure = "40001"
	postgresDeadlockDetected     = "40P01"
	postgresAdminShutdown        = "57P01"
	postgresQueryCanceled        = "57014"
	postgresTooManyConnections   = "53300"

	postgresConnectionExceptionClass = "08"
)

func isErrorUniqueViolation(err error) bool {
	var psqlErr *pq.Error
	return errors.As(err, &psqlErr) && psqlErr.Code == postgresUniqueValueViolationErrorCode
}

func isErrorForeignKeyViolation(err error) bool {
	var psqlErr *pq.Error
	return errors.As(err, &psqlErr) && psqlErr.Code == postgresForeignKeyViolationErrorCode
}

func isErrorTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var psqlErr *pq.Error
	if errors.As(err, &psqlErr) {
		switch psqlErr.Code {
		case postgresSerializationFailure,
			postgresDeadlockDetected,
			postgresAdminShutdown,
			postgresQueryCanceled,
			postgresTooManyConnections:
			return true
		}
		return psqlErr.Code.Class() == postgresConnectionExceptionClass
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// storeError wraps err with op and marks it transient when a retry from the
// top could succeed.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("%s: %w", op, err)
	if isErrorTransient(err) {
		return entities.NewTransientError(wrapped)
	}

	return wrapped
}
