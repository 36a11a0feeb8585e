package outbox

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/jmoiron/sqlx"
)

func NewSubscriber(db *sqlx.DB, logger watermill.LoggerAdapter) (*sql.Subscriber, error) {
	return sql.NewSubscriber(
		db,
		sql.SubscriberConfig{
			SchemaAdapter:  sql.DefaultPostgreSQLSchema{},
			OffsetsAdapter: sql.DefaultPostgreSQLOffsetsAdapter{},
		},
		logger,
	)
}

// InitializeSchema creates the outbox and offsets tables. Publishing in a
// transaction cannot create them on the fly.
func InitializeSchema(db *sqlx.DB, logger watermill.LoggerAdapter) error {
	sub, err := NewSubscriber(db, logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	return sub.SubscribeInitialize(Topic)
}
