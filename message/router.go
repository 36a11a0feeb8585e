package message

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"boxoffice/entities"
	"boxoffice/message/command"
	"boxoffice/message/event"
	"boxoffice/message/outbox"
)

type AttendanceReadModel interface {
	OnTicketIssued(ctx context.Context, event *entities.TicketIssued_v1) error
	OnTicketRedeemed(ctx context.Context, event *entities.TicketRedeemed_v1) error
	OnTicketCancelled(ctx context.Context, event *entities.TicketCancelled_v1) error
	OnTicketPrinted(ctx context.Context, event *entities.TicketPrinted_v1) error
}

type RouterConfig struct {
	PostgresSubscriber message.Subscriber
	RedisPublisher     message.Publisher

	EventProcessorConfig   cqrs.EventProcessorConfig
	CommandProcessorConfig cqrs.CommandProcessorConfig

	EventHandler        event.Handler
	CommandHandler      command.Handler
	AttendanceReadModel AttendanceReadModel
	DataLake            event.DataLake

	MetricsRegisterer prometheus.Registerer
}

func NewWatermillRouter(config RouterConfig, watermillLogger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	if err := useMiddlewares(router, config.RedisPublisher, watermillLogger); err != nil {
		return nil, fmt.Errorf("could not configure middlewares: %w", err)
	}

	if config.MetricsRegisterer != nil {
		metrics.NewPrometheusMetricsBuilder(config.MetricsRegisterer, "boxoffice", "watermill").
			AddPrometheusRouterMetrics(router)
	}

	_, err = outbox.NewForwarder(config.PostgresSubscriber, config.RedisPublisher, watermillLogger, router)
	if err != nil {
		return nil, fmt.Errorf("could not create outbox forwarder: %w", err)
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, config.EventProcessorConfig)
	if err != nil {
		return nil, err
	}

	commandProcessor, err := cqrs.NewCommandProcessorWithConfig(router, config.CommandProcessorConfig)
	if err != nil {
		return nil, err
	}

	err = commandProcessor.AddHandlers(
		cqrs.NewCommandHandler(
			"ResendTicketNotification",
			config.CommandHandler.ResendTicketNotification,
		),
	)
	if err != nil {
		return nil, err
	}

	err = eventProcessor.AddHandlers(
		cqrs.NewEventHandler(
			"AppendIssuedToTracker",
			config.EventHandler.AppendIssuedToTracker,
		),
		cqrs.NewEventHandler(
			"AppendCancelledToTracker",
			config.EventHandler.AppendCancelledToTracker,
		),
		cqrs.NewEventHandler(
			"StorePrintableTicket",
			config.EventHandler.StorePrintableTicket,
		),
		cqrs.NewEventHandler(
			"AttendanceOnTicketIssued",
			config.AttendanceReadModel.OnTicketIssued,
		),
		cqrs.NewEventHandler(
			"AttendanceOnTicketRedeemed",
			config.AttendanceReadModel.OnTicketRedeemed,
		),
		cqrs.NewEventHandler(
			"AttendanceOnTicketCancelled",
			config.AttendanceReadModel.OnTicketCancelled,
		),
		cqrs.NewEventHandler(
			"AttendanceOnTicketPrinted",
			config.AttendanceReadModel.OnTicketPrinted,
		),
		cqrs.NewEventHandler(
			"DataLakeTicketIssued",
			event.StoreInDataLake[entities.TicketIssued_v1](config.DataLake),
		),
		cqrs.NewEventHandler(
			"DataLakeTicketRedeemed",
			event.StoreInDataLake[entities.TicketRedeemed_v1](config.DataLake),
		),
		cqrs.NewEventHandler(
			"DataLakeTicketCancelled",
			event.StoreInDataLake[entities.TicketCancelled_v1](config.DataLake),
		),
		cqrs.NewEventHandler(
			"DataLakeTicketPrinted",
			event.StoreInDataLake[entities.TicketPrinted_v1](config.DataLake),
		),
	)
	if err != nil {
		return nil, err
	}

	return router, nil
}
