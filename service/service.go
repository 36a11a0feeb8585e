package service

import (
	"context"
	"errors"
	"fmt"
	stdHTTP "net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	watermillMessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"boxoffice/api"
	"boxoffice/app"
	"boxoffice/clock"
	"boxoffice/db"
	ticketsHttp "boxoffice/http"
	"boxoffice/message"
	"boxoffice/message/command"
	"boxoffice/message/event"
	"boxoffice/message/outbox"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Service struct {
	watermillRouter *watermillMessage.Router
	echoRouter      *echo.Echo
	httpAddr        string
}

type Dependencies struct {
	DB          db.DB
	RedisClient *redis.Client

	SpreadsheetsAPI event.SpreadsheetsAPI
	FilesAPI        event.FilesAPI
	Notifier        app.NotificationSender

	HTTPAddr string
}

func New(deps Dependencies) (Service, error) {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher, err := message.NewRedisPublisher(deps.RedisClient, watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create redis publisher: %w", err)
	}

	eventBus := event.NewBus(redisPublisher)
	commandBus := command.NewCommandBus(redisPublisher)

	conn := deps.DB
	performanceRepo := db.NewPerformanceRepository(&conn)
	attendeeRepo := db.NewAttendeeRepository(&conn)
	ticketRepo := db.NewTicketRepository(&conn)
	attendanceReadModel := db.NewAttendanceReadModel(&conn)
	dataLake := db.NewEventRepository(&conn)

	qrEncoder := api.NewQRCodeEncoder()
	systemClock := clock.NewSystem()

	issuance := app.NewIssuanceService(
		performanceRepo,
		attendeeRepo,
		ticketRepo,
		&conn,
		qrEncoder,
		deps.Notifier,
		eventBus,
		systemClock,
	)
	redemption := app.NewRedemptionService(ticketRepo, systemClock)

	pgSubscriber, err := outbox.NewSubscriber(conn.Conn, watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create outbox subscriber: %w", err)
	}

	watermillRouter, err := message.NewWatermillRouter(
		message.RouterConfig{
			PostgresSubscriber:     pgSubscriber,
			RedisPublisher:         redisPublisher,
			EventProcessorConfig:   event.NewProcessorConfig(deps.RedisClient, watermillLogger),
			CommandProcessorConfig: command.NewCommandProcessorConfig(deps.RedisClient, watermillLogger),
			EventHandler:           event.NewHandler(deps.SpreadsheetsAPI, deps.FilesAPI, qrEncoder, eventBus),
			CommandHandler:         command.NewHandler(issuance),
			AttendanceReadModel:    attendanceReadModel,
			DataLake:               dataLake,
			MetricsRegisterer:      prometheus.DefaultRegisterer,
		},
		watermillLogger,
	)
	if err != nil {
		return Service{}, fmt.Errorf("could not create watermill router: %w", err)
	}

	echoRouter := ticketsHttp.NewHttpRouter(
		issuance,
		redemption,
		performanceRepo,
		ticketRepo,
		attendanceReadModel,
		commandBus,
	)

	httpAddr := deps.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	return Service{
		watermillRouter: watermillRouter,
		echoRouter:      echoRouter,
		httpAddr:        httpAddr,
	}, nil
}

// MigrateSchema prepares the database for New.
func MigrateSchema(ctx context.Context, conn *db.DB) error {
	return conn.MigrateSchema(ctx, log.NewWatermill(log.FromContext(ctx)))
}

func (s Service) Run(
	ctx context.Context,
) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// the service is not healthy before the router is ready
		<-s.watermillRouter.Running()

		err := s.echoRouter.Start(s.httpAddr)
		if err != nil && !errors.Is(err, stdHTTP.ErrServerClosed) {
			return err
		}

		return nil
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		return s.echoRouter.Shutdown(context.Background())
	})

	return errgrp.Wait()
}
