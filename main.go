package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/clients"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"boxoffice/api"
	"boxoffice/db"
	"boxoffice/message"
	"boxoffice/migrations"
	"boxoffice/observability"
	"boxoffice/poisonqueue"
	"boxoffice/service"
)

func main() {
	app := &cli.App{
		Name:  "boxoffice",
		Usage: "Issue, validate and redeem performance tickets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "postgres-url", EnvVars: []string{"POSTGRES_URL"}},
			&cli.StringFlag{Name: "redis-addr", EnvVars: []string{"REDIS_ADDR"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and message handlers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "gateway-addr", EnvVars: []string{"GATEWAY_ADDR"}},
					&cli.StringFlag{Name: "http-addr", EnvVars: []string{"HTTP_ADDR"}, Value: ":8080"},
					&cli.StringFlag{Name: "jaeger-endpoint", EnvVars: []string{"JAEGER_ENDPOINT"}},
					&cli.StringFlag{Name: "smtp-host", EnvVars: []string{"SMTP_HOST"}},
					&cli.IntFlag{Name: "smtp-port", EnvVars: []string{"SMTP_PORT"}, Value: 587},
					&cli.StringFlag{Name: "smtp-username", EnvVars: []string{"SMTP_USERNAME"}},
					&cli.StringFlag{Name: "smtp-password", EnvVars: []string{"SMTP_PASSWORD"}},
					&cli.StringFlag{Name: "email-from", EnvVars: []string{"EMAIL_FROM"}, Value: "tickets@boxoffice.local"},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the database schema",
				Action: migrate,
			},
			{
				Name:   "rebuild-attendance",
				Usage:  "rebuild the attendance read model from the data lake",
				Action: rebuildAttendance,
			},
			{
				Name:  "poison-queue",
				Usage: "manage messages that could not be processed",
				Subcommands: []*cli.Command{
					{
						Name:   "preview",
						Usage:  "list messages in the poison queue",
						Action: previewPoisonQueue,
					},
					{
						Name:      "remove",
						ArgsUsage: "<message_id>",
						Usage:     "drop a message from the poison queue",
						Action:    removeFromPoisonQueue,
					},
					{
						Name:      "requeue",
						ArgsUsage: "<message_id>",
						Usage:     "send a message back to the topic it failed on",
						Action:    requeuePoisonedMessage,
					},
				},
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("boxoffice failed")
	}
}

func configFromFlags(c *cli.Context) service.Config {
	config := service.Config{
		PostgresURL:    c.String("postgres-url"),
		RedisAddr:      c.String("redis-addr"),
		GatewayAddr:    c.String("gateway-addr"),
		HTTPAddr:       c.String("http-addr"),
		JaegerEndpoint: c.String("jaeger-endpoint"),
		SMTP: api.SMTPConfig{
			Host:     c.String("smtp-host"),
			Port:     c.Int("smtp-port"),
			Username: c.String("smtp-username"),
			Password: c.String("smtp-password"),
			From:     c.String("email-from"),
		},
	}
	if config.JaegerEndpoint == "" && config.GatewayAddr != "" {
		config.JaegerEndpoint = config.GatewayAddr + "/jaeger-api/api/traces"
	}

	return config
}

func serve(c *cli.Context) error {
	ctx := c.Context
	config := configFromFlags(c)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tp, err := observability.ConfigureTraceProvider(config.JaegerEndpoint)
	if err != nil {
		return fmt.Errorf("could not configure tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Could not flush traces")
		}
	}()

	// gateway clients use the default transport
	http.DefaultTransport = otelhttp.NewTransport(http.DefaultTransport)

	apiClients, err := clients.NewClients(config.GatewayAddr, func(ctx context.Context, req *http.Request) error {
		req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not create gateway clients: %w", err)
	}

	dbConn, err := db.NewDBConn(config.PostgresURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := service.MigrateSchema(ctx, &dbConn); err != nil {
		return fmt.Errorf("could not migrate schema: %w", err)
	}

	redisClient := message.NewRedisClient(config.RedisAddr)
	defer redisClient.Close()

	svc, err := service.New(service.Dependencies{
		DB:              dbConn,
		RedisClient:     redisClient,
		SpreadsheetsAPI: api.NewSpreadsheetsAPIClient(apiClients),
		FilesAPI:        api.NewFilesAPIClient(apiClients),
		Notifier:        api.NewSMTPNotifier(config.SMTP),
		HTTPAddr:        config.HTTPAddr,
	})
	if err != nil {
		return err
	}

	logrus.WithField("http_addr", config.HTTPAddr).Info("Server starting...")

	return svc.Run(ctx)
}

func migrate(c *cli.Context) error {
	dbConn, err := db.NewDBConn(c.String("postgres-url"))
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := service.MigrateSchema(c.Context, &dbConn); err != nil {
		return err
	}

	logrus.Info("Schema migrated")
	return nil
}

func rebuildAttendance(c *cli.Context) error {
	dbConn, err := db.NewDBConn(c.String("postgres-url"))
	if err != nil {
		return err
	}
	defer dbConn.Close()

	return migrations.RebuildAttendanceReadModel(
		c.Context,
		db.NewEventRepository(&dbConn),
		db.NewAttendanceReadModel(&dbConn),
	)
}

func poisonQueueHandler(c *cli.Context) (*poisonqueue.Handler, error) {
	redisClient := message.NewRedisClient(c.String("redis-addr"))
	return poisonqueue.NewHandler(redisClient, log.NewWatermill(log.FromContext(c.Context)))
}

func previewPoisonQueue(c *cli.Context) error {
	h, err := poisonQueueHandler(c)
	if err != nil {
		return err
	}

	messages, err := h.Preview(c.Context)
	if err != nil {
		return err
	}

	for _, m := range messages {
		fmt.Printf("%v\t%v\t%v\t%v\n", m.ID, m.OriginalTopic, m.Handler, m.Reason)
	}

	return nil
}

func removeFromPoisonQueue(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected exactly one message id", 1)
	}

	h, err := poisonQueueHandler(c)
	if err != nil {
		return err
	}

	return h.Remove(c.Context, c.Args().First())
}

func requeuePoisonedMessage(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected exactly one message id", 1)
	}

	h, err := poisonQueueHandler(c)
	if err != nil {
		return err
	}

	return h.Requeue(c.Context, c.Args().First())
}
