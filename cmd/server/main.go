package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/example/cottonstyle/internal/config"
	"github.com/example/cottonstyle/internal/database"
	"github.com/example/cottonstyle/internal/handlers"
	"github.com/example/cottonstyle/internal/logging"
	"github.com/example/cottonstyle/internal/redisx"
	"github.com/example/cottonstyle/internal/routes"
	"github.com/example/cottonstyle/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:   "cottonstyle",
		Usage:  "storefront checkout and account backend",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema and exit",
				Action: migrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() *config.Config {
	cfg := config.Load()
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg
}

func migrate(_ *cli.Context) error {
	cfg := setup()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("database migrated")
	return nil
}

func serve(_ *cli.Context) error {
	cfg := setup()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.WithError(err).Warn("redis not reachable yet, checkout will fail until it is")
	}

	// stopped only after the HTTP server has drained
	eventsCtx, stopEvents := context.WithCancel(context.Background())
	events := services.NewOrderEventProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.Buffer)
	events.Start(eventsCtx)
	defer func() {
		stopEvents()
		events.WaitClosed()
	}()

	app := fiber.New(fiber.Config{
		AppName:      "CottonStyle Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	routes.Register(app, cfg, routes.Dependencies{
		DB:    db,
		Redis: rdb,
		Mailer: services.NewSMTPMailer(services.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}),
		Gateway: services.NewPaymentGateway(services.PaymentGatewayConfig{
			BaseURL:     cfg.Payment.BaseURL,
			Username:    cfg.Payment.Username,
			Password:    cfg.Payment.Password,
			Enabled:     cfg.Payment.Enabled,
			Timeout:     cfg.Payment.Timeout,
			MaxFailures: cfg.Payment.MaxFailures,
			OpenTimeout: cfg.Payment.OpenTimeout,
		}),
		Events:   events,
		Notifier: services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, cfg.Telegram.APIURL),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on :%s", cfg.AppPort)
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	return nil
}
