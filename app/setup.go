package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiproedx/synergeticsopenedx/api"
	"github.com/wiproedx/synergeticsopenedx/config"
	"github.com/wiproedx/synergeticsopenedx/database"
	"github.com/wiproedx/synergeticsopenedx/router"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/services/cron"
	"github.com/wiproedx/synergeticsopenedx/services/messaging"
	"gorm.io/gorm"
)

const codeVersion = "1.0.0"

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("unexpected database handle %T", store.GetDB())
	}

	var reporter services.Reporter = services.LogReporter{}
	if getEnv.ROLLBAR_TOKEN != "" {
		reporter = services.NewRollbarReporter(getEnv.ROLLBAR_TOKEN, getEnv.GO_ENV, codeVersion)
	}
	defer reporter.Close()

	// Outbox relay (only when a broker is configured)
	var relay cron.OutboxRelay
	if getEnv.RABBITMQ_URL != "" {
		dispatcher, closeRelay, err := startRelay(getEnv)
		if err != nil {
			log.Warnf("Outbox relay disabled: %v", err)
		} else {
			relay = dispatcher
			defer closeRelay()
		}
	} else {
		log.Warn("RABBITMQ_URL is not set. Outbox events stay pending until a broker is configured.")
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	if getEnv.CRON_ENABLED {
		cronManager := cron.NewCronManager(db, relay, services.NewCouponService(db))
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warnf("Failed to start cron jobs: %v", err)
		} else {
			defer cronManager.Stop()
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes (security, logging and recover middleware are attached there)
	router.SetupRoutes(app, store, getEnv, reporter)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down API Server")
		if err := server.Shutdown(); err != nil {
			log.Errorf("Failed to shut down cleanly: %v", err)
		}
	}()

	// Get the PORT & Start the Server
	return server.Run()
}

// startRelay connects the outbox dispatcher to Postgres and RabbitMQ.
func startRelay(env *config.EnviornmentVariable) (*messaging.OutboxDispatcher, func(), error) {
	pool, err := pgxpool.New(context.Background(), database.DSN(env))
	if err != nil {
		return nil, nil, fmt.Errorf("open outbox pool: %w", err)
	}

	publisher, err := messaging.NewRabbitPublisher(env.RABBITMQ_URL, env.RABBITMQ_EXCHANGE)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeRelay := func() {
		if err := publisher.Close(); err != nil {
			log.Warnf("Failed to close RabbitMQ publisher: %v", err)
		}
		pool.Close()
	}
	return messaging.NewOutboxDispatcher(pool, publisher, 0), closeRelay, nil
}
