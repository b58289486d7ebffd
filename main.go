package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"leadform/config"
	"leadform/middleware"
	"leadform/routes"
	"leadform/utils"
	"leadform/worker"
)

func main() {
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Error reporting is optional; without a DSN sentry calls are no-ops
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())

	// Integration dispatcher handles the per-submission channel fan-out
	dispatcher := utils.NewDispatcher(config.DB, log.New(os.Stdout, "DISPATCH: ", log.LstdFlags))

	// Initialize and start the remarketing worker
	sender := &worker.EvolutionSequenceSender{
		Media: dispatcher.Media,
		Retry: dispatcher.Retry,
	}
	remarketingWorker := worker.NewRemarketingWorker(
		worker.NewGormStore(config.DB),
		sender,
		log.New(os.Stdout, "REMARKETING: ", log.Ldate|log.Ltime|log.Lshortfile),
		config.AppConfig.SchedulerInterval,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go remarketingWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, dispatcher)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
