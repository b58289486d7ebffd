package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "leadform/controllers"
	"leadform/middleware"
	"leadform/utils"
)

// SetupRoutes wires the public form endpoints and the operator API.
func SetupRoutes(app *fiber.App, db *gorm.DB, dispatcher *utils.Dispatcher) {
	leadController := controller.NewLeadController(db, dispatcher, log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	instanceController := controller.NewInstanceController(db, log.New(os.Stdout, "INSTANCE: ", log.LstdFlags))
	logController := controller.NewLogController(db, log.New(os.Stdout, "LOGS: ", log.LstdFlags))

	// Public form endpoints, rate limited per client IP + form
	forms := app.Group("/f", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}), middleware.SubmitRateLimiter())
	forms.Post("/:slug/partial", leadController.SavePartial)
	forms.Post("/:slug/submit", leadController.Submit)

	// Operator API
	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	api.Get("/instances/:id/status", instanceController.GetInstanceStatus)
	api.Post("/instances/:id/connect", instanceController.ConnectInstance)
	api.Get("/forms/:id/integration-logs", logController.GetIntegrationLogs)
	api.Get("/campaigns/:id/logs", logController.GetRemarketingLogs)
}
