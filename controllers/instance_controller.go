package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadform/models"
	"leadform/utils"
)

type InstanceController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewInstanceController(db *gorm.DB, logger *log.Logger) *InstanceController {
	return &InstanceController{DB: db, Logger: logger}
}

// GetInstanceStatus checks the connection state of a WhatsApp instance
// against the Evolution API server. Diagnostic only.
func (ic *InstanceController) GetInstanceStatus(c *fiber.Ctx) error {
	var instance models.EvolutionInstance
	if err := ic.DB.First(&instance, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Instance not found", nil)
	}

	client := utils.NewEvolutionClient(&instance)
	state, err := client.ConnectionState()
	if err != nil {
		ic.Logger.Printf("Connection check failed for instance %d: %v", instance.ID, err)
		return c.JSON(utils.SuccessResponse(fiber.Map{
			"instance_id": instance.ID,
			"name":        instance.Name,
			"connected":   false,
			"error":       err.Error(),
		}))
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"instance_id": instance.ID,
		"name":        instance.Name,
		"state":       state,
		"connected":   state == "open",
	}))
}

// ConnectInstance requests a pairing QR code so an operator can link the
// instance to a device.
func (ic *InstanceController) ConnectInstance(c *fiber.Ctx) error {
	var instance models.EvolutionInstance
	if err := ic.DB.First(&instance, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Instance not found", nil)
	}

	client := utils.NewEvolutionClient(&instance)
	qr, err := client.Connect()
	if err != nil {
		ic.Logger.Printf("Connect failed for instance %d: %v", instance.ID, err)
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to request pairing code", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"instance_id": instance.ID,
		"qr_code":     qr,
	}))
}
