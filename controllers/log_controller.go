package controller

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadform/models"
	"leadform/utils"
)

// LogController exposes the audit log tables for operator inspection.
// Channel outcomes are observable nowhere else; nothing is surfaced to the
// form submitter.
type LogController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewLogController(db *gorm.DB, logger *log.Logger) *LogController {
	return &LogController{DB: db, Logger: logger}
}

// GetIntegrationLogs lists the fire-and-forget channel attempts for a form,
// newest first.
func (lc *LogController) GetIntegrationLogs(c *fiber.Ctx) error {
	formID := utils.ParseUint(c.Params("id"))
	page, limit := pagination(c)

	var logs []models.IntegrationLog
	var total int64

	query := lc.DB.Model(&models.IntegrationLog{}).Where("form_id = ?", formID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch integration logs", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  logs,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetRemarketingLogs lists the delivery ledger for a campaign, newest first.
func (lc *LogController) GetRemarketingLogs(c *fiber.Ctx) error {
	campaignID := utils.ParseUint(c.Params("id"))
	page, limit := pagination(c)

	var logs []models.RemarketingLog
	var total int64

	query := lc.DB.Model(&models.RemarketingLog{}).Where("campaign_id = ?", campaignID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch remarketing logs", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  logs,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func pagination(c *fiber.Ctx) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit
}
