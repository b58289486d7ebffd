package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadform/models"
	"leadform/utils"
)

type LeadController struct {
	DB         *gorm.DB
	Logger     *log.Logger
	Dispatcher *utils.Dispatcher
	store      LeadStore
}

func NewLeadController(db *gorm.DB, dispatcher *utils.Dispatcher, logger *log.Logger) *LeadController {
	return &LeadController{
		DB:         db,
		Logger:     logger,
		Dispatcher: dispatcher,
		store:      gormLeadStore{db: db},
	}
}

type leadInput struct {
	PartialLeadID *uint                  `json:"partial_lead_id"`
	Data          map[string]interface{} `json:"data" validate:"required"`
	Source        string                 `json:"source" validate:"omitempty,max=50"`
}

// SavePartial stores progressive answers while the visitor is still filling
// the form, creating or updating a partial lead row.
func (lc *LeadController) SavePartial(c *fiber.Ctx) error {
	form, err := lc.formBySlug(c.Params("slug"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Form not found", nil)
	}

	var input leadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := SavePartialLead(lc.store, form, input.PartialLeadID, input.Data, lc.requestMeta(c, input.Source))
	if err != nil {
		lc.Logger.Printf("Failed to save partial lead for form %d: %v", form.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save lead", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"lead_id":    lead.ID,
		"is_partial": lead.IsPartial,
	}))
}

// Submit finalizes a submission. The response reports success as soon as the
// lead row is durably written; channel fan-out runs in the background and
// never surfaces to the submitter.
func (lc *LeadController) Submit(c *fiber.Ctx) error {
	form, err := lc.formBySlug(c.Params("slug"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Form not found", nil)
	}

	var input leadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := SubmitLead(lc.store, form, input.PartialLeadID, input.Data, lc.requestMeta(c, input.Source))
	if err != nil {
		lc.Logger.Printf("Failed to submit lead for form %d: %v", form.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save lead", nil)
	}

	// Fire-and-forget: the submitter never waits on channel outcomes
	go lc.Dispatcher.Dispatch(form, lead)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"lead_id": lead.ID,
	}))
}

func (lc *LeadController) formBySlug(slug string) (*models.Form, error) {
	var form models.Form
	if err := lc.DB.Where("slug = ?", slug).First(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (lc *LeadController) requestMeta(c *fiber.Ctx, source string) RequestMeta {
	if source == "" {
		source = "direct"
	}
	return RequestMeta{
		Source:    source,
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

type gormLeadStore struct{ db *gorm.DB }

func (g gormLeadStore) LeadByID(id, formID uint) (*models.Lead, error) {
	var lead models.Lead
	if err := g.db.Where("id = ? AND form_id = ?", id, formID).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (g gormLeadStore) CreateLead(lead *models.Lead) error {
	return g.db.Create(lead).Error
}

func (g gormLeadStore) SaveLead(lead *models.Lead) error {
	return g.db.Save(lead).Error
}
