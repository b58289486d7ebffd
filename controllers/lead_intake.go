package controller

import (
	"errors"

	"gorm.io/gorm"

	"leadform/models"
)

// LeadStore is the persistence surface of the intake path, small enough to
// fake in tests.
type LeadStore interface {
	LeadByID(id, formID uint) (*models.Lead, error)
	CreateLead(lead *models.Lead) error
	SaveLead(lead *models.Lead) error
}

// RequestMeta carries the submitter context captured from the HTTP layer.
type RequestMeta struct {
	Source    string
	IPAddress string
	UserAgent string
}

// SavePartialLead records progressive answers before final submission. A
// valid partial_lead_id updates the same row in place (bumping updated_at,
// the recovery-campaign anchor); a stale id or an id pointing at a completed
// lead starts a fresh partial row — a completed lead is never reverted.
func SavePartialLead(store LeadStore, form *models.Form, partialLeadID *uint, data map[string]interface{}, meta RequestMeta) (*models.Lead, error) {
	if partialLeadID != nil {
		lead, err := store.LeadByID(*partialLeadID, form.ID)
		if err == nil && lead.IsPartial {
			lead.Data = data
			if err := store.SaveLead(lead); err != nil {
				return nil, err
			}
			return lead, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	lead := &models.Lead{
		FormID:    form.ID,
		Data:      data,
		Source:    meta.Source,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		IsPartial: true,
	}
	if err := store.CreateLead(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// SubmitLead finalizes a submission. When the partial id exists and belongs
// to the same form the partial row is upgraded in place (same id, is_partial
// cleared); otherwise a new completed row is created.
func SubmitLead(store LeadStore, form *models.Form, partialLeadID *uint, data map[string]interface{}, meta RequestMeta) (*models.Lead, error) {
	if partialLeadID != nil {
		lead, err := store.LeadByID(*partialLeadID, form.ID)
		if err == nil {
			lead.Data = data
			lead.IsPartial = false
			if err := store.SaveLead(lead); err != nil {
				return nil, err
			}
			return lead, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	lead := &models.Lead{
		FormID:    form.ID,
		Data:      data,
		Source:    meta.Source,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		IsPartial: false,
	}
	if err := store.CreateLead(lead); err != nil {
		return nil, err
	}
	return lead, nil
}
