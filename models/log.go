package models

import (
	"time"

	"gorm.io/gorm"
)

// Delivery statuses shared by both log tables
const (
	DeliveryStatusSuccess = "success"
	DeliveryStatusError   = "error"
	DeliveryStatusSkipped = "skipped"
)

// Integration types recorded on IntegrationLog rows
const (
	IntegrationWebhook   = "webhook"
	IntegrationWhatsapp  = "whatsapp"
	IntegrationFacebook  = "facebook_capi"
	IntegrationRDStation = "rdstation"
)

// IntegrationLog is the audit trail for the fire-and-forget submission
// channels. It is not consulted for idempotency; each submission triggers each
// channel at most once by construction.
type IntegrationLog struct {
	gorm.Model
	FormID uint `gorm:"not null;index" json:"form_id"`
	LeadID uint `gorm:"not null;index" json:"lead_id"`

	IntegrationType string `gorm:"not null;index" json:"integration_type"`
	Status          string `gorm:"not null" json:"status"` // success, error, skipped

	Payload      string `gorm:"type:text" json:"payload"`
	Response     string `gorm:"type:text" json:"response"`
	ErrorMessage string `gorm:"type:text" json:"error_message"`

	// Correlates the rows produced by one Dispatch invocation
	DispatchID string `gorm:"index" json:"dispatch_id"`
}

// RemarketingLog records every remarketing send attempt and doubles as the
// durable idempotency ledger: a (lead_id, step_id) pair with status=success is
// never re-attempted.
type RemarketingLog struct {
	gorm.Model
	LeadID     uint `gorm:"not null;index" json:"lead_id"`
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`
	StepID     uint `gorm:"not null;index" json:"step_id"`

	SentAt       time.Time `json:"sent_at"`
	Status       string    `gorm:"not null" json:"status"` // success, error, skipped
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
}
