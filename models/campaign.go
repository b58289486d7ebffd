package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign types
const (
	CampaignTypeRecovery = "recovery" // targets partial leads (abandoned mid-form)
	CampaignTypeDrip     = "drip"     // targets completed leads (post-submission nurture)
)

// RemarketingCampaign is a named sequence of delayed WhatsApp steps scoped to
// one form. Campaign and step rows are owned by the admin CRUD layer; the
// engine reads them as configuration.
type RemarketingCampaign struct {
	gorm.Model
	FormID   uint   `gorm:"not null;index" json:"form_id"`
	Name     string `gorm:"not null" json:"name"`
	Type     string `gorm:"not null" json:"type"` // recovery, drip
	IsActive bool   `gorm:"default:true;index" json:"is_active"`

	// Relations
	Form  Form              `json:"-"`
	Steps []RemarketingStep `gorm:"foreignKey:CampaignID" json:"steps,omitempty"`
}

// TargetsPartialLeads reports whether this campaign's audience is the
// abandoned (partial) leads rather than completed ones.
func (c *RemarketingCampaign) TargetsPartialLeads() bool {
	return c.Type == CampaignTypeRecovery
}

// RemarketingStep is one delayed, typed message within a campaign. The delay
// is relative to the lead's anchor timestamp, not to the previous step;
// StepOrder is advisory for the UI and due-time computation, not a delivery
// gate.
type RemarketingStep struct {
	gorm.Model
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`
	StepOrder  int  `gorm:"not null" json:"step_order"` // unique within campaign

	DelayValue int    `gorm:"not null" json:"delay_value"`
	DelayUnit  string `gorm:"not null" json:"delay_unit"` // minutes, hours, days

	MessageType    string `gorm:"not null;default:'text'" json:"message_type"` // text, audio, video, document, image
	MessageContent string `gorm:"type:text" json:"message_content"`

	// Relations
	Campaign RemarketingCampaign `json:"-"`
}

// Delay converts the configured delay value and unit into a duration.
// Unknown units fall back to hours.
func (s *RemarketingStep) Delay() time.Duration {
	d := time.Duration(s.DelayValue)
	switch s.DelayUnit {
	case "minutes":
		return d * time.Minute
	case "days":
		return d * 24 * time.Hour
	default:
		return d * time.Hour
	}
}
