package models

import (
	"gorm.io/gorm"
)

// Form represents a published form whose submissions feed the dispatch engine.
// Form design (fields, styling, branding) is owned by the admin CRUD layer;
// the engine only reads Slug and Settings.
type Form struct {
	gorm.Model
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"not null;uniqueIndex" json:"slug"`

	// Channel configuration stored as JSON
	Settings FormSettings `gorm:"type:jsonb;serializer:json" json:"settings"`

	// Relations
	Leads     []Lead                `gorm:"foreignKey:FormID" json:"leads,omitempty"`
	Campaigns []RemarketingCampaign `gorm:"foreignKey:FormID" json:"campaigns,omitempty"`
}

// FormSettings holds the per-form channel toggles and credentials.
type FormSettings struct {
	// Webhook channel
	WebhookEnabled bool   `json:"webhook_enabled"`
	WebhookURL     string `json:"webhook_url"`

	// WhatsApp channel (lead-facing confirmation messages)
	WhatsappEnabled    bool          `json:"whatsapp_enabled"`
	WhatsappInstanceID uint          `json:"whatsapp_instance_id"`
	WhatsappMessage    string        `json:"whatsapp_message"`
	WhatsappMessages   []MessageItem `json:"whatsapp_messages,omitempty"`

	// Facebook Conversions API
	FacebookEnabled       bool   `json:"facebook_enabled"`
	FacebookPixelID       string `json:"facebook_pixel_id"`
	FacebookAccessToken   string `json:"facebook_access_token"`
	FacebookTestEventCode string `json:"facebook_test_event_code"`
	EventSourceURL        string `json:"event_source_url"`

	// RD Station Conversions API
	RDStationEnabled              bool   `json:"rdstation_enabled"`
	RDStationAPIKey               string `json:"rdstation_api_key"`
	RDStationConversionIdentifier string `json:"rdstation_conversion_identifier"`
}

// MessageItem is one entry of a structured multi-message WhatsApp sequence.
type MessageItem struct {
	Type     string `json:"type"` // text, image, video, audio, document
	Content  string `json:"content"`
	Caption  string `json:"caption,omitempty"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// MessageItems returns the configured WhatsApp sequence, falling back to a
// single text item built from the plain template.
func (s FormSettings) MessageItems() []MessageItem {
	if len(s.WhatsappMessages) > 0 {
		return s.WhatsappMessages
	}
	if s.WhatsappMessage != "" {
		return []MessageItem{{Type: "text", Content: s.WhatsappMessage}}
	}
	return nil
}
