package models

import (
	"strings"

	"gorm.io/gorm"
)

// EvolutionInstance holds the credentials of one WhatsApp instance on an
// Evolution-API-compatible server. Instances are provisioned externally; the
// engine only reads active instances referenced by form settings.
type EvolutionInstance struct {
	gorm.Model
	Name           string `gorm:"not null;uniqueIndex" json:"name"`
	APIURL         string `gorm:"not null" json:"api_url"`
	InternalAPIURL string `json:"internal_api_url"`
	APIKey         string `gorm:"not null" json:"-"`
	DefaultNumber  string `json:"default_number"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`
}

// BaseURL returns the server URL to call, preferring the internal address
// when one is configured (private network reachability).
func (i *EvolutionInstance) BaseURL() string {
	url := i.APIURL
	if i.InternalAPIURL != "" {
		url = i.InternalAPIURL
	}
	return strings.TrimSuffix(url, "/")
}
