package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Lead represents a captured form response, partial or complete.
//
// A row is created on the first partial save or on final submit. Partial rows
// are upgraded in place when the submit carries a matching partial_lead_id;
// a completed lead is never reverted to partial.
type Lead struct {
	gorm.Model
	FormID uint `gorm:"not null;index" json:"form_id"`

	// Free-form answer map keyed by field label
	Data map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"data"`

	Source    string `json:"source"` // direct, embed, api, etc.
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	IsPartial bool `gorm:"default:false;index" json:"is_partial"`

	// Relations
	Form Form `json:"-"`
}

// Answer returns the value for a field label as a string, empty when absent.
func (l *Lead) Answer(key string) string {
	if l.Data == nil {
		return ""
	}
	if v, ok := l.Data[key]; ok {
		return ValueToString(v)
	}
	return ""
}

// ValueToString renders a free-form answer value for message templates and
// provider payloads.
func ValueToString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; render integers without a decimal part
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
