package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadform/models"
)

// facebookUserData carries the SHA-256 hashed PII required by the
// Conversions API matching rules.
type facebookUserData struct {
	Email     []string `json:"em,omitempty"`
	Phone     []string `json:"ph,omitempty"`
	FirstName []string `json:"fn,omitempty"`
	LastName  []string `json:"ln,omitempty"`
	ClientIP  string   `json:"client_ip_address,omitempty"`
	UserAgent string   `json:"client_user_agent,omitempty"`
}

type facebookEvent struct {
	EventName      string                 `json:"event_name"`
	EventTime      int64                  `json:"event_time"`
	ActionSource   string                 `json:"action_source"`
	EventSourceURL string                 `json:"event_source_url,omitempty"`
	UserData       facebookUserData       `json:"user_data"`
	CustomData     map[string]interface{} `json:"custom_data,omitempty"`
}

type facebookEventRequest struct {
	Data          []facebookEvent `json:"data"`
	TestEventCode string          `json:"test_event_code,omitempty"`
}

// SendFacebookLeadEvent submits a server-side Lead event to the Meta
// Conversions API, hashing identifiable fields per platform requirements.
// Returns the serialized payload for the audit log alongside the provider
// response.
func SendFacebookLeadEvent(client *http.Client, baseURL string, settings models.FormSettings, lead *models.Lead) (payload string, response string, err error) {
	userData := facebookUserData{
		ClientIP:  lead.IPAddress,
		UserAgent: lead.UserAgent,
	}
	if email, ok := FindEmail(lead.Data); ok {
		userData.Email = []string{hashPII(email)}
	}
	if phone, ok := FindPhone(lead.Data); ok {
		userData.Phone = []string{hashPII(phone)}
	}
	if name, ok := FindName(lead.Data); ok {
		first, last := SplitName(name)
		if first != "" {
			userData.FirstName = []string{hashPII(first)}
		}
		if last != "" {
			userData.LastName = []string{hashPII(last)}
		}
	}

	event := facebookEvent{
		EventName:      "Lead",
		EventTime:      time.Now().Unix(),
		ActionSource:   "website",
		EventSourceURL: settings.EventSourceURL,
		UserData:       userData,
		CustomData: map[string]interface{}{
			"lead_id": lead.ID,
			"form_id": lead.FormID,
		},
	}

	request := facebookEventRequest{
		Data:          []facebookEvent{event},
		TestEventCode: settings.FacebookTestEventCode,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	payload = string(body)

	url := fmt.Sprintf("%s/%s/events?access_token=%s",
		strings.TrimSuffix(baseURL, "/"), settings.FacebookPixelID, settings.FacebookAccessToken)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return payload, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return payload, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	response = string(respBody)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return payload, response, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, Truncate(response, 512))
	}
	return payload, response, nil
}

// hashPII normalizes and hashes one identity field the way the Conversions
// API expects: trimmed, lowercased, SHA-256 hex.
func hashPII(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
