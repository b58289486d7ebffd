package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookPayload is the JSON body posted to a form's configured webhook URL
// on every completed submission.
type WebhookPayload struct {
	FormID      uint                   `json:"form_id"`
	FormName    string                 `json:"form_name"`
	FormSlug    string                 `json:"form_slug"`
	LeadID      uint                   `json:"lead_id"`
	Data        map[string]interface{} `json:"data"`
	SubmittedAt time.Time              `json:"submitted_at"`
	Source      string                 `json:"source"`
	IPAddress   string                 `json:"ip_address"`
	UserAgent   string                 `json:"user_agent"`
}

// SendWebhook posts the payload and treats any 2xx as success. This channel
// has no retry; a failure is logged and dropped.
func SendWebhook(client *http.Client, url string, payload WebhookPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(respBody), fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, Truncate(string(respBody), 512))
	}
	return string(respBody), nil
}
