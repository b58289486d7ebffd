package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"leadform/models"
)

// ErrNoEmail marks a lead that cannot be sent to RD Station because no email
// field was found. This is a skip, not a failure.
var ErrNoEmail = fmt.Errorf("no email field found in lead data")

type rdConversionRequest struct {
	EventType   string                 `json:"event_type"`
	EventFamily string                 `json:"event_family"`
	Payload     map[string]interface{} `json:"payload"`
}

// SendRDStationConversion posts a CONVERSION/CDP event merging the raw
// answer map with the configured conversion identifier. Leads without an
// email are skipped because RD Station cannot identify them.
func SendRDStationConversion(client *http.Client, baseURL string, settings models.FormSettings, lead *models.Lead) (payload string, response string, err error) {
	email, ok := FindEmail(lead.Data)
	if !ok {
		return "", "", ErrNoEmail
	}

	body := map[string]interface{}{
		"conversion_identifier": settings.RDStationConversionIdentifier,
		"email":                 email,
	}
	for key, value := range lead.Data {
		if _, exists := body[key]; !exists {
			body[key] = value
		}
	}

	request := rdConversionRequest{
		EventType:   "CONVERSION",
		EventFamily: "CDP",
		Payload:     body,
	}

	raw, err := json.Marshal(request)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	payload = string(raw)

	endpoint := fmt.Sprintf("%s/platform/conversions_client/v1/conversions?api_key=%s",
		strings.TrimSuffix(baseURL, "/"), url.QueryEscape(settings.RDStationAPIKey))

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(raw))
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
