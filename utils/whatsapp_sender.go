package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadform/models"
)

const diagnosticsTimeout = 10 * time.Second

// EvolutionClient talks to one WhatsApp instance on an
// Evolution-API-compatible server.
type EvolutionClient struct {
	baseURL  string
	apiKey   string
	instance string

	// HTTP is overridable for tests; nil means http.DefaultClient
	HTTP *http.Client
}

// NewEvolutionClient builds a client for an instance, preferring its internal
// API URL when configured.
func NewEvolutionClient(instance *models.EvolutionInstance) *EvolutionClient {
	return &EvolutionClient{
		baseURL:  instance.BaseURL(),
		apiKey:   instance.APIKey,
		instance: instance.Name,
	}
}

type textMessageRequest struct {
	Number      string `json:"number"`
	Text        string `json:"text"`
	Delay       int    `json:"delay,omitempty"`
	LinkPreview bool   `json:"linkPreview"`
}

type mediaMessageRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype,omitempty"`
	Media     string `json:"media"`
	FileName  string `json:"fileName,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Delay     int    `json:"delay,omitempty"`
}

type audioMessageRequest struct {
	Number string `json:"number"`
	Audio  string `json:"audio"`
	Delay  int    `json:"delay,omitempty"`
}

// SendText delivers a plain text message. delayMs is forwarded to the
// provider so typing presence matches the configured pacing.
func (ec *EvolutionClient) SendText(number, text string, delayMs int) error {
	body := textMessageRequest{
		Number:      number,
		Text:        text,
		Delay:       delayMs,
		LinkPreview: true,
	}
	return ec.post(fmt.Sprintf("/message/sendText/%s", ec.instance), body)
}

// SendMedia delivers an image, video or document message. media may be a
// base64 payload or a publicly reachable URL.
func (ec *EvolutionClient) SendMedia(number, mediaType string, media MediaPayload, caption string, delayMs int) error {
	body := mediaMessageRequest{
		Number:    number,
		MediaType: mediaType,
		MimeType:  media.MimeType,
		Media:     media.Media,
		FileName:  media.FileName,
		Caption:   caption,
		Delay:     delayMs,
	}
	return ec.post(fmt.Sprintf("/message/sendMedia/%s", ec.instance), body)
}

// SendAudio delivers a voice-note style audio message.
func (ec *EvolutionClient) SendAudio(number, audio string, delayMs int) error {
	body := audioMessageRequest{
		Number: number,
		Audio:  audio,
		Delay:  delayMs,
	}
	return ec.post(fmt.Sprintf("/message/sendWhatsAppAudio/%s", ec.instance), body)
}

// ConnectionState queries the instance connection status. Diagnostics calls
// use a bounded timeout so a stuck provider cannot hang the caller.
func (ec *EvolutionClient) ConnectionState() (string, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/instance/connectionState/%s", ec.baseURL, ec.instance), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("apikey", ec.apiKey)

	client := &http.Client{Timeout: diagnosticsTimeout}
	if ec.HTTP != nil {
		client = &http.Client{Timeout: diagnosticsTimeout, Transport: ec.HTTP.Transport}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, Truncate(string(bodyBytes), 512))
	}

	var state struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := json.Unmarshal(bodyBytes, &state); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return state.Instance.State, nil
}

// Connect requests a fresh pairing QR code for an instance that is not yet
// linked to a device.
func (ec *EvolutionClient) Connect() (string, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/instance/connect/%s", ec.baseURL, ec.instance), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("apikey", ec.apiKey)

	client := &http.Client{Timeout: diagnosticsTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, Truncate(string(bodyBytes), 512))
	}

	var connect struct {
		Base64 string `json:"base64"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(bodyBytes, &connect); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if connect.Base64 != "" {
		return connect.Base64, nil
	}
	return connect.Code, nil
}

func (ec *EvolutionClient) post(path string, body interface{}) error {
	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, ec.baseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("apikey", ec.apiKey)

	client := ec.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		// The response body is kept in the error text so session-class
		// failures can be recognized by the retry policy
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, Truncate(string(bodyBytes), 512))
	}
	return nil
}
