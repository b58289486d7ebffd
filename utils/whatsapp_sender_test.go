package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadform/models"
)

type recordedRequest struct {
	path string
	body map[string]interface{}
}

func recordingServer(t *testing.T) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	requests := []recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		requests = append(requests, recordedRequest{path: r.URL.Path, body: body})
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestWhatsappSequenceSendsItemsInOrderWithPacing(t *testing.T) {
	srv, requests := recordingServer(t)

	instance := &models.EvolutionInstance{Name: "main", APIURL: srv.URL, APIKey: "secret"}
	retry := DefaultRetryPolicy(nil)
	retry.Sleep = func(time.Duration) {}

	seq := &WhatsappSequence{
		Client: NewEvolutionClient(instance),
		Number: "11988887777",
		Items: []models.MessageItem{
			{Type: "text", Content: "Oi {{name}}"},
			{Type: "image", Content: "https://cdn.example.org/banner.png", MimeType: "image/png", Caption: "Confira"},
		},
		Data:     map[string]interface{}{"name": "Ana"},
		FormName: "Promo",
		Media:    MediaOptions{PublicBaseURL: "https://forms.example.com"},
		Retry:    retry,
	}

	if err := seq.Send(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(*requests))
	}

	first := (*requests)[0]
	if first.path != "/message/sendText/main" {
		t.Fatalf("unexpected first endpoint %q", first.path)
	}
	if first.body["text"] != "Oi Ana" {
		t.Fatalf("expected composed text, got %v", first.body["text"])
	}
	if first.body["delay"] != float64(FirstItemDelayMs) {
		t.Fatalf("expected first-item delay %d, got %v", FirstItemDelayMs, first.body["delay"])
	}

	second := (*requests)[1]
	if second.path != "/message/sendMedia/main" {
		t.Fatalf("unexpected second endpoint %q", second.path)
	}
	if second.body["mediatype"] != "image" {
		t.Fatalf("expected image mediatype, got %v", second.body["mediatype"])
	}
	if second.body["delay"] != float64(NextItemDelayMs) {
		t.Fatalf("expected subsequent delay %d, got %v", NextItemDelayMs, second.body["delay"])
	}
}

func TestWhatsappSequenceAbortsOnItemFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid number"}`))
	}))
	t.Cleanup(srv.Close)

	instance := &models.EvolutionInstance{Name: "main", APIURL: srv.URL, APIKey: "secret"}
	retry := DefaultRetryPolicy(nil)
	retry.Sleep = func(time.Duration) {}

	seq := &WhatsappSequence{
		Client: NewEvolutionClient(instance),
		Number: "11988887777",
		Items:  []models.MessageItem{{Type: "text", Content: "a"}, {Type: "text", Content: "b"}},
		Retry:  retry,
	}

	if err := seq.Send(); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected remaining items not to be sent after a permanent failure, got %d calls", calls)
	}
}

func TestEvolutionClientPrefersInternalURL(t *testing.T) {
	instance := &models.EvolutionInstance{
		Name:           "main",
		APIURL:         "https://public.example.com/",
		InternalAPIURL: "http://evolution.internal:8080/",
	}
	if instance.BaseURL() != "http://evolution.internal:8080" {
		t.Fatalf("expected internal URL preference, got %q", instance.BaseURL())
	}
}
