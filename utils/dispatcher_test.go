package utils

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"leadform/models"
)

type fakeLogWriter struct {
	mu      sync.Mutex
	entries []models.IntegrationLog
}

func (f *fakeLogWriter) CreateIntegrationLog(entry *models.IntegrationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogWriter) byType(integrationType string) (models.IntegrationLog, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, entry := range f.entries {
		if entry.IntegrationType == integrationType {
			return entry, true
		}
	}
	return models.IntegrationLog{}, false
}

type fakeInstances struct {
	instance *models.EvolutionInstance
}

func (f *fakeInstances) FindInstance(id uint) (*models.EvolutionInstance, error) {
	return f.instance, nil
}

func newTestDispatcher(logs *fakeLogWriter, instances InstanceFinder, graphURL, rdURL string) *Dispatcher {
	retry := DefaultRetryPolicy(nil)
	retry.Sleep = func(time.Duration) {}
	return &Dispatcher{
		Logs:             logs,
		Instances:        instances,
		HTTP:             &http.Client{},
		Logger:           log.New(io.Discard, "", 0),
		GraphAPIBaseURL:  graphURL,
		RDStationBaseURL: rdURL,
		Retry:            retry,
	}
}

func okServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatchChannelIsolation(t *testing.T) {
	// The webhook endpoint fails; WhatsApp and Facebook must still run and
	// log their own outcomes
	webhookSrv := okServer(t, http.StatusInternalServerError)
	evolutionSrv := okServer(t, http.StatusCreated)
	graphSrv := okServer(t, http.StatusOK)

	logs := &fakeLogWriter{}
	instances := &fakeInstances{instance: &models.EvolutionInstance{
		Name:   "main",
		APIURL: evolutionSrv.URL,
		APIKey: "secret",
	}}

	d := newTestDispatcher(logs, instances, graphSrv.URL, "")

	form := &models.Form{
		Name: "Promo",
		Slug: "promo",
		Settings: models.FormSettings{
			WebhookEnabled:      true,
			WebhookURL:          webhookSrv.URL,
			WhatsappEnabled:     true,
			WhatsappInstanceID:  1,
			WhatsappMessage:     "Oi {{name}}",
			FacebookEnabled:     true,
			FacebookPixelID:     "12345",
			FacebookAccessToken: "token",
		},
	}
	lead := &models.Lead{
		FormID: form.ID,
		Data: map[string]interface{}{
			"Nome":     "Ana Souza",
			"Email":    "ana@example.com",
			"Telefone": "(11) 98888-7777",
		},
	}

	d.Dispatch(form, lead)

	if len(logs.entries) != 3 {
		t.Fatalf("expected 3 integration log rows, got %d", len(logs.entries))
	}

	webhookLog, ok := logs.byType(models.IntegrationWebhook)
	if !ok {
		t.Fatal("missing webhook log row")
	}
	if webhookLog.Status != models.DeliveryStatusError {
		t.Fatalf("expected webhook error, got %q", webhookLog.Status)
	}

	for _, integrationType := range []string{models.IntegrationWhatsapp, models.IntegrationFacebook} {
		entry, ok := logs.byType(integrationType)
		if !ok {
			t.Fatalf("missing %s log row", integrationType)
		}
		if entry.Status != models.DeliveryStatusSuccess {
			t.Fatalf("expected %s success despite webhook failure, got %q (%s)", integrationType, entry.Status, entry.ErrorMessage)
		}
	}
}

func TestDispatchMissingWebhookURLIsConfigError(t *testing.T) {
	logs := &fakeLogWriter{}
	d := newTestDispatcher(logs, &fakeInstances{}, "", "")

	form := &models.Form{Settings: models.FormSettings{WebhookEnabled: true}}
	d.Dispatch(form, &models.Lead{})

	if len(logs.entries) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(logs.entries))
	}
	if logs.entries[0].Status != models.DeliveryStatusError {
		t.Fatalf("expected error status, got %q", logs.entries[0].Status)
	}
}

func TestDispatchWhatsappSkippedWithoutPhone(t *testing.T) {
	evolutionSrv := okServer(t, http.StatusCreated)

	logs := &fakeLogWriter{}
	instances := &fakeInstances{instance: &models.EvolutionInstance{
		Name:   "main",
		APIURL: evolutionSrv.URL,
		APIKey: "secret",
	}}
	d := newTestDispatcher(logs, instances, "", "")

	form := &models.Form{Settings: models.FormSettings{
		WhatsappEnabled:    true,
		WhatsappInstanceID: 1,
		WhatsappMessage:    "Oi",
	}}
	lead := &models.Lead{Data: map[string]interface{}{"Nome": "Ana"}}

	d.Dispatch(form, lead)

	entry, ok := logs.byType(models.IntegrationWhatsapp)
	if !ok {
		t.Fatal("missing whatsapp log row")
	}
	if entry.Status != models.DeliveryStatusSkipped {
		t.Fatalf("expected skipped status, got %q", entry.Status)
	}
}

func TestDispatchRDStationSkippedWithoutEmail(t *testing.T) {
	rdSrv := okServer(t, http.StatusOK)

	logs := &fakeLogWriter{}
	d := newTestDispatcher(logs, &fakeInstances{}, "", rdSrv.URL)

	form := &models.Form{Settings: models.FormSettings{
		RDStationEnabled: true,
		RDStationAPIKey:  "key",
	}}
	lead := &models.Lead{Data: map[string]interface{}{"Telefone": "(11) 98888-7777"}}

	d.Dispatch(form, lead)

	entry, ok := logs.byType(models.IntegrationRDStation)
	if !ok {
		t.Fatal("missing rdstation log row")
	}
	if entry.Status != models.DeliveryStatusSkipped {
		t.Fatalf("expected skipped status, got %q", entry.Status)
	}
}
