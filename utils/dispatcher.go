package utils

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadform/config"
	"leadform/models"
)

// IntegrationLogWriter persists one audit row per channel attempt.
type IntegrationLogWriter interface {
	CreateIntegrationLog(entry *models.IntegrationLog) error
}

// InstanceFinder resolves an active WhatsApp instance referenced by form
// settings.
type InstanceFinder interface {
	FindInstance(id uint) (*models.EvolutionInstance, error)
}

// Dispatcher fans a completed lead out to every channel enabled in the
// form's settings. It runs after the HTTP response to the submitter has been
// written; nothing here ever reaches the end user.
type Dispatcher struct {
	Logs      IntegrationLogWriter
	Instances InstanceFinder
	HTTP      *http.Client
	Logger    *log.Logger

	GraphAPIBaseURL  string
	RDStationBaseURL string
	Media            MediaOptions
	Retry            RetryPolicy
}

// NewDispatcher wires a production dispatcher against the database and the
// loaded configuration.
func NewDispatcher(db *gorm.DB, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		Logs:      gormIntegrationLogs{db: db},
		Instances: gormInstances{db: db},
		HTTP:      &http.Client{},
		Logger:    logger,

		GraphAPIBaseURL:  config.AppConfig.GraphAPIBaseURL,
		RDStationBaseURL: config.AppConfig.RDStationBaseURL,
		Media: MediaOptions{
			UploadDir:     config.AppConfig.UploadDir,
			PublicBaseURL: config.AppConfig.PublicBaseURL,
		},
		Retry: DefaultRetryPolicy(config.AppConfig.RetryableErrors),
	}
}

// Dispatch runs every enabled channel concurrently and waits for all of them
// to settle. One channel's failure never blocks or fails another's; channels
// with missing configuration are logged synchronously without spawning a
// task.
func (d *Dispatcher) Dispatch(form *models.Form, lead *models.Lead) {
	dispatchID := uuid.New().String()
	settings := form.Settings

	var wg sync.WaitGroup
	spawn := func(integrationType string, run func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.logResult(form, lead, dispatchID, integrationType, "", "",
						fmt.Errorf("channel panicked: %v", r))
				}
			}()
			run()
		}()
	}

	if settings.WebhookEnabled {
		if settings.WebhookURL == "" {
			d.logResult(form, lead, dispatchID, models.IntegrationWebhook, "", "",
				errors.New("webhook enabled but no URL configured"))
		} else {
			spawn(models.IntegrationWebhook, func() { d.runWebhook(form, lead, dispatchID) })
		}
	}

	if settings.WhatsappEnabled {
		switch {
		case settings.WhatsappInstanceID == 0:
			d.logResult(form, lead, dispatchID, models.IntegrationWhatsapp, "", "",
				errors.New("whatsapp enabled but no instance configured"))
		case len(settings.MessageItems()) == 0:
			d.logResult(form, lead, dispatchID, models.IntegrationWhatsapp, "", "",
				errors.New("whatsapp enabled but no message configured"))
		default:
			spawn(models.IntegrationWhatsapp, func() { d.runWhatsapp(form, lead, dispatchID) })
		}
	}

	if settings.FacebookEnabled {
		if settings.FacebookPixelID == "" || settings.FacebookAccessToken == "" {
			d.logResult(form, lead, dispatchID, models.IntegrationFacebook, "", "",
				errors.New("facebook enabled but pixel id or access token missing"))
		} else {
			spawn(models.IntegrationFacebook, func() { d.runFacebook(form, lead, dispatchID) })
		}
	}

	if settings.RDStationEnabled {
		if settings.RDStationAPIKey == "" {
			d.logResult(form, lead, dispatchID, models.IntegrationRDStation, "", "",
				errors.New("rdstation enabled but no api key configured"))
		} else {
			spawn(models.IntegrationRDStation, func() { d.runRDStation(form, lead, dispatchID) })
		}
	}

	wg.Wait()

	LogEvent("integrations_dispatched", map[string]interface{}{
		"dispatch_id": dispatchID,
		"form_id":     form.ID,
		"lead_id":     lead.ID,
	})
}

func (d *Dispatcher) runWebhook(form *models.Form, lead *models.Lead, dispatchID string) {
	payload := WebhookPayload{
		FormID:      form.ID,
		FormName:    form.Name,
		FormSlug:    form.Slug,
		LeadID:      lead.ID,
		Data:        lead.Data,
		SubmittedAt: lead.UpdatedAt,
		Source:      lead.Source,
		IPAddress:   lead.IPAddress,
		UserAgent:   lead.UserAgent,
	}

	response, err := SendWebhook(d.HTTP, form.Settings.WebhookURL, payload)
	d.logResult(form, lead, dispatchID, models.IntegrationWebhook, form.Settings.WebhookURL, response, err)
}

func (d *Dispatcher) runWhatsapp(form *models.Form, lead *models.Lead, dispatchID string) {
	number, ok := FindPhone(lead.Data)
	if !ok {
		d.logSkipped(form, lead, dispatchID, models.IntegrationWhatsapp, "no deliverable phone field found")
		return
	}

	instance, err := d.Instances.FindInstance(form.Settings.WhatsappInstanceID)
	if err != nil {
		d.logResult(form, lead, dispatchID, models.IntegrationWhatsapp, "", "",
			fmt.Errorf("instance %d unavailable: %w", form.Settings.WhatsappInstanceID, err))
		return
	}

	client := NewEvolutionClient(instance)
	client.HTTP = d.HTTP

	seq := &WhatsappSequence{
		Client:   client,
		Number:   number,
		Items:    form.Settings.MessageItems(),
		Data:     lead.Data,
		FormName: form.Name,
		Media:    d.Media,
		Retry:    d.Retry,
	}

	err = seq.Send()
	d.logResult(form, lead, dispatchID, models.IntegrationWhatsapp, fmt.Sprintf("number=%s items=%d", number, len(seq.Items)), "", err)
}

func (d *Dispatcher) runFacebook(form *models.Form, lead *models.Lead, dispatchID string) {
	payload, response, err := SendFacebookLeadEvent(d.HTTP, d.GraphAPIBaseURL, form.Settings, lead)
	d.logResult(form, lead, dispatchID, models.IntegrationFacebook, payload, response, err)
}

func (d *Dispatcher) runRDStation(form *models.Form, lead *models.Lead, dispatchID string) {
	payload, response, err := SendRDStationConversion(d.HTTP, d.RDStationBaseURL, form.Settings, lead)
	if errors.Is(err, ErrNoEmail) {
		d.logSkipped(form, lead, dispatchID, models.IntegrationRDStation, err.Error())
		return
	}
	d.logResult(form, lead, dispatchID, models.IntegrationRDStation, payload, response, err)
}

func (d *Dispatcher) logResult(form *models.Form, lead *models.Lead, dispatchID, integrationType, payload, response string, err error) {
	entry := &models.IntegrationLog{
		FormID:          form.ID,
		LeadID:          lead.ID,
		IntegrationType: integrationType,
		Status:          models.DeliveryStatusSuccess,
		Payload:         Truncate(payload, 8192),
		Response:        Truncate(response, 8192),
		DispatchID:      dispatchID,
	}
	if err != nil {
		entry.Status = models.DeliveryStatusError
		entry.ErrorMessage = err.Error()
		LogError("integration_failed", err, map[string]interface{}{
			"dispatch_id":      dispatchID,
			"integration_type": integrationType,
			"form_id":          form.ID,
			"lead_id":          lead.ID,
		})
	}

	if logErr := d.Logs.CreateIntegrationLog(entry); logErr != nil {
		d.Logger.Printf("Failed to write integration log for lead %d: %v", lead.ID, logErr)
	}
}

func (d *Dispatcher) logSkipped(form *models.Form, lead *models.Lead, dispatchID, integrationType, reason string) {
	entry := &models.IntegrationLog{
		FormID:          form.ID,
		LeadID:          lead.ID,
		IntegrationType: integrationType,
		Status:          models.DeliveryStatusSkipped,
		ErrorMessage:    reason,
		DispatchID:      dispatchID,
	}
	if err := d.Logs.CreateIntegrationLog(entry); err != nil {
		d.Logger.Printf("Failed to write integration log for lead %d: %v", lead.ID, err)
	}
}

// gorm-backed stores

type gormIntegrationLogs struct{ db *gorm.DB }

func (g gormIntegrationLogs) CreateIntegrationLog(entry *models.IntegrationLog) error {
	return g.db.Create(entry).Error
}

type gormInstances struct{ db *gorm.DB }

func (g gormInstances) FindInstance(id uint) (*models.EvolutionInstance, error) {
	var instance models.EvolutionInstance
	if err := g.db.Where("id = ? AND is_active = ?", id, true).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}
