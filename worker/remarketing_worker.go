package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"leadform/models"
	"leadform/utils"
)

// SequenceSender delivers one ordered WhatsApp message sequence to a single
// recipient. Faked in tests.
type SequenceSender interface {
	Send(instance *models.EvolutionInstance, number string, items []models.MessageItem, data map[string]interface{}, formName string) error
}

// RemarketingWorker is the periodic driver of the remarketing pipeline. On
// each tick it walks active campaigns, their steps and the leads due for each
// step, sends via the WhatsApp adapter and records every attempt in the
// delivery ledger.
//
// The design assumes a single active worker process; two replicas can
// double-send before either ledger write lands.
type RemarketingWorker struct {
	Store    Store
	Sender   SequenceSender
	Logger   *log.Logger
	Interval time.Duration

	// now is injectable for tests; nil means time.Now
	now func() time.Time
}

func NewRemarketingWorker(store Store, sender SequenceSender, logger *log.Logger, interval time.Duration) *RemarketingWorker {
	return &RemarketingWorker{
		Store:    store,
		Sender:   sender,
		Logger:   logger,
		Interval: interval,
	}
}

// Start runs one tick immediately, then on a fixed interval until the
// context is cancelled. Each tick is independent and best-effort.
func (rw *RemarketingWorker) Start(ctx context.Context) {
	rw.Logger.Println("Remarketing worker started")

	rw.Tick()

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Println("Remarketing worker shutting down...")
			return
		case <-ticker.C:
			rw.Tick()
		}
	}
}

// Tick processes every active campaign once. A failure inside one campaign
// is contained at the campaign boundary and never aborts the tick.
func (rw *RemarketingWorker) Tick() {
	campaigns, err := rw.Store.ActiveCampaigns()
	if err != nil {
		rw.Logger.Printf("Error fetching active campaigns: %v", err)
		return
	}

	for i := range campaigns {
		rw.processCampaign(&campaigns[i])
	}
}

func (rw *RemarketingWorker) processCampaign(campaign *models.RemarketingCampaign) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("campaign %d processing panicked: %v", campaign.ID, r)
			rw.Logger.Printf("%v", err)
			sentry.CaptureException(err)
		}
	}()

	form, err := rw.Store.FormByID(campaign.FormID)
	if err != nil {
		rw.Logger.Printf("Error loading form %d for campaign %d: %v", campaign.FormID, campaign.ID, err)
		return
	}

	for i := range campaign.Steps {
		rw.processStep(campaign, form, &campaign.Steps[i])
	}
}

func (rw *RemarketingWorker) processStep(campaign *models.RemarketingCampaign, form *models.Form, step *models.RemarketingStep) {
	lower, upper := StepWindow(rw.clock(), step.Delay())

	leads, err := rw.Store.EligibleLeads(campaign, step, lower, upper)
	if err != nil {
		rw.Logger.Printf("Error resolving eligible leads for campaign %d step %d: %v", campaign.ID, step.ID, err)
		return
	}

	for i := range leads {
		rw.processLead(campaign, form, step, &leads[i])
	}
}

func (rw *RemarketingWorker) processLead(campaign *models.RemarketingCampaign, form *models.Form, step *models.RemarketingStep, lead *models.Lead) {
	// Pre-send read of the ledger guards against a tick overlapping a slow
	// predecessor; a (lead, step) success is never re-attempted.
	delivered, err := rw.Store.HasSuccessfulDelivery(lead.ID, step.ID)
	if err != nil {
		rw.Logger.Printf("Error checking delivery ledger for lead %d step %d: %v", lead.ID, step.ID, err)
		return
	}
	if delivered {
		return
	}

	number, ok := utils.FindPhone(lead.Data)
	if !ok {
		rw.logAttempt(campaign, step, lead, models.DeliveryStatusSkipped, "no deliverable phone field found")
		return
	}

	instance, err := rw.Store.FindInstance(form.Settings.WhatsappInstanceID)
	if err != nil {
		rw.logAttempt(campaign, step, lead, models.DeliveryStatusError,
			fmt.Sprintf("instance %d unavailable: %v", form.Settings.WhatsappInstanceID, err))
		return
	}

	items := []models.MessageItem{{
		Type:    step.MessageType,
		Content: step.MessageContent,
	}}

	if err := rw.Sender.Send(instance, number, items, lead.Data, form.Name); err != nil {
		rw.logAttempt(campaign, step, lead, models.DeliveryStatusError, err.Error())
		return
	}

	rw.logAttempt(campaign, step, lead, models.DeliveryStatusSuccess, "")
}

func (rw *RemarketingWorker) logAttempt(campaign *models.RemarketingCampaign, step *models.RemarketingStep, lead *models.Lead, status, errorMessage string) {
	entry := &models.RemarketingLog{
		LeadID:       lead.ID,
		CampaignID:   campaign.ID,
		StepID:       step.ID,
		SentAt:       rw.clock(),
		Status:       status,
		ErrorMessage: errorMessage,
	}
	if err := rw.Store.CreateRemarketingLog(entry); err != nil {
		rw.Logger.Printf("Failed to write remarketing log for lead %d step %d: %v", lead.ID, step.ID, err)
	}
}

func (rw *RemarketingWorker) clock() time.Time {
	if rw.now != nil {
		return rw.now()
	}
	return time.Now()
}

// EvolutionSequenceSender is the production SequenceSender: it builds an
// Evolution API client per instance and reuses the multi-item send path of
// the submission pipeline.
type EvolutionSequenceSender struct {
	Media utils.MediaOptions
	Retry utils.RetryPolicy
}

func (es *EvolutionSequenceSender) Send(instance *models.EvolutionInstance, number string, items []models.MessageItem, data map[string]interface{}, formName string) error {
	seq := &utils.WhatsappSequence{
		Client:   utils.NewEvolutionClient(instance),
		Number:   number,
		Items:    items,
		Data:     data,
		FormName: formName,
		Media:    es.Media,
		Retry:    es.Retry,
	}
	return seq.Send()
}
