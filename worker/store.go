package worker

import (
	"time"

	"gorm.io/gorm"

	"leadform/models"
)

// EligibilityWindow bounds how far past its due time a step may still fire.
// It keeps a backlog of very old leads from all firing at once after
// downtime; a missed tick is absorbed into the next one's lookback.
const EligibilityWindow = 24 * time.Hour

// StepWindow computes the absolute anchor-timestamp bounds for a step at a
// given instant. A lead is due once its anchor falls inside (lower, upper]:
// strictly after lower, at or before upper.
func StepWindow(now time.Time, delay time.Duration) (lower, upper time.Time) {
	upper = now.Add(-delay)
	lower = upper.Add(-EligibilityWindow)
	return lower, upper
}

// InWindow applies the (lower, upper] bounds to one anchor timestamp.
func InWindow(anchor, lower, upper time.Time) bool {
	return anchor.After(lower) && !anchor.After(upper)
}

// Store is the persistence surface the scheduler needs per tick. Everything
// is re-read from storage on every tick so a crash or restart loses nothing
// but time.
type Store interface {
	// ActiveCampaigns returns all active campaigns with their steps loaded.
	ActiveCampaigns() ([]models.RemarketingCampaign, error)

	// FormByID loads the form a campaign is scoped to.
	FormByID(id uint) (*models.Form, error)

	// EligibleLeads returns the campaign's audience whose anchor timestamp
	// falls inside (lower, upper] and who have no successful delivery
	// recorded for the step.
	EligibleLeads(campaign *models.RemarketingCampaign, step *models.RemarketingStep, lower, upper time.Time) ([]models.Lead, error)

	// HasSuccessfulDelivery is the pre-send idempotency check on the
	// (lead, step) pair.
	HasSuccessfulDelivery(leadID, stepID uint) (bool, error)

	// CreateRemarketingLog appends one attempt to the delivery ledger.
	CreateRemarketingLog(entry *models.RemarketingLog) error

	// FindInstance resolves the active WhatsApp instance for a form.
	FindInstance(id uint) (*models.EvolutionInstance, error)
}

// GormStore is the production Store backed by Postgres.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) ActiveCampaigns() ([]models.RemarketingCampaign, error) {
	var campaigns []models.RemarketingCampaign
	err := s.DB.Where("is_active = ?", true).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Find(&campaigns).Error
	return campaigns, err
}

func (s *GormStore) FormByID(id uint) (*models.Form, error) {
	var form models.Form
	if err := s.DB.First(&form, id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (s *GormStore) EligibleLeads(campaign *models.RemarketingCampaign, step *models.RemarketingStep, lower, upper time.Time) ([]models.Lead, error) {
	// recovery campaigns anchor on the last interaction, drip campaigns on
	// the submission time
	anchorColumn := "leads.created_at"
	if campaign.TargetsPartialLeads() {
		anchorColumn = "leads.updated_at"
	}

	var leads []models.Lead
	err := s.DB.
		Where("leads.form_id = ? AND leads.is_partial = ?", campaign.FormID, campaign.TargetsPartialLeads()).
		Where(anchorColumn+" > ? AND "+anchorColumn+" <= ?", lower, upper).
		Where("NOT EXISTS (SELECT 1 FROM remarketing_logs rl WHERE rl.lead_id = leads.id AND rl.step_id = ? AND rl.status = ? AND rl.deleted_at IS NULL)",
			step.ID, models.DeliveryStatusSuccess).
		Find(&leads).Error
	return leads, err
}

func (s *GormStore) HasSuccessfulDelivery(leadID, stepID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.RemarketingLog{}).
		Where("lead_id = ? AND step_id = ? AND status = ?", leadID, stepID, models.DeliveryStatusSuccess).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateRemarketingLog(entry *models.RemarketingLog) error {
	return s.DB.Create(entry).Error
}

func (s *GormStore) FindInstance(id uint) (*models.EvolutionInstance, error) {
	var instance models.EvolutionInstance
	if err := s.DB.Where("id = ? AND is_active = ?", id, true).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}
