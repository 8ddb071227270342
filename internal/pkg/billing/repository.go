package billing

import (
	"time"

	"github.com/conceptra/autopay/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the webhook processor.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	UpsertSubscriptionMirror(rec *models.SubscriptionRecord) error
	GetSubscriptionMirror(provider, subscriptionID string) (*models.SubscriptionRecord, error)
	ListRecentEvents(limit int) ([]models.WebhookEvent, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) UpsertSubscriptionMirror(rec *models.SubscriptionRecord) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_id",
			"status",
			"current_plan_id",
			"is_upgraded",
			"activated_at",
			"upgraded_at",
			"starts_at",
			"updated_at",
		}),
	}).Create(rec).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("provider = ? AND subscription_id = ?", rec.Provider, rec.SubscriptionID).
		First(rec).Error
}

func (r *gormRepository) GetSubscriptionMirror(provider, subscriptionID string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := r.db.Where("provider = ? AND subscription_id = ?", provider, subscriptionID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) ListRecentEvents(limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.WebhookEvent
	err := r.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
