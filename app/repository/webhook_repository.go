package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/notarius-app/notarius/app/models"
)

// webhookRepository implements WebhookRepository using GORM
type webhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new webhook repository instance
func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

func (r *webhookRepository) CreateEvent(event *models.WebhookEvent) error {
	return r.db.Create(event).Error
}

func (r *webhookRepository) GetByWebhookID(webhookID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.Where("webhook_id = ?", webhookID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookRepository) FindProcessed(provider, externalEventID string) (*models.WebhookEvent, error) {
	if externalEventID == "" {
		return nil, nil
	}
	var event models.WebhookEvent
	err := r.db.
		Where("provider = ? AND external_event_id = ? AND status = ?",
			provider, externalEventID, models.WebhookStatusProcessed).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookRepository) Update(event *models.WebhookEvent) error {
	return r.db.Save(event).Error
}

func (r *webhookRepository) DueRetries(now time.Time, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ? AND retry_count < ?",
			models.WebhookStatusFailed, now, models.DefaultMaxWebhookRetries).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *webhookRepository) PurgeExpired(now time.Time) (int64, error) {
	tx := r.db.
		Where("expires_at <= ? AND status IN ?", now,
			[]string{models.WebhookStatusProcessed, models.WebhookStatusDuplicate}).
		Delete(&models.WebhookEvent{})
	return tx.RowsAffected, tx.Error
}
