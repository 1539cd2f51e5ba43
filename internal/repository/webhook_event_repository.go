package repository

import (
	"time"

	"restaurant_platform/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	Exists(eventID string) (bool, error)
	MarkProcessed(eventID, eventType string) (bool, error)
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Exists(eventID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PaymentWebhookEvent{}).Where("event_id = ?", eventID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed inserts the provider event id, ignoring conflicts. It
// returns false when the event was already recorded, which callers treat
// as "skip, already applied".
func (r *webhookEventRepository) MarkProcessed(eventID, eventType string) (bool, error) {
	event := models.PaymentWebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now(),
	}
	tx := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
