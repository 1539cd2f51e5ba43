package repository

import (
	"restaurant_platform/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(entry *models.NotificationLog) error
	GetByMessageID(messageID string) (*models.NotificationLog, error)
	UpdateByMessageID(messageID string, fields map[string]interface{}) (bool, error)
	GetByOrderID(orderID uint) ([]models.NotificationLog, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(entry *models.NotificationLog) error {
	return r.db.Create(entry).Error
}

func (r *notificationRepository) GetByMessageID(messageID string) (*models.NotificationLog, error) {
	var entry models.NotificationLog
	err := r.db.Where("provider_message_id = ?", messageID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *notificationRepository) UpdateByMessageID(messageID string, fields map[string]interface{}) (bool, error) {
	tx := r.db.Model(&models.NotificationLog{}).
		Where("provider_message_id = ?", messageID).
		Updates(fields)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *notificationRepository) GetByOrderID(orderID uint) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}
