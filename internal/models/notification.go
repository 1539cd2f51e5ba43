package models

import (
	"time"
)

// NotificationLog records one outbound SMS attempt. Provider delivery
// callbacks update the row matched on ProviderMessageID instead of
// appending a new one.
type NotificationLog struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	OrderID           *uint     `json:"order_id" gorm:"index"`
	Channel           string    `json:"channel" gorm:"default:'sms'"`
	Provider          string    `json:"provider"`
	Phone             string    `json:"phone"`
	Template          string    `json:"template"`
	Status            string    `json:"status"`
	ProviderMessageID string    `json:"provider_message_id" gorm:"index"`
	Error             string    `json:"error" gorm:"type:text"`
	Payload           string    `json:"payload" gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
