package models

import (
	"time"
)

// PaymentWebhookEvent deduplicates processor webhook deliveries. The
// provider event id is the primary key, so a replayed event inserts zero
// rows and the handler becomes a no-op.
type PaymentWebhookEvent struct {
	EventID     string    `json:"event_id" gorm:"primaryKey;size:128"`
	EventType   string    `json:"event_type" gorm:"size:64;index"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
}
