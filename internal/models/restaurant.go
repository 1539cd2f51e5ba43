package models

import (
	"time"

	"gorm.io/gorm"
)

type Restaurant struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Slug               string         `json:"slug" gorm:"unique;not null"`
	Name               string         `json:"name" gorm:"not null"`
	Email              string         `json:"email"`
	IsActive           bool           `json:"is_active" gorm:"default:true"`
	Currency           string         `json:"currency" gorm:"size:3;default:'usd'"`
	TaxPercent         float64        `json:"tax_percent" gorm:"default:0"`
	CardFeePercent     float64        `json:"card_fee_percent" gorm:"default:0"`
	PlatformFeePercent float64        `json:"platform_fee_percent" gorm:"default:0"`
	StripeAccountID    string         `json:"stripe_account_id" gorm:"index"`
	APIKeyHash         string         `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
