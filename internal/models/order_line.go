package models

import (
	"time"
)

// OrderLine snapshots name and unit price at order time. Later menu edits
// must not change existing orders.
type OrderLine struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OrderID     uint      `json:"order_id" gorm:"not null;index"`
	MenuItemID  *uint     `json:"menu_item_id"`
	BundleID    *uint     `json:"bundle_id"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	UnitPrice   float64   `json:"unit_price" gorm:"not null"`
	TotalPrice  float64   `json:"total_price" gorm:"not null"`
	Modifiers   string    `json:"modifiers" gorm:"type:text"`
	Notes       string    `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}
