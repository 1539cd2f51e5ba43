package models

import (
	"time"

	"gorm.io/gorm"
)

type MenuItem struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	RestaurantID uint           `json:"restaurant_id" gorm:"not null;index"`
	Name         string         `json:"name" gorm:"not null"`
	Description  string         `json:"description" gorm:"type:text"`
	Price        float64        `json:"price" gorm:"not null"`
	IsAvailable  bool           `json:"is_available" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// MenuBundle is a fixed-price combination of menu items sold as one line.
type MenuBundle struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	RestaurantID uint             `json:"restaurant_id" gorm:"not null;index"`
	Name         string           `json:"name" gorm:"not null"`
	Description  string           `json:"description" gorm:"type:text"`
	Price        float64          `json:"price" gorm:"not null"`
	IsAvailable  bool             `json:"is_available" gorm:"default:true"`
	Items        []MenuBundleItem `json:"items,omitempty" gorm:"foreignKey:BundleID"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `json:"deleted_at" gorm:"index"`
}

type MenuBundleItem struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	BundleID   uint `json:"bundle_id" gorm:"not null;index"`
	MenuItemID uint `json:"menu_item_id" gorm:"not null"`
	Quantity   int  `json:"quantity" gorm:"not null;default:1"`
}
