package models

import (
	"time"
)

type Order struct {
	ID                    uint        `json:"id" gorm:"primaryKey"`
	OrderNumber           string      `json:"order_number" gorm:"unique;not null"`
	RestaurantID          uint        `json:"restaurant_id" gorm:"not null;index"`
	TableID               string      `json:"table_id"`
	Source                OrderSource `json:"source" gorm:"default:'on_site'"`
	Status                OrderStatus `json:"status" gorm:"default:'pending';index"`
	PaymentStatus         PayStatus   `json:"payment_status" gorm:"default:'unpaid'"`
	CustomerName          string      `json:"customer_name"`
	CustomerPhone         string      `json:"customer_phone"`
	Notes                 string      `json:"notes" gorm:"type:text"`
	Subtotal              float64     `json:"subtotal" gorm:"not null"`
	TaxAmount             float64     `json:"tax_amount"`
	TipAmount             float64     `json:"tip_amount"`
	CardFeeAmount         float64     `json:"card_fee_amount"`
	PlatformFeeAmount     float64     `json:"platform_fee_amount"`
	TotalAmount           float64     `json:"total_amount" gorm:"not null"`
	StripeSessionID       string      `json:"stripe_session_id"`
	StripePaymentIntentID string      `json:"stripe_payment_intent_id"`
	StripeAccountID       string      `json:"stripe_account_id"`
	ReadyAt               *time.Time  `json:"ready_at"`
	DeliveredAt           *time.Time  `json:"delivered_at"`
	CanceledAt            *time.Time  `json:"canceled_at"`
	Lines                 []OrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
)

type PayStatus string

const (
	PaymentUnpaid   PayStatus = "unpaid"
	PaymentPaid     PayStatus = "paid"
	PaymentFailed   PayStatus = "failed"
	PaymentRefunded PayStatus = "refunded"
)

type OrderSource string

const (
	SourceOnSite   OrderSource = "on_site"
	SourceTakeout  OrderSource = "takeout"
	SourceDelivery OrderSource = "delivery"
	SourceLink     OrderSource = "link"
)
