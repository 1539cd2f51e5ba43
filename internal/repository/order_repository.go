package repository

import (
	"time"

	"restaurant_platform/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	CreateWithLines(order *models.Order, lines []models.OrderLine) error
	GetByID(id uint) (*models.Order, error)
	GetByNumber(number string) (*models.Order, error)
	List(restaurantID uint, status models.OrderStatus, from, to *time.Time) ([]models.Order, error)
	UpdateDetails(restaurantID, orderID uint, fields map[string]interface{}) (bool, error)
	UpdateStatus(orderID uint, from, to models.OrderStatus) (bool, error)
	RecordCheckout(orderID uint, sessionID, intentID, accountID string) error
	MarkPaid(orderNumber, sessionID, intentID string) (bool, error)
	MarkPaymentFailed(orderNumber string) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateWithLines writes the order and all of its lines in one
// transaction. A failure on any line rolls back the whole order.
func (r *orderRepository) CreateWithLines(order *models.Order, lines []models.OrderLine) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		order.Lines = lines
		return nil
	})
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByNumber(number string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").Where("order_number = ?", number).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(restaurantID uint, status models.OrderStatus, from, to *time.Time) ([]models.Order, error) {
	query := r.db.Preload("Lines").Where("restaurant_id = ?", restaurantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	var orders []models.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) UpdateDetails(restaurantID, orderID uint, fields map[string]interface{}) (bool, error) {
	tx := r.db.Model(&models.Order{}).
		Where("id = ? AND restaurant_id = ?", orderID, restaurantID).
		Updates(fields)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// UpdateStatus applies a transition as a single conditional update keyed
// on the expected current status, so two concurrent transitions cannot
// both win. Lifecycle timestamps are only filled when still NULL.
func (r *orderRepository) UpdateStatus(orderID uint, from, to models.OrderStatus) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case models.OrderReady:
		updates["ready_at"] = gorm.Expr("COALESCE(ready_at, ?)", now)
	case models.OrderDelivered:
		updates["delivered_at"] = gorm.Expr("COALESCE(delivered_at, ?)", now)
	case models.OrderCanceled:
		updates["canceled_at"] = gorm.Expr("COALESCE(canceled_at, ?)", now)
	}
	tx := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// RecordCheckout stores the processor identifiers created for the order.
// Already-populated identifiers are kept as-is (audit trail, write-once).
func (r *orderRepository) RecordCheckout(orderID uint, sessionID, intentID, accountID string) error {
	return r.db.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"stripe_session_id":        gorm.Expr("CASE WHEN stripe_session_id = '' THEN ? ELSE stripe_session_id END", sessionID),
			"stripe_payment_intent_id": gorm.Expr("CASE WHEN stripe_payment_intent_id = '' THEN ? ELSE stripe_payment_intent_id END", intentID),
			"stripe_account_id":        gorm.Expr("CASE WHEN stripe_account_id = '' THEN ? ELSE stripe_account_id END", accountID),
		}).Error
}

// MarkPaid flips payment status to paid exactly once. Replayed webhook
// events affect zero rows and report false.
func (r *orderRepository) MarkPaid(orderNumber, sessionID, intentID string) (bool, error) {
	tx := r.db.Model(&models.Order{}).
		Where("order_number = ? AND payment_status <> ?", orderNumber, models.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status":           models.PaymentPaid,
			"stripe_session_id":        gorm.Expr("CASE WHEN stripe_session_id = '' THEN ? ELSE stripe_session_id END", sessionID),
			"stripe_payment_intent_id": gorm.Expr("CASE WHEN stripe_payment_intent_id = '' THEN ? ELSE stripe_payment_intent_id END", intentID),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// MarkPaymentFailed only downgrades unpaid orders. A failure event that
// races behind a completed checkout must not undo the paid marking.
func (r *orderRepository) MarkPaymentFailed(orderNumber string) (bool, error) {
	tx := r.db.Model(&models.Order{}).
		Where("order_number = ? AND payment_status = ?", orderNumber, models.PaymentUnpaid).
		Update("payment_status", models.PaymentFailed)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
