package services

import (
	"encoding/json"
	"fmt"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/repository"
	"restaurant_platform/pkg/sms"

	"go.uber.org/zap"
)

// statusTemplates maps order statuses to customer-facing messages. A
// status without an entry sends nothing.
var statusTemplates = map[models.OrderStatus]string{
	models.OrderConfirmed: "Your order %s has been confirmed.",
	models.OrderReady:     "Your order %s is ready for pickup.",
	models.OrderDelivered: "Your order %s has been delivered. Enjoy!",
	models.OrderCanceled:  "Your order %s has been canceled.",
}

// SMSSender is what the dispatcher needs from the provider client.
type SMSSender interface {
	SendMessage(phone, body string) (*sms.SendMessageResponse, error)
}

// DeliveryCallback is the provider's delivery-status report, correlated
// to an outbound send by MessageID.
type DeliveryCallback struct {
	MessageID    string `json:"message_id" binding:"required"`
	Status       string `json:"status"`
	Phone        string `json:"to"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type NotificationService interface {
	NotifyStatusChange(order *models.Order) error
	ApplyDeliveryCallback(callback DeliveryCallback) error
	GetOrderNotifications(orderID uint) ([]models.NotificationLog, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	sender           SMSSender
	countryCode      string
	log              *zap.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	sender SMSSender,
	countryCode string,
	log *zap.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		sender:           sender,
		countryCode:      countryCode,
		log:              log,
	}
}

// NotifyStatusChange sends one SMS for the order's current status and
// always records exactly one log row for the attempt. Statuses without a
// template and orders without a usable phone number are silent no-ops.
func (s *notificationService) NotifyStatusChange(order *models.Order) error {
	template, ok := statusTemplates[order.Status]
	if !ok {
		return nil
	}
	if order.CustomerPhone == "" {
		return nil
	}

	body := formatTemplate(template, shortOrderRef(order.OrderNumber))
	orderID := order.ID

	phone, err := sms.NormalizePhone(order.CustomerPhone, s.countryCode)
	if err != nil {
		// Not normalizable: record the skip, never fail the transition.
		entry := &models.NotificationLog{
			OrderID:  &orderID,
			Channel:  "sms",
			Phone:    order.CustomerPhone,
			Template: string(order.Status),
			Status:   "skipped",
			Error:    err.Error(),
		}
		if createErr := s.notificationRepo.Create(entry); createErr != nil {
			s.log.Warn("failed to record skipped notification", zap.Error(createErr))
		}
		return nil
	}

	entry := &models.NotificationLog{
		OrderID:  &orderID,
		Channel:  "sms",
		Provider: "sms-gateway",
		Phone:    phone,
		Template: string(order.Status),
	}

	resp, sendErr := s.sender.SendMessage(phone, body)
	if sendErr != nil {
		entry.Status = "failed"
		entry.Error = sendErr.Error()
	} else {
		entry.Status = resp.Status
		entry.ProviderMessageID = resp.MessageID
		if payload, err := json.Marshal(resp); err == nil {
			entry.Payload = string(payload)
		}
	}

	if err := s.notificationRepo.Create(entry); err != nil {
		s.log.Error("failed to record notification attempt",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		return err
	}
	return sendErr
}

// ApplyDeliveryCallback updates the log row matched on the provider
// message id, or creates one when the callback races ahead of the
// outbound log write. Replayed callbacks converge to the same row state.
func (s *notificationService) ApplyDeliveryCallback(callback DeliveryCallback) error {
	payload, _ := json.Marshal(callback)

	errText := callback.ErrorMessage
	if errText == "" && callback.ErrorCode != "" {
		errText = callback.ErrorCode
	}

	updated, err := s.notificationRepo.UpdateByMessageID(callback.MessageID, map[string]interface{}{
		"status":  callback.Status,
		"error":   errText,
		"payload": string(payload),
	})
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	entry := &models.NotificationLog{
		Channel:           "sms",
		Provider:          "sms-gateway",
		Phone:             callback.Phone,
		Status:            callback.Status,
		ProviderMessageID: callback.MessageID,
		Error:             errText,
		Payload:           string(payload),
	}
	if err := s.notificationRepo.Create(entry); err != nil {
		// A concurrent callback may have created the row first; apply the
		// update path once more before giving up.
		if retried, retryErr := s.notificationRepo.UpdateByMessageID(callback.MessageID, map[string]interface{}{
			"status":  callback.Status,
			"error":   errText,
			"payload": string(payload),
		}); retryErr == nil && retried {
			return nil
		}
		return err
	}
	return nil
}

func (s *notificationService) GetOrderNotifications(orderID uint) ([]models.NotificationLog, error) {
	return s.notificationRepo.GetByOrderID(orderID)
}

func shortOrderRef(orderNumber string) string {
	if len(orderNumber) > 8 {
		return orderNumber[:8]
	}
	return orderNumber
}

func formatTemplate(template, ref string) string {
	return fmt.Sprintf(template, ref)
}
