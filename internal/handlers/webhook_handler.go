package handlers

import (
	"errors"
	"io"
	"net/http"

	"restaurant_platform/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	paymentService      services.PaymentService
	notificationService services.NotificationService
	log                 *zap.Logger
}

func NewWebhookHandler(
	paymentService services.PaymentService,
	notificationService services.NotificationService,
	log *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		paymentService:      paymentService,
		notificationService: notificationService,
		log:                 log,
	}
}

// HandleStripeWebhook reads the raw body (the signature covers the exact
// bytes) and hands it to the settlement adapter. Anything but a signature
// failure is acknowledged so the processor does not retry forever;
// transient errors return 500 to request a retry.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	err = h.paymentService.HandleWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, services.ErrUnauthorizedWebhook) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		h.log.Error("failed to process payment webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// HandleSMSCallback applies a delivery-status report. The provider has no
// signature scheme; correlation is by message id only.
func (h *WebhookHandler) HandleSMSCallback(c *gin.Context) {
	var callback services.DeliveryCallback
	if err := c.ShouldBindJSON(&callback); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid callback format"})
		return
	}

	if err := h.notificationService.ApplyDeliveryCallback(callback); err != nil {
		h.log.Error("failed to apply delivery callback",
			zap.String("message_id", callback.MessageID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process callback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
