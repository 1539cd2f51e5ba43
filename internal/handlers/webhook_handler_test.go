package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPaymentService struct {
	webhookErr error
	signatures []string
}

func (s *stubPaymentService) EnsureSubAccount(*models.Restaurant) (string, error) { return "", nil }

func (s *stubPaymentService) CreateOnboardingLink(*models.Restaurant, string, string) (string, error) {
	return "", nil
}

func (s *stubPaymentService) CreateCheckoutSession(string, string, string) (string, error) {
	return "", nil
}

func (s *stubPaymentService) HandleWebhook(payload []byte, signature string) error {
	s.signatures = append(s.signatures, signature)
	return s.webhookErr
}

type stubNotificationService struct {
	callbacks []services.DeliveryCallback
	err       error
}

func (s *stubNotificationService) NotifyStatusChange(*models.Order) error { return nil }

func (s *stubNotificationService) ApplyDeliveryCallback(callback services.DeliveryCallback) error {
	s.callbacks = append(s.callbacks, callback)
	return s.err
}

func (s *stubNotificationService) GetOrderNotifications(uint) ([]models.NotificationLog, error) {
	return nil, nil
}

func newWebhookRouter(payment *stubPaymentService, notification *stubNotificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWebhookHandler(payment, notification, zap.NewNop())
	router := gin.New()
	router.POST("/webhooks/stripe", handler.HandleStripeWebhook)
	router.POST("/webhooks/sms", handler.HandleSMSCallback)
	return router
}

func TestStripeWebhookPassesSignatureHeader(t *testing.T) {
	payment := &stubPaymentService{}
	router := newWebhookRouter(payment, &stubNotificationService{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, payment.signatures, 1)
	assert.Equal(t, "t=1,v1=abc", payment.signatures[0])
}

func TestStripeWebhookBadSignatureIsRejected(t *testing.T) {
	payment := &stubPaymentService{webhookErr: services.ErrUnauthorizedWebhook}
	router := newWebhookRouter(payment, &stubNotificationService{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStripeWebhookTransientFailureAsksForRetry(t *testing.T) {
	payment := &stubPaymentService{webhookErr: errors.New("db unavailable")}
	router := newWebhookRouter(payment, &stubNotificationService{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestSMSCallbackRequiresMessageID(t *testing.T) {
	notification := &stubNotificationService{}
	router := newWebhookRouter(&stubPaymentService{}, notification)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", bytes.NewBufferString(`{"status":"delivered"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, notification.callbacks)
}

func TestSMSCallbackApplied(t *testing.T) {
	notification := &stubNotificationService{}
	router := newWebhookRouter(&stubPaymentService{}, notification)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms",
		bytes.NewBufferString(`{"message_id":"msg_1","status":"delivered","to":"+15550001111"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, notification.callbacks, 1)
	assert.Equal(t, "msg_1", notification.callbacks[0].MessageID)
	assert.Equal(t, "delivered", notification.callbacks[0].Status)
}
