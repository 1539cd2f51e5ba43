package services

import (
	"errors"
	"testing"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/repository"
	"restaurant_platform/pkg/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeGateway stands in for the processor. Signature "valid" verifies;
// the returned event is whatever the test primed.
type fakeGateway struct {
	account         *payments.Account
	accountErr      error
	createdAccounts int
	sessions        []payments.CheckoutParams
	event           *payments.Event
}

func (g *fakeGateway) CreateAccount(email string) (*payments.Account, error) {
	g.createdAccounts++
	return &payments.Account{ID: "acct_test", ChargesEnabled: false}, nil
}

func (g *fakeGateway) GetAccount(accountID string) (*payments.Account, error) {
	if g.accountErr != nil {
		return nil, g.accountErr
	}
	return g.account, nil
}

func (g *fakeGateway) CreateAccountLink(accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.test/onboarding", nil
}

func (g *fakeGateway) CreateCheckoutSession(params payments.CheckoutParams) (*payments.CheckoutSession, error) {
	g.sessions = append(g.sessions, params)
	return &payments.CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test", PaymentIntentID: "pi_test"}, nil
}

func (g *fakeGateway) VerifyEvent(payload []byte, signature string) (*payments.Event, error) {
	if signature != "valid" {
		return nil, errors.New("bad signature")
	}
	return g.event, nil
}

type paymentFixture struct {
	db         *gorm.DB
	gateway    *fakeGateway
	orders     OrderService
	payments   PaymentService
	restaurant *models.Restaurant
	item       *models.MenuItem
}

func newPaymentFixture(t *testing.T, mutate func(*models.Restaurant)) *paymentFixture {
	t.Helper()
	db := newTestDB(t)
	restaurant := seedRestaurant(t, db, mutate)
	item := seedMenuItem(t, db, restaurant.ID, "Dish", 10.00, true)

	gateway := &fakeGateway{account: &payments.Account{ID: restaurant.StripeAccountID, ChargesEnabled: true}}
	orderSvc := newOrderService(t, db, nil)
	paymentSvc := NewPaymentService(
		gateway,
		repository.NewOrderRepository(db),
		repository.NewRestaurantRepository(db),
		repository.NewWebhookEventRepository(db),
		orderSvc,
		nil,
		zap.NewNop(),
	)
	return &paymentFixture{
		db:         db,
		gateway:    gateway,
		orders:     orderSvc,
		payments:   paymentSvc,
		restaurant: restaurant,
		item:       item,
	}
}

func (f *paymentFixture) placeOrder(t *testing.T, tip float64, quantity int) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(CreateOrderRequest{
		RestaurantRef: f.restaurant.Slug,
		CustomerPhone: "+15550001111",
		TipAmount:     tip,
		Lines:         []CreateOrderLine{{MenuItemID: &f.item.ID, Quantity: quantity}},
	})
	require.NoError(t, err)
	return order
}

func TestCheckoutRequiresProvisionedSubAccount(t *testing.T) {
	f := newPaymentFixture(t, nil) // no StripeAccountID
	order := f.placeOrder(t, 0, 1)

	_, err := f.payments.CreateCheckoutSession(order.OrderNumber, "https://s", "https://c")
	assert.ErrorIs(t, err, ErrAccountNotReady)
	assert.Empty(t, f.gateway.sessions)
}

func TestCheckoutRequiresChargesEnabled(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	f.gateway.account = &payments.Account{ID: "acct_1", ChargesEnabled: false}
	order := f.placeOrder(t, 0, 1)

	_, err := f.payments.CreateCheckoutSession(order.OrderNumber, "https://s", "https://c")
	assert.ErrorIs(t, err, ErrAccountNotReady)
	assert.Empty(t, f.gateway.sessions)
}

func TestCheckoutPricingDriftAborts(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	order := f.placeOrder(t, 5.00, 3) // stored total 35.00

	// Corrupt the stored total so the constructed lines no longer match.
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("total_amount", 34.99).Error)

	_, err := f.payments.CreateCheckoutSession(order.OrderNumber, "https://s", "https://c")
	assert.ErrorIs(t, err, ErrPricingDrift)
	assert.Empty(t, f.gateway.sessions, "no checkout transaction may be created on drift")
}

func TestCheckoutBuildsSplitPayment(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) {
		r.StripeAccountID = "acct_1"
		r.PlatformFeePercent = 2
	})
	order := f.placeOrder(t, 5.00, 2) // subtotal 20, platform fee 0.40, tip 5 => total 25.40

	url, err := f.payments.CreateCheckoutSession(order.OrderNumber, "https://s", "https://c")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_test", url)

	require.Len(t, f.gateway.sessions, 1)
	session := f.gateway.sessions[0]
	assert.Equal(t, "acct_1", session.DestinationAccount)
	// round(2540 * 2 / 100) = 51 cents.
	assert.Equal(t, int64(51), session.ApplicationFeeCents)

	var sum int64
	for _, item := range session.LineItems {
		sum += item.AmountCents * item.Quantity
	}
	assert.Equal(t, int64(2540), sum)

	// Identifiers are persisted onto the order for the audit trail.
	stored, err := f.orders.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "cs_test", stored.StripeSessionID)
	assert.Equal(t, "pi_test", stored.StripePaymentIntentID)
	assert.Equal(t, "acct_1", stored.StripeAccountID)
}

func TestEnsureSubAccountIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t, nil)

	first, err := f.payments.EnsureSubAccount(f.restaurant)
	require.NoError(t, err)
	assert.Equal(t, "acct_test", first)
	assert.Equal(t, 1, f.gateway.createdAccounts)

	// Second call sees the persisted id and provisions nothing.
	second, err := f.payments.EnsureSubAccount(f.restaurant)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.gateway.createdAccounts)
}

func TestWebhookSignatureFailsClosed(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	order := f.placeOrder(t, 0, 1)
	f.gateway.event = &payments.Event{
		ID:          "evt_1",
		Type:        payments.EventCheckoutCompleted,
		OrderNumber: order.OrderNumber,
	}

	err := f.payments.HandleWebhook([]byte("{}"), "forged")
	assert.ErrorIs(t, err, ErrUnauthorizedWebhook)

	stored, err := f.orders.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentUnpaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestWebhookCheckoutCompletedReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	order := f.placeOrder(t, 0, 1)
	f.gateway.event = &payments.Event{
		ID:              "evt_1",
		Type:            payments.EventCheckoutCompleted,
		OrderNumber:     order.OrderNumber,
		SessionID:       "cs_test",
		PaymentIntentID: "pi_test",
	}

	require.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))
	require.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))

	stored, err := f.orders.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderConfirmed, stored.Status)

	var eventCount int64
	require.NoError(t, f.db.Model(&models.PaymentWebhookEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), eventCount)
}

func TestWebhookCompletedAfterManualConfirmIsSwallowed(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	order := f.placeOrder(t, 0, 1)

	// Staff confirmed before the processor called back.
	_, err := f.orders.TransitionStatus(f.restaurant.ID, order.ID, models.OrderConfirmed)
	require.NoError(t, err)
	_, err = f.orders.TransitionStatus(f.restaurant.ID, order.ID, models.OrderPreparing)
	require.NoError(t, err)

	f.gateway.event = &payments.Event{
		ID:          "evt_1",
		Type:        payments.EventCheckoutCompleted,
		OrderNumber: order.OrderNumber,
	}
	require.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))

	stored, err := f.orders.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderPreparing, stored.Status, "status must not move backwards")
}

func TestWebhookPaymentFailed(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	order := f.placeOrder(t, 0, 1)
	f.gateway.event = &payments.Event{
		ID:          "evt_1",
		Type:        payments.EventPaymentFailed,
		OrderNumber: order.OrderNumber,
	}

	require.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))

	stored, err := f.orders.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)
	assert.Equal(t, models.OrderPending, stored.Status, "failure must not alter order status")
}

func TestWebhookFailureDoesNotDowngradePaidOrder(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	order := f.placeOrder(t, 0, 1)

	f.gateway.event = &payments.Event{
		ID:          "evt_1",
		Type:        payments.EventCheckoutCompleted,
		OrderNumber: order.OrderNumber,
	}
	require.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))

	// An expired-session event for the same order arrives late.
	f.gateway.event = &payments.Event{
		ID:          "evt_2",
		Type:        payments.EventCheckoutExpired,
		OrderNumber: order.OrderNumber,
	}
	require.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))

	stored, err := f.orders.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
}

func TestWebhookUnknownOrderIsAcknowledged(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	f.gateway.event = &payments.Event{
		ID:          "evt_1",
		Type:        payments.EventCheckoutCompleted,
		OrderNumber: "no-such-order",
	}

	assert.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))
}

func TestWebhookMissingOrderReferenceIsAcknowledged(t *testing.T) {
	f := newPaymentFixture(t, func(r *models.Restaurant) { r.StripeAccountID = "acct_1" })
	f.gateway.event = &payments.Event{
		ID:   "evt_1",
		Type: payments.EventCheckoutCompleted,
	}

	assert.NoError(t, f.payments.HandleWebhook([]byte("{}"), "valid"))
}
