package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/redis"
	"restaurant_platform/internal/repository"
	"restaurant_platform/pkg/payments"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService interface {
	EnsureSubAccount(restaurant *models.Restaurant) (string, error)
	CreateOnboardingLink(restaurant *models.Restaurant, refreshURL, returnURL string) (string, error)
	CreateCheckoutSession(orderNumber, successURL, cancelURL string) (string, error)
	HandleWebhook(payload []byte, signature string) error
}

type paymentService struct {
	gateway        payments.Gateway
	orderRepo      repository.OrderRepository
	restaurantRepo repository.RestaurantRepository
	webhookRepo    repository.WebhookEventRepository
	orderService   OrderService
	cache          *redis.Client
	log            *zap.Logger
}

func NewPaymentService(
	gateway payments.Gateway,
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
	webhookRepo repository.WebhookEventRepository,
	orderService OrderService,
	cache *redis.Client,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		gateway:        gateway,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		webhookRepo:    webhookRepo,
		orderService:   orderService,
		cache:          cache,
		log:            log,
	}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// EnsureSubAccount returns the restaurant's connected account id,
// provisioning one on first use. The persisted-id check plus the
// conditional write keep concurrent calls from creating two accounts.
func (s *paymentService) EnsureSubAccount(restaurant *models.Restaurant) (string, error) {
	if restaurant.StripeAccountID != "" {
		return restaurant.StripeAccountID, nil
	}

	account, err := s.gateway.CreateAccount(restaurant.Email)
	if err != nil {
		return "", err
	}

	stored, err := s.restaurantRepo.SetStripeAccountID(restaurant.ID, account.ID)
	if err != nil {
		return "", err
	}
	if !stored {
		// Another caller won the race; use the id it persisted.
		current, err := s.restaurantRepo.GetByID(restaurant.ID)
		if err != nil {
			return "", err
		}
		s.log.Warn("discarding duplicate connected account",
			zap.Uint("restaurant_id", restaurant.ID),
			zap.String("unused_account", account.ID))
		restaurant.StripeAccountID = current.StripeAccountID
		return current.StripeAccountID, nil
	}

	restaurant.StripeAccountID = account.ID
	s.log.Info("connected account provisioned",
		zap.Uint("restaurant_id", restaurant.ID),
		zap.String("account_id", account.ID))
	return account.ID, nil
}

func (s *paymentService) CreateOnboardingLink(restaurant *models.Restaurant, refreshURL, returnURL string) (string, error) {
	accountID, err := s.EnsureSubAccount(restaurant)
	if err != nil {
		return "", err
	}
	return s.gateway.CreateAccountLink(accountID, refreshURL, returnURL)
}

// CreateCheckoutSession builds a split-payment checkout for the order:
// funds go to the restaurant's connected account, the platform keeps an
// application fee. The constructed line items are reconciled against the
// stored total before anything is sent to the processor.
func (s *paymentService) CreateCheckoutSession(orderNumber, successURL, cancelURL string) (string, error) {
	order, err := s.orderRepo.GetByNumber(orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrOrderNotFound
		}
		return "", err
	}

	restaurant, err := s.restaurantRepo.GetByID(order.RestaurantID)
	if err != nil {
		return "", err
	}
	if restaurant.StripeAccountID == "" {
		return "", fmt.Errorf("%w: no connected account", ErrAccountNotReady)
	}
	account, err := s.gateway.GetAccount(restaurant.StripeAccountID)
	if err != nil {
		return "", err
	}
	if !account.ChargesEnabled {
		return "", fmt.Errorf("%w: onboarding incomplete", ErrAccountNotReady)
	}

	lineItems := buildCheckoutLines(order)
	var sumCents int64
	for _, item := range lineItems {
		sumCents += item.AmountCents * item.Quantity
	}
	totalCents := toCents(order.TotalAmount)
	if sumCents != totalCents {
		return "", fmt.Errorf("%w: lines sum to %d cents, order total is %d cents",
			ErrPricingDrift, sumCents, totalCents)
	}

	applicationFee := int64(math.Round(float64(totalCents) * restaurant.PlatformFeePercent / 100))
	if applicationFee < 0 {
		applicationFee = 0
	}

	session, err := s.gateway.CreateCheckoutSession(payments.CheckoutParams{
		OrderNumber:         order.OrderNumber,
		Currency:            restaurant.Currency,
		LineItems:           lineItems,
		DestinationAccount:  restaurant.StripeAccountID,
		ApplicationFeeCents: applicationFee,
		SuccessURL:          successURL,
		CancelURL:           cancelURL,
	})
	if err != nil {
		return "", err
	}

	if err := s.orderRepo.RecordCheckout(order.ID, session.ID, session.PaymentIntentID, restaurant.StripeAccountID); err != nil {
		return "", err
	}

	s.log.Info("checkout session created",
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", session.ID),
		zap.Int64("application_fee_cents", applicationFee))
	return session.URL, nil
}

func buildCheckoutLines(order *models.Order) []payments.LineItem {
	var lineItems []payments.LineItem
	for _, line := range order.Lines {
		lineItems = append(lineItems, payments.LineItem{
			Name:        line.Name,
			AmountCents: toCents(line.UnitPrice),
			Quantity:    int64(line.Quantity),
		})
	}
	for _, extra := range []struct {
		name   string
		amount float64
	}{
		{"Tax", order.TaxAmount},
		{"Tip", order.TipAmount},
		{"Card fee", order.CardFeeAmount},
		{"Service fee", order.PlatformFeeAmount},
	} {
		if extra.amount > 0 {
			lineItems = append(lineItems, payments.LineItem{
				Name:        extra.name,
				AmountCents: toCents(extra.amount),
				Quantity:    1,
			})
		}
	}
	return lineItems
}

// HandleWebhook verifies and applies one processor event. It is safe to
// call any number of times with the same delivery: signature first, dedup
// check second, and every mutation is a conditional write.
func (s *paymentService) HandleWebhook(payload []byte, signature string) error {
	event, err := s.gateway.VerifyEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorizedWebhook, err)
	}

	if s.cache != nil {
		if seen, err := s.cache.SeenWebhookEvent(event.ID); err == nil && seen {
			return nil
		}
	}
	if seen, err := s.webhookRepo.Exists(event.ID); err != nil {
		return err
	} else if seen {
		return nil
	}

	if err := s.applyEvent(event); err != nil {
		return err
	}

	// Mark only after the event was fully applied; a transient failure
	// above leaves the event unmarked so the provider retry lands.
	if _, err := s.webhookRepo.MarkProcessed(event.ID, event.Type); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.MarkWebhookEvent(event.ID, 24*time.Hour); err != nil {
			s.log.Debug("failed to cache webhook event mark", zap.Error(err))
		}
	}
	return nil
}

func (s *paymentService) applyEvent(event *payments.Event) error {
	switch event.Type {
	case payments.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(event)
	case payments.EventCheckoutExpired, payments.EventPaymentFailed:
		return s.applyPaymentFailed(event)
	default:
		s.log.Debug("ignoring webhook event", zap.String("type", event.Type))
		return nil
	}
}

func (s *paymentService) applyCheckoutCompleted(event *payments.Event) error {
	order, err := s.resolveOrder(event)
	if err != nil || order == nil {
		return err
	}

	marked, err := s.orderRepo.MarkPaid(order.OrderNumber, event.SessionID, event.PaymentIntentID)
	if err != nil {
		return err
	}
	if !marked {
		s.log.Info("order already marked paid", zap.String("order_number", order.OrderNumber))
	}

	// Advance through the state machine even on a replay, in case an
	// earlier attempt failed between the paid marking and the
	// transition. Staff may also have confirmed the order manually
	// already; neither case is an error here.
	if _, err := s.orderService.TransitionStatus(order.RestaurantID, order.ID, models.OrderConfirmed); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			s.log.Info("payment confirmed for already-progressed order",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

func (s *paymentService) applyPaymentFailed(event *payments.Event) error {
	order, err := s.resolveOrder(event)
	if err != nil || order == nil {
		return err
	}

	changed, err := s.orderRepo.MarkPaymentFailed(order.OrderNumber)
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("payment failed",
			zap.String("order_number", order.OrderNumber),
			zap.String("event_type", event.Type))
	}
	return nil
}

// resolveOrder returns (nil, nil) for events without a resolvable order:
// those are dropped with a warning because the processor still expects
// the delivery to be acknowledged.
func (s *paymentService) resolveOrder(event *payments.Event) (*models.Order, error) {
	if event.OrderNumber == "" {
		s.log.Warn("webhook event has no order reference", zap.String("event_id", event.ID))
		return nil, nil
	}
	order, err := s.orderRepo.GetByNumber(event.OrderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("webhook event references unknown order",
				zap.String("event_id", event.ID),
				zap.String("order_number", event.OrderNumber))
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}
