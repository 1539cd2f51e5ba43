package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/redis"
	"restaurant_platform/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// orderTransitions is the allowed-successor table. Canceled is terminal;
// delivered only allows cancellation, which backs post-delivery disputes.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCanceled},
	models.OrderConfirmed: {models.OrderPreparing, models.OrderCanceled},
	models.OrderPreparing: {models.OrderReady, models.OrderCanceled},
	models.OrderReady:     {models.OrderDelivered, models.OrderCanceled},
	models.OrderDelivered: {models.OrderCanceled},
	models.OrderCanceled:  {},
}

// CanTransition reports whether target is a legal successor of from.
func CanTransition(from, target models.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == target {
			return true
		}
	}
	return false
}

type CreateOrderLine struct {
	MenuItemID *uint
	BundleID   *uint
	Quantity   int
	Modifiers  string
	Notes      string
}

type CreateOrderRequest struct {
	RestaurantRef string
	Source        models.OrderSource
	TableID       string
	CustomerName  string
	CustomerPhone string
	Notes         string
	TipAmount     float64
	Lines         []CreateOrderLine
}

type UpdateOrderRequest struct {
	CustomerName  *string
	CustomerPhone *string
	Notes         *string
	TableID       *string
}

type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*models.Order, error)
	GetOrderByNumber(number string) (*models.Order, error)
	GetOrder(restaurantID, orderID uint) (*models.Order, error)
	ListOrders(restaurantID uint, status models.OrderStatus, from, to *time.Time) ([]models.Order, error)
	TransitionStatus(restaurantID, orderID uint, target models.OrderStatus) (*models.Order, error)
	UpdateOrderDetails(restaurantID, orderID uint, req UpdateOrderRequest) (*models.Order, error)
	ResolveRestaurant(ref string) (*models.Restaurant, error)
	GetMenu(restaurantRef string) ([]models.MenuItem, []models.MenuBundle, error)
}

type orderService struct {
	orderRepo      repository.OrderRepository
	restaurantRepo repository.RestaurantRepository
	menuRepo       repository.MenuRepository
	notifier       NotificationService
	cache          *redis.Client
	log            *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
	menuRepo repository.MenuRepository,
	notifier NotificationService,
	cache *redis.Client,
	log *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		menuRepo:       menuRepo,
		notifier:       notifier,
		cache:          cache,
		log:            log,
	}
}

// roundCents rounds half-up to two decimals. Every derived fee uses this
// so the stored breakdown always sums exactly to the total.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ResolveRestaurant accepts a public slug or a numeric id and only
// returns active restaurants.
func (s *orderService) ResolveRestaurant(ref string) (*models.Restaurant, error) {
	if s.cache != nil {
		if id, err := s.cache.GetCachedRestaurantID(ref); err == nil {
			if restaurant, err := s.restaurantRepo.GetByID(id); err == nil && restaurant.IsActive {
				return restaurant, nil
			}
		}
	}

	restaurant, err := s.restaurantRepo.GetBySlug(ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if id, convErr := strconv.ParseUint(ref, 10, 32); convErr == nil {
			restaurant, err = s.restaurantRepo.GetByID(uint(id))
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	if !restaurant.IsActive {
		return nil, ErrRestaurantNotFound
	}

	if s.cache != nil {
		if err := s.cache.CacheRestaurantID(ref, restaurant.ID, 10*time.Minute); err != nil {
			s.log.Debug("failed to cache restaurant lookup", zap.Error(err))
		}
	}
	return restaurant, nil
}

// CreateOrder validates the requested lines against the restaurant's
// menu, snapshots names and prices, computes the monetary breakdown and
// writes order plus lines atomically.
func (s *orderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	restaurant, err := s.ResolveRestaurant(req.RestaurantRef)
	if err != nil {
		return nil, err
	}

	var issues []string
	if len(req.Lines) == 0 {
		issues = append(issues, "order has no lines")
	}
	if req.TipAmount < 0 {
		issues = append(issues, "tip must not be negative")
	}

	var itemIDs, bundleIDs []uint
	for i, line := range req.Lines {
		if line.Quantity < 1 {
			issues = append(issues, fmt.Sprintf("line %d: quantity must be at least 1", i+1))
		}
		switch {
		case line.MenuItemID != nil && line.BundleID != nil:
			issues = append(issues, fmt.Sprintf("line %d: references both a menu item and a bundle", i+1))
		case line.MenuItemID != nil:
			itemIDs = append(itemIDs, *line.MenuItemID)
		case line.BundleID != nil:
			bundleIDs = append(bundleIDs, *line.BundleID)
		default:
			issues = append(issues, fmt.Sprintf("line %d: references no menu item or bundle", i+1))
		}
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	items, err := s.menuRepo.GetItemsByIDs(restaurant.ID, itemIDs)
	if err != nil {
		return nil, err
	}
	bundles, err := s.menuRepo.GetBundlesByIDs(restaurant.ID, bundleIDs)
	if err != nil {
		return nil, err
	}

	itemsByID := make(map[uint]models.MenuItem, len(items))
	for _, item := range items {
		itemsByID[item.ID] = item
	}
	bundlesByID := make(map[uint]models.MenuBundle, len(bundles))
	var componentIDs []uint
	for _, bundle := range bundles {
		bundlesByID[bundle.ID] = bundle
		for _, component := range bundle.Items {
			componentIDs = append(componentIDs, component.MenuItemID)
		}
	}
	componentNames := make(map[uint]string)
	if len(componentIDs) > 0 {
		components, err := s.menuRepo.GetItemsByIDs(restaurant.ID, componentIDs)
		if err != nil {
			return nil, err
		}
		for _, item := range components {
			componentNames[item.ID] = item.Name
		}
	}

	var lines []models.OrderLine
	subtotal := 0.0
	for _, reqLine := range req.Lines {
		line := models.OrderLine{
			Quantity:  reqLine.Quantity,
			Modifiers: reqLine.Modifiers,
			Notes:     reqLine.Notes,
		}
		if reqLine.MenuItemID != nil {
			item, ok := itemsByID[*reqLine.MenuItemID]
			if !ok {
				issues = append(issues, fmt.Sprintf("menu item %d not found on this menu", *reqLine.MenuItemID))
				continue
			}
			if !item.IsAvailable {
				issues = append(issues, fmt.Sprintf("item %q is unavailable", item.Name))
				continue
			}
			line.MenuItemID = reqLine.MenuItemID
			line.Name = item.Name
			line.Description = item.Description
			line.UnitPrice = item.Price
		} else {
			bundle, ok := bundlesByID[*reqLine.BundleID]
			if !ok {
				issues = append(issues, fmt.Sprintf("bundle %d not found on this menu", *reqLine.BundleID))
				continue
			}
			if !bundle.IsAvailable {
				issues = append(issues, fmt.Sprintf("bundle %q is unavailable", bundle.Name))
				continue
			}
			line.BundleID = reqLine.BundleID
			line.Name = bundle.Name
			line.Description = describeBundle(bundle, componentNames)
			line.UnitPrice = bundle.Price
		}
		line.TotalPrice = roundCents(float64(line.Quantity) * line.UnitPrice)
		subtotal += line.TotalPrice
		lines = append(lines, line)
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	subtotal = roundCents(subtotal)
	tax := roundCents(subtotal * restaurant.TaxPercent / 100)
	cardFee := roundCents(subtotal * restaurant.CardFeePercent / 100)
	platformFee := roundCents(subtotal * restaurant.PlatformFeePercent / 100)
	tip := roundCents(req.TipAmount)
	total := roundCents(subtotal + tax + tip + cardFee + platformFee)

	source := req.Source
	if source == "" {
		source = models.SourceOnSite
	}

	order := &models.Order{
		OrderNumber:       uuid.NewString(),
		RestaurantID:      restaurant.ID,
		TableID:           req.TableID,
		Source:            source,
		Status:            models.OrderPending,
		PaymentStatus:     models.PaymentUnpaid,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		Notes:             req.Notes,
		Subtotal:          subtotal,
		TaxAmount:         tax,
		TipAmount:         tip,
		CardFeeAmount:     cardFee,
		PlatformFeeAmount: platformFee,
		TotalAmount:       total,
	}

	if err := s.orderRepo.CreateWithLines(order, lines); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("restaurant_id", restaurant.ID),
		zap.Float64("total", order.TotalAmount))
	return order, nil
}

func describeBundle(bundle models.MenuBundle, componentNames map[uint]string) string {
	if len(bundle.Items) == 0 {
		return bundle.Description
	}
	parts := make([]string, 0, len(bundle.Items))
	for _, component := range bundle.Items {
		name, ok := componentNames[component.MenuItemID]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%dx %s", component.Quantity, name))
	}
	if len(parts) == 0 {
		return bundle.Description
	}
	return "includes " + strings.Join(parts, ", ")
}

// GetMenu returns the restaurant's currently available items and bundles.
func (s *orderService) GetMenu(restaurantRef string) ([]models.MenuItem, []models.MenuBundle, error) {
	restaurant, err := s.ResolveRestaurant(restaurantRef)
	if err != nil {
		return nil, nil, err
	}
	return s.menuRepo.GetMenu(restaurant.ID)
}

func (s *orderService) GetOrderByNumber(number string) (*models.Order, error) {
	order, err := s.orderRepo.GetByNumber(number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrder(restaurantID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.RestaurantID != restaurantID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(restaurantID uint, status models.OrderStatus, from, to *time.Time) ([]models.Order, error) {
	return s.orderRepo.List(restaurantID, status, from, to)
}

// TransitionStatus moves an order along the lifecycle table. The write is
// conditional on the current status, so a concurrent transition that got
// there first turns this one into an invalid-transition error.
func (s *orderService) TransitionStatus(restaurantID, orderID uint, target models.OrderStatus) (*models.Order, error) {
	order, err := s.GetOrder(restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	applied, err := s.orderRepo.UpdateStatus(order.ID, order.Status, target)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: order %d no longer in status %s", ErrInvalidTransition, order.ID, order.Status)
	}

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_number", updated.OrderNumber),
		zap.String("from", string(order.Status)),
		zap.String("to", string(target)))

	s.dispatchNotification(updated)
	return updated, nil
}

func (s *orderService) UpdateOrderDetails(restaurantID, orderID uint, req UpdateOrderRequest) (*models.Order, error) {
	fields := map[string]interface{}{}
	if req.CustomerName != nil {
		fields["customer_name"] = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		fields["customer_phone"] = *req.CustomerPhone
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.TableID != nil {
		fields["table_id"] = *req.TableID
	}
	if len(fields) == 0 {
		return s.GetOrder(restaurantID, orderID)
	}

	updated, err := s.orderRepo.UpdateDetails(restaurantID, orderID, fields)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrOrderNotFound
	}
	return s.orderRepo.GetByID(orderID)
}

// dispatchNotification is fire-and-forget: a slow or failing SMS provider
// must never delay or roll back the status transition.
func (s *orderService) dispatchNotification(order *models.Order) {
	if s.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notification dispatch panicked", zap.Any("panic", r))
			}
		}()
		if err := s.notifier.NotifyStatusChange(order); err != nil {
			s.log.Warn("notification dispatch failed",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
		}
	}()
}
