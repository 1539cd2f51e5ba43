package handlers

import (
	"net/http"
	"strconv"
	"time"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/services"

	"github.com/gin-gonic/gin"
)

type StaffHandler struct {
	orderService        services.OrderService
	paymentService      services.PaymentService
	notificationService services.NotificationService
	onboardingReturnURL string
}

func NewStaffHandler(
	orderService services.OrderService,
	paymentService services.PaymentService,
	notificationService services.NotificationService,
	onboardingReturnURL string,
) *StaffHandler {
	return &StaffHandler{
		orderService:        orderService,
		paymentService:      paymentService,
		notificationService: notificationService,
		onboardingReturnURL: onboardingReturnURL,
	}
}

func (h *StaffHandler) ListOrders(c *gin.Context) {
	restaurant := restaurantFromContext(c)

	var from, to *time.Time
	if value := c.Query("from"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date, expected RFC3339"})
			return
		}
		from = &parsed
	}
	if value := c.Query("to"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date, expected RFC3339"})
			return
		}
		to = &parsed
	}

	orders, err := h.orderService.ListOrders(restaurant.ID, models.OrderStatus(c.Query("status")), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type transitionRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *StaffHandler) TransitionStatus(c *gin.Context) {
	restaurant := restaurantFromContext(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.TransitionStatus(restaurant.ID, uint(orderID), req.Status)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

type updateOrderRequest struct {
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	Notes         *string `json:"notes"`
	TableID       *string `json:"table_id"`
}

func (h *StaffHandler) UpdateOrder(c *gin.Context) {
	restaurant := restaurantFromContext(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.UpdateOrderDetails(restaurant.ID, uint(orderID), services.UpdateOrderRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		TableID:       req.TableID,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *StaffHandler) GetOrderNotifications(c *gin.Context) {
	restaurant := restaurantFromContext(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	// Ownership check before exposing the audit trail.
	if _, err := h.orderService.GetOrder(restaurant.ID, uint(orderID)); err != nil {
		respondOrderError(c, err)
		return
	}

	entries, err := h.notificationService.GetOrderNotifications(uint(orderID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": entries})
}

func (h *StaffHandler) CreateOnboardingLink(c *gin.Context) {
	restaurant := restaurantFromContext(c)

	url, err := h.paymentService.CreateOnboardingLink(restaurant, h.onboardingReturnURL, h.onboardingReturnURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create onboarding link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"onboarding_url": url})
}
