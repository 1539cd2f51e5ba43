package handlers

import (
	"errors"
	"io"
	"net/http"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService      services.OrderService
	paymentService    services.PaymentService
	defaultSuccessURL string
	defaultCancelURL  string
}

func NewOrderHandler(orderService services.OrderService, paymentService services.PaymentService, defaultSuccessURL, defaultCancelURL string) *OrderHandler {
	return &OrderHandler{
		orderService:      orderService,
		paymentService:    paymentService,
		defaultSuccessURL: defaultSuccessURL,
		defaultCancelURL:  defaultCancelURL,
	}
}

// GetMenu lists the restaurant's currently available items and bundles.
func (h *OrderHandler) GetMenu(c *gin.Context) {
	items, bundles, err := h.orderService.GetMenu(c.Param("slug"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "bundles": bundles})
}

type placeOrderLine struct {
	MenuItemID *uint  `json:"menu_item_id"`
	BundleID   *uint  `json:"bundle_id"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	Modifiers  string `json:"modifiers"`
	Notes      string `json:"notes"`
}

type placeOrderRequest struct {
	Restaurant    string             `json:"restaurant" binding:"required"`
	Source        models.OrderSource `json:"source"`
	TableID       string             `json:"table_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	Notes         string             `json:"notes"`
	TipAmount     float64            `json:"tip_amount"`
	Lines         []placeOrderLine   `json:"lines" binding:"required,min=1"`
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	createReq := services.CreateOrderRequest{
		RestaurantRef: req.Restaurant,
		Source:        req.Source,
		TableID:       req.TableID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		TipAmount:     req.TipAmount,
	}
	for _, line := range req.Lines {
		createReq.Lines = append(createReq.Lines, services.CreateOrderLine{
			MenuItemID: line.MenuItemID,
			BundleID:   line.BundleID,
			Quantity:   line.Quantity,
			Modifiers:  line.Modifiers,
			Notes:      line.Notes,
		})
	}

	order, err := h.orderService.CreateOrder(createReq)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrderByNumber(c.Param("number"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type startCheckoutRequest struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (h *OrderHandler) StartCheckout(c *gin.Context) {
	// Body is optional; configured redirect URLs are the fallback.
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.SuccessURL == "" {
		req.SuccessURL = h.defaultSuccessURL
	}
	if req.CancelURL == "" {
		req.CancelURL = h.defaultCancelURL
	}

	url, err := h.paymentService.CreateCheckoutSession(c.Param("number"), req.SuccessURL, req.CancelURL)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotReady) {
			c.JSON(http.StatusConflict, gin.H{
				"error":               "Restaurant cannot accept card payments yet",
				"onboarding_required": true,
			})
			return
		}
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}

func respondOrderError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "issues": validationErr.Issues})
	case errors.Is(err, services.ErrRestaurantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
