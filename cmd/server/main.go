package main

import (
	"log"

	"restaurant_platform/internal/config"
	"restaurant_platform/internal/database"
	"restaurant_platform/internal/handlers"
	"restaurant_platform/internal/redis"
	"restaurant_platform/internal/repository"
	"restaurant_platform/internal/services"
	"restaurant_platform/pkg/logger"
	"restaurant_platform/pkg/payments"
	"restaurant_platform/pkg/sms"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Provider clients are constructed once and injected, never global.
	stripeGateway := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	smsClient := sms.NewClient(cfg.SMSAPIURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSSender)

	// Initialize repositories
	restaurantRepo := repository.NewRestaurantRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, smsClient, cfg.SMSCountryCode, zapLogger)
	orderService := services.NewOrderService(orderRepo, restaurantRepo, menuRepo, notificationService, redisClient, zapLogger)
	paymentService := services.NewPaymentService(stripeGateway, orderRepo, restaurantRepo, webhookEventRepo, orderService, redisClient, zapLogger)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService, paymentService, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	staffHandler := handlers.NewStaffHandler(orderService, paymentService, notificationService, cfg.OnboardingReturnURL)
	webhookHandler := handlers.NewWebhookHandler(paymentService, notificationService, zapLogger)

	// Setup routes
	router := gin.Default()

	api := router.Group("/api")
	{
		// Customer-facing
		api.GET("/restaurants/:slug/menu", orderHandler.GetMenu)
		api.POST("/orders", orderHandler.PlaceOrder)
		api.GET("/orders/:number", orderHandler.GetOrder)
		api.POST("/orders/:number/checkout", orderHandler.StartCheckout)

		// Provider webhooks
		api.POST("/webhooks/stripe", webhookHandler.HandleStripeWebhook)
		api.POST("/webhooks/sms", webhookHandler.HandleSMSCallback)

		// Staff-facing, scoped to the authenticated restaurant
		staff := api.Group("/staff", handlers.RequireRestaurant(restaurantRepo))
		{
			staff.GET("/orders", staffHandler.ListOrders)
			staff.POST("/orders/:id/status", staffHandler.TransitionStatus)
			staff.PATCH("/orders/:id", staffHandler.UpdateOrder)
			staff.GET("/orders/:id/notifications", staffHandler.GetOrderNotifications)
			staff.POST("/stripe/onboarding", staffHandler.CreateOnboardingLink)
		}
	}

	// Start server
	zapLogger.Sugar().Infof("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
