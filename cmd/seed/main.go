package main

import (
	"fmt"
	"log"

	"restaurant_platform/internal/config"
	"restaurant_platform/internal/database"
	"restaurant_platform/internal/models"
	"restaurant_platform/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo restaurant with a small menu and prints its staff API key.
func main() {
	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	restaurantRepo := repository.NewRestaurantRepository(db)
	menuRepo := repository.NewMenuRepository(db)

	apiSecret := "demo-secret"
	hash, err := bcrypt.GenerateFromPassword([]byte(apiSecret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash API secret:", err)
	}

	restaurant := &models.Restaurant{
		Slug:               "demo-diner",
		Name:               "Demo Diner",
		Email:              "owner@demo-diner.test",
		IsActive:           true,
		Currency:           "usd",
		TaxPercent:         8.5,
		PlatformFeePercent: 2,
		APIKeyHash:         string(hash),
	}
	if err := restaurantRepo.Create(restaurant); err != nil {
		log.Fatal("Failed to create restaurant:", err)
	}

	items := []models.MenuItem{
		{RestaurantID: restaurant.ID, Name: "Classic Burger", Description: "Beef patty, cheddar, pickles", Price: 10.00, IsAvailable: true},
		{RestaurantID: restaurant.ID, Name: "Fries", Description: "Crispy shoestring fries", Price: 4.00, IsAvailable: true},
		{RestaurantID: restaurant.ID, Name: "Lemonade", Description: "Fresh squeezed", Price: 3.50, IsAvailable: true},
	}
	for i := range items {
		if err := menuRepo.CreateItem(&items[i]); err != nil {
			log.Fatal("Failed to create menu item:", err)
		}
	}

	bundle := &models.MenuBundle{
		RestaurantID: restaurant.ID,
		Name:         "Burger Combo",
		Description:  "Burger, fries and a drink",
		Price:        15.00,
		IsAvailable:  true,
		Items: []models.MenuBundleItem{
			{MenuItemID: items[0].ID, Quantity: 1},
			{MenuItemID: items[1].ID, Quantity: 1},
			{MenuItemID: items[2].ID, Quantity: 1},
		},
	}
	if err := menuRepo.CreateBundle(bundle); err != nil {
		log.Fatal("Failed to create menu bundle:", err)
	}

	fmt.Println("Seeded restaurant 'demo-diner'")
	fmt.Printf("Staff API key: %s:%s\n", restaurant.Slug, apiSecret)
}
