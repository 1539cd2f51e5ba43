package handlers

import (
	"net/http"
	"strings"

	"restaurant_platform/internal/models"
	"restaurant_platform/internal/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const restaurantContextKey = "restaurant"

// RequireRestaurant authenticates staff requests with an API key of the
// form "<slug>:<secret>" and scopes the request to that restaurant.
// Every staff query downstream filters by this scope.
func RequireRestaurant(restaurantRepo repository.RestaurantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing API key"})
			return
		}

		slug, secret, found := strings.Cut(apiKey, ":")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Malformed API key"})
			return
		}

		restaurant, err := restaurantRepo.GetBySlug(slug)
		if err != nil || !restaurant.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(restaurant.APIKeyHash), []byte(secret)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Set(restaurantContextKey, restaurant)
		c.Next()
	}
}

func restaurantFromContext(c *gin.Context) *models.Restaurant {
	value, exists := c.Get(restaurantContextKey)
	if !exists {
		return nil
	}
	restaurant, _ := value.(*models.Restaurant)
	return restaurant
}
