package repository

import (
	"restaurant_platform/internal/models"

	"gorm.io/gorm"
)

type RestaurantRepository interface {
	Create(restaurant *models.Restaurant) error
	GetByID(id uint) (*models.Restaurant, error)
	GetBySlug(slug string) (*models.Restaurant, error)
	Update(restaurant *models.Restaurant) error
	SetStripeAccountID(id uint, accountID string) (bool, error)
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(restaurant *models.Restaurant) error {
	return r.db.Create(restaurant).Error
}

func (r *restaurantRepository) GetByID(id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.First(&restaurant, id).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) GetBySlug(slug string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.Where("slug = ?", slug).First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) Update(restaurant *models.Restaurant) error {
	return r.db.Save(restaurant).Error
}

// SetStripeAccountID persists the sub-account id only when none is stored
// yet, so concurrent provisioning attempts cannot overwrite each other.
func (r *restaurantRepository) SetStripeAccountID(id uint, accountID string) (bool, error) {
	tx := r.db.Model(&models.Restaurant{}).
		Where("id = ? AND (stripe_account_id IS NULL OR stripe_account_id = '')", id).
		Update("stripe_account_id", accountID)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
