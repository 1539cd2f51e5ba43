package repository

import (
	"restaurant_platform/internal/models"

	"gorm.io/gorm"
)

type MenuRepository interface {
	CreateItem(item *models.MenuItem) error
	CreateBundle(bundle *models.MenuBundle) error
	GetItemsByIDs(restaurantID uint, ids []uint) ([]models.MenuItem, error)
	GetBundlesByIDs(restaurantID uint, ids []uint) ([]models.MenuBundle, error)
	GetMenu(restaurantID uint) ([]models.MenuItem, []models.MenuBundle, error)
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) CreateItem(item *models.MenuItem) error {
	return r.db.Create(item).Error
}

func (r *menuRepository) CreateBundle(bundle *models.MenuBundle) error {
	return r.db.Create(bundle).Error
}

func (r *menuRepository) GetItemsByIDs(restaurantID uint, ids []uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.Where("restaurant_id = ? AND id IN ?", restaurantID, ids).Find(&items).Error
	return items, err
}

func (r *menuRepository) GetBundlesByIDs(restaurantID uint, ids []uint) ([]models.MenuBundle, error) {
	var bundles []models.MenuBundle
	if len(ids) == 0 {
		return bundles, nil
	}
	err := r.db.Preload("Items").Where("restaurant_id = ? AND id IN ?", restaurantID, ids).Find(&bundles).Error
	return bundles, err
}

func (r *menuRepository) GetMenu(restaurantID uint) ([]models.MenuItem, []models.MenuBundle, error) {
	var items []models.MenuItem
	if err := r.db.Where("restaurant_id = ? AND is_available = ?", restaurantID, true).Find(&items).Error; err != nil {
		return nil, nil, err
	}
	var bundles []models.MenuBundle
	if err := r.db.Preload("Items").Where("restaurant_id = ? AND is_available = ?", restaurantID, true).Find(&bundles).Error; err != nil {
		return nil, nil, err
	}
	return items, bundles, nil
}
