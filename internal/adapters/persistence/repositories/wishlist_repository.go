package repositories

import (
	"bookhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// WishlistRepository handles wishlist database operations
type WishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository creates a new wishlist repository
func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add stores a wishlist item
func (r *WishlistRepository) Add(item *models.WishlistItem) error {
	return r.db.Create(item).Error
}

// Remove deletes a user's wishlist item for a book
func (r *WishlistRepository) Remove(userID, bookID uint) (bool, error) {
	result := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&models.WishlistItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Exists checks whether a book is already on a user's wishlist
func (r *WishlistRepository) Exists(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.WishlistItem{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns a user's wishlist with books preloaded
func (r *WishlistRepository) ListByUser(userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
