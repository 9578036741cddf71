package services

import (
	"errors"
	"log"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"
)

// Wishlist errors
var (
	ErrAlreadyInWishlist    = errors.New("book is already in your wishlist")
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
)

// WishlistService handles personal reading lists
type WishlistService struct {
	wishlistRepo *repositories.WishlistRepository
	bookRepo     *repositories.BookRepository
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(
	wishlistRepo *repositories.WishlistRepository,
	bookRepo *repositories.BookRepository,
) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		bookRepo:     bookRepo,
	}
}

// Add puts a book on the user's wishlist
func (s *WishlistService) Add(userID, bookID uint) (*models.WishlistItem, error) {
	book, err := s.bookRepo.GetActiveByID(bookID)
	if err != nil {
		return nil, ErrBookNotFound
	}

	exists, err := s.wishlistRepo.Exists(userID, bookID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyInWishlist
	}

	item := &models.WishlistItem{
		UserID: userID,
		BookID: bookID,
	}
	if err := s.wishlistRepo.Add(item); err != nil {
		return nil, err
	}

	log.Printf("✅ Wishlist add: user %d, book %d ('%s')", userID, bookID, book.Title)
	item.Book = *book
	return item, nil
}

// Remove takes a book off the user's wishlist
func (s *WishlistService) Remove(userID, bookID uint) error {
	removed, err := s.wishlistRepo.Remove(userID, bookID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrWishlistItemNotFound
	}

	log.Printf("✅ Wishlist remove: user %d, book %d", userID, bookID)
	return nil
}

// List returns the user's wishlist
func (s *WishlistService) List(userID uint) ([]models.WishlistItem, error) {
	return s.wishlistRepo.ListByUser(userID)
}
