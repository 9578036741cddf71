package services

import (
	"errors"
	"log"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"
	"bookhub/internal/core/domain"
	"bookhub/internal/pkg/pagination"
)

// Book catalog errors
var (
	ErrBookHasActiveBorrows = errors.New("book has active borrow records and cannot be deleted")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
)

// BookService handles catalog business logic
type BookService struct {
	bookRepo *repositories.BookRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo *repositories.BookRepository) *BookService {
	return &BookService{bookRepo: bookRepo}
}

// CreateBookInput represents a new catalog entry
type CreateBookInput struct {
	Title       string `json:"title" validate:"required"`
	Authors     string `json:"authors" validate:"required"`
	Genres      string `json:"genres"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateBookInput represents catalog edits; nil fields are left untouched
type UpdateBookInput struct {
	Title       *string `json:"title"`
	Authors     *string `json:"authors"`
	Genres      *string `json:"genres"`
	Description *string `json:"description"`
	CoverImage  *string `json:"cover_image"`
	Quantity    *int    `json:"quantity"`
}

// Create adds a book; all copies start available
func (s *BookService) Create(input *CreateBookInput) (*models.Book, error) {
	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	book := &models.Book{
		Title:             input.Title,
		Authors:           input.Authors,
		Genres:            input.Genres,
		Description:       input.Description,
		CoverImage:        input.CoverImage,
		Quantity:          input.Quantity,
		AvailableQuantity: input.Quantity,
	}

	if err := s.bookRepo.Create(book); err != nil {
		return nil, err
	}

	log.Printf("✅ Book created: '%s' (%d copies)", book.Title, book.Quantity)
	return book, nil
}

// GetByID returns a non-deleted book
func (s *BookService) GetByID(id uint) (*models.Book, error) {
	book, err := s.bookRepo.GetActiveByID(id)
	if err != nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// List returns a paginated catalog page with optional title search
func (s *BookService) List(search string, params *pagination.Params) ([]models.Book, int64, error) {
	return s.bookRepo.List(search, params.Offset, params.Limit)
}

// Update applies partial edits. Quantity changes shift available copies by the
// same delta, clamped to [0, quantity], so issued copies stay accounted for.
func (s *BookService) Update(id uint, input *UpdateBookInput) (*models.Book, error) {
	book, err := s.bookRepo.GetActiveByID(id)
	if err != nil {
		return nil, ErrBookNotFound
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Authors != nil {
		book.Authors = *input.Authors
	}
	if input.Genres != nil {
		book.Genres = *input.Genres
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.CoverImage != nil {
		book.CoverImage = *input.CoverImage
	}
	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		delta := *input.Quantity - book.Quantity
		book.Quantity = *input.Quantity
		book.AvailableQuantity += delta
		if book.AvailableQuantity < 0 {
			book.AvailableQuantity = 0
		}
		if book.AvailableQuantity > book.Quantity {
			book.AvailableQuantity = book.Quantity
		}
	}

	if err := s.bookRepo.Update(book); err != nil {
		return nil, err
	}

	log.Printf("✅ Book %d updated", book.ID)
	return book, nil
}

// Delete soft-deletes a book. Blocked while any record still holds or awaits
// a copy, so history and queues never point at a vanished title.
func (s *BookService) Delete(id uint) error {
	if _, err := s.bookRepo.GetActiveByID(id); err != nil {
		return ErrBookNotFound
	}

	active, err := s.bookRepo.CountActiveBorrows(id, []string{
		domain.BorrowStatusRequested,
		domain.BorrowStatusIssued,
		domain.BorrowStatusReserved,
		domain.BorrowStatusReturnRequested,
		domain.BorrowStatusOverdue,
	})
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrBookHasActiveBorrows
	}

	if err := s.bookRepo.SoftDelete(id); err != nil {
		return err
	}

	log.Printf("✅ Book %d soft-deleted", id)
	return nil
}
