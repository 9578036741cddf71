package handlers

import (
	"errors"
	"strconv"

	"bookhub/internal/core/services"
	"bookhub/internal/pkg/pagination"
	"bookhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles book catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// List returns a paginated catalog page
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	search := c.Query("search", "")

	books, total, err := h.bookService.List(search, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "Books retrieved successfully",
		pagination.NewResponse(books, params, total))
}

// Get returns one book
func (h *BookHandler) Get(c *fiber.Ctx) error {
	bookID, err := strconv.ParseUint(c.Params("bookId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetByID(uint(bookID))
	if err != nil {
		return response.NotFound(c, "Book not found")
	}

	return response.Success(c, "Book retrieved successfully", book)
}

// Create adds a new book (admin)
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req services.CreateBookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if req.Authors == "" {
		return response.BadRequest(c, "Authors is required")
	}
	if req.Quantity < 1 {
		return response.BadRequest(c, "Quantity must be at least 1")
	}

	book, err := h.bookService.Create(&req)
	if err != nil {
		return response.InternalServerError(c, "Failed to create book")
	}

	return response.Created(c, "Book created successfully", book)
}

// Update edits a book (admin)
func (h *BookHandler) Update(c *fiber.Ctx) error {
	bookID, err := strconv.ParseUint(c.Params("bookId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var req services.UpdateBookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.Update(uint(bookID), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrInvalidQuantity):
			return response.BadRequest(c, "Quantity must be at least 1")
		default:
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.Success(c, "Book updated successfully", book)
}

// Delete soft-deletes a book (admin)
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	bookID, err := strconv.ParseUint(c.Params("bookId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.Delete(uint(bookID)); err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrBookHasActiveBorrows):
			return response.Conflict(c, "Book has active borrow records and cannot be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete book")
		}
	}

	return response.Success(c, "Book deleted successfully", nil)
}
