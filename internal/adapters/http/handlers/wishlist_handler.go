package handlers

import (
	"errors"
	"strconv"

	"bookhub/internal/core/services"
	"bookhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlistService *services.WishlistService
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlistService *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// Add puts a book on the caller's wishlist
func (h *WishlistHandler) Add(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	bookID, err := strconv.ParseUint(c.Params("bookId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	item, err := h.wishlistService.Add(userID, uint(bookID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrAlreadyInWishlist):
			return response.Conflict(c, "Book is already in your wishlist")
		default:
			return response.InternalServerError(c, "Failed to add to wishlist")
		}
	}

	return response.Created(c, "Book added to wishlist", item)
}

// Remove takes a book off the caller's wishlist
func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	bookID, err := strconv.ParseUint(c.Params("bookId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.wishlistService.Remove(userID, uint(bookID)); err != nil {
		switch {
		case errors.Is(err, services.ErrWishlistItemNotFound):
			return response.NotFound(c, "Wishlist item not found")
		default:
			return response.InternalServerError(c, "Failed to remove from wishlist")
		}
	}

	return response.Success(c, "Book removed from wishlist", nil)
}

// List returns the caller's wishlist
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	items, err := h.wishlistService.List(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list wishlist")
	}

	return response.Success(c, "Wishlist retrieved successfully", items)
}
