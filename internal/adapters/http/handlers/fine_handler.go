package handlers

import (
	"errors"
	"strconv"

	"bookhub/internal/core/services"
	"bookhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FineHandler handles fine ledger endpoints (admin side)
type FineHandler struct {
	fineService *services.FineService
}

// NewFineHandler creates a new fine handler
func NewFineHandler(fineService *services.FineService) *FineHandler {
	return &FineHandler{fineService: fineService}
}

// Charge adds a fine to a user's balance (admin)
func (h *FineHandler) Charge(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ChargeInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.UserID == 0 {
		return response.BadRequest(c, "User ID is required")
	}
	if req.Amount <= 0 {
		return response.BadRequest(c, "Amount must be greater than 0")
	}

	result, err := h.fineService.Charge(c.Context(), adminID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrInvalidFineAmount):
			return response.BadRequest(c, "Amount must be greater than 0")
		default:
			return response.InternalServerError(c, "Failed to charge fine")
		}
	}

	return response.Success(c, "Fine charged successfully", result)
}

// Clear settles a user's full balance (admin)
func (h *FineHandler) Clear(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ClearInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User ID is required")
	}

	result, err := h.fineService.Clear(c.Context(), adminID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to clear fine")
		}
	}

	return response.Success(c, "Fine cleared successfully", result)
}

// UsersWithFines lists users carrying an outstanding balance (admin)
func (h *FineHandler) UsersWithFines(c *fiber.Ctx) error {
	users, err := h.fineService.UsersWithFines()
	if err != nil {
		return response.InternalServerError(c, "Failed to list users with fines")
	}

	return response.Success(c, "Users with fines retrieved successfully", users)
}

// History returns a user's full ledger (admin)
func (h *FineHandler) History(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, entries, err := h.fineService.History(c.Context(), uint(userID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to get fine history")
		}
	}

	return response.Success(c, "Fine history retrieved successfully", fiber.Map{
		"user":    user,
		"history": entries,
	})
}

// Stats returns ledger-wide aggregates (admin)
func (h *FineHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.fineService.Stats()
	if err != nil {
		return response.InternalServerError(c, "Failed to compute fine stats")
	}

	return response.Success(c, "Fine stats retrieved successfully", stats)
}
