package handlers

import (
	"errors"
	"strconv"

	"bookhub/internal/core/services"
	"bookhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReservationHandler handles reservation queue endpoints
type ReservationHandler struct {
	reservationService *services.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// Reserve joins the caller to a book's waiting queue
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ReserveInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	result, err := h.reservationService.Reserve(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrAlreadyIssued):
			return response.Conflict(c, "You already have this book issued")
		case errors.Is(err, services.ErrAlreadyInQueue):
			return response.Conflict(c, "You are already in the queue for this book")
		default:
			return response.InternalServerError(c, "Failed to create reservation")
		}
	}

	return response.Created(c, "Reservation created successfully", result)
}

// Cancel removes the caller's reservation
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	reservationID, err := strconv.ParseUint(c.Params("reservationId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	if err := h.reservationService.Cancel(uint(reservationID), userID); err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		default:
			return response.InternalServerError(c, "Failed to cancel reservation")
		}
	}

	return response.Success(c, "Reservation cancelled successfully", nil)
}

// MyReservations returns the caller's reservations and queue placements
func (h *ReservationHandler) MyReservations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	reservations, placements, err := h.reservationService.MyReservations(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reservations")
	}

	return response.Success(c, "Reservations retrieved successfully", fiber.Map{
		"reservations": reservations,
		"queues":       placements,
	})
}

// Stats returns the caller's reservation statistics
func (h *ReservationHandler) Stats(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	stats, err := h.reservationService.Stats(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute reservation stats")
	}

	return response.Success(c, "Reservation stats retrieved successfully", stats)
}
