package handlers

import (
	"errors"

	"bookhub/internal/core/services"
	"bookhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles online fine payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateOrder issues a provider order for one unpaid fine entry
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.FineID == 0 {
		return response.BadRequest(c, "Fine ID is required")
	}

	order, err := h.paymentService.CreateOrder(userID, &req)
	if err != nil {
		return h.mapPaymentError(c, err, "Failed to create payment order")
	}

	return response.Created(c, "Payment order created successfully", order)
}

// VerifyPayment checks the provider signature and settles the fine
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.VerifyPaymentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.FineID == 0 {
		return response.BadRequest(c, "Fine ID is required")
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return response.BadRequest(c, "Order ID, payment ID and signature are required")
	}

	receipt, err := h.paymentService.VerifyPayment(c.Context(), userID, &req)
	if err != nil {
		return h.mapPaymentError(c, err, "Failed to verify payment")
	}

	return response.Success(c, "Payment verified successfully", receipt)
}

// History returns the caller's settled fine entries
func (h *PaymentHandler) History(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	entries, err := h.paymentService.History(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get payment history")
	}

	return response.Success(c, "Payment history retrieved successfully", entries)
}

// Stats returns the caller's payment statistics
func (h *PaymentHandler) Stats(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	stats, err := h.paymentService.Stats(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute payment stats")
	}

	return response.Success(c, "Payment stats retrieved successfully", stats)
}

// mapPaymentError translates service errors into HTTP responses
func (h *PaymentHandler) mapPaymentError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrFineNotFound):
		return response.NotFound(c, "Fine record not found")
	case errors.Is(err, services.ErrFineNotOwned):
		return response.Forbidden(c, "You are not authorized to pay this fine")
	case errors.Is(err, services.ErrFineAlreadyPaid):
		return response.Conflict(c, "Fine is already paid")
	case errors.Is(err, services.ErrFineNotPayable):
		return response.Conflict(c, "Only charged fine entries can be paid")
	case errors.Is(err, services.ErrPaymentVerification):
		return response.BadRequest(c, "Payment verification failed")
	default:
		return response.InternalServerError(c, fallback)
	}
}
