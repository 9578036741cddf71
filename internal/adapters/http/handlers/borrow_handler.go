package handlers

import (
	"errors"
	"strconv"

	"bookhub/internal/core/domain"
	"bookhub/internal/core/services"
	"bookhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BorrowHandler handles borrow lifecycle endpoints
type BorrowHandler struct {
	borrowService *services.BorrowService
}

// NewBorrowHandler creates a new borrow handler
func NewBorrowHandler(borrowService *services.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrowService: borrowService}
}

// RequestBorrow handles a user's borrow request for a book
func (h *BorrowHandler) RequestBorrow(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	bookID, err := strconv.ParseUint(c.Params("bookId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	record, err := h.borrowService.RequestBorrow(userID, uint(bookID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrAlreadyBorrowed):
			return response.Conflict(c, "You already have an active request or issued copy for this book")
		case errors.Is(err, services.ErrNoCopiesAvailable):
			return response.Conflict(c, "No copies available. You can reserve this book instead.")
		default:
			return response.InternalServerError(c, "Failed to create borrow request")
		}
	}

	return response.Created(c, "Borrow request created successfully", record)
}

// RequestReturn moves an issued record to return_requested
func (h *BorrowHandler) RequestReturn(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	requestID, err := strconv.ParseUint(c.Params("requestId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	record, err := h.borrowService.RequestReturn(uint(requestID), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowRecordNotFound):
			return response.NotFound(c, "Borrow record not found")
		case errors.Is(err, services.ErrInvalidRecordStatus):
			return response.Conflict(c, "Only issued books can be returned")
		default:
			return response.InternalServerError(c, "Failed to request return")
		}
	}

	return response.Success(c, "Return requested successfully", record)
}

// Renew extends an issued record's due date
func (h *BorrowHandler) Renew(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	requestID, err := strconv.ParseUint(c.Params("requestId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	record, err := h.borrowService.Renew(uint(requestID), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowRecordNotFound):
			return response.NotFound(c, "Borrow record not found")
		case errors.Is(err, services.ErrRenewLimitReached):
			return response.Conflict(c, "Maximum renewal limit reached")
		case errors.Is(err, services.ErrRenewOverdue):
			return response.Conflict(c, "Cannot renew overdue books")
		default:
			return response.InternalServerError(c, "Failed to renew book")
		}
	}

	return response.Success(c, "Book renewed successfully", record)
}

// MyBorrows returns the caller's borrow records
func (h *BorrowHandler) MyBorrows(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	records, err := h.borrowService.MyBorrows(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list borrow records")
	}

	return response.Success(c, "Borrow records retrieved successfully", records)
}

// ListRequests returns records by status for admin review
func (h *BorrowHandler) ListRequests(c *fiber.Ctx) error {
	status := c.Query("status", domain.BorrowStatusRequested)

	records, err := h.borrowService.ListByStatus(status)
	if err != nil {
		return response.InternalServerError(c, "Failed to list requests")
	}

	return response.Success(c, "Requests retrieved successfully", records)
}

// HandleRequest approves or denies a borrow request (admin)
func (h *BorrowHandler) HandleRequest(c *fiber.Ctx) error {
	var req services.HandleRequestInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.RequestID == 0 {
		return response.BadRequest(c, "Request ID is required")
	}
	if req.Action != "approve" && req.Action != "deny" {
		return response.BadRequest(c, "Action must be 'approve' or 'deny'")
	}

	record, err := h.borrowService.HandleRequest(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowRecordNotFound):
			return response.NotFound(c, "Borrow request not found")
		case errors.Is(err, services.ErrInvalidRecordStatus):
			return response.Conflict(c, "Request is not pending")
		case errors.Is(err, services.ErrNoCopiesAvailable):
			return response.Conflict(c, "No copies available to issue")
		default:
			return response.InternalServerError(c, "Failed to handle request")
		}
	}

	return response.Success(c, "Request handled successfully", record)
}

// HandleReturn approves or denies a pending return (admin)
func (h *BorrowHandler) HandleReturn(c *fiber.Ctx) error {
	var req services.HandleRequestInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.RequestID == 0 {
		return response.BadRequest(c, "Request ID is required")
	}
	if req.Action != "approve" && req.Action != "deny" {
		return response.BadRequest(c, "Action must be 'approve' or 'deny'")
	}

	record, err := h.borrowService.HandleReturn(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowRecordNotFound):
			return response.NotFound(c, "Borrow record not found")
		case errors.Is(err, services.ErrInvalidRecordStatus):
			return response.Conflict(c, "No pending return for this record")
		default:
			return response.InternalServerError(c, "Failed to handle return")
		}
	}

	return response.Success(c, "Return handled successfully", record)
}
