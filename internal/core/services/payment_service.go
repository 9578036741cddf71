package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"
	"bookhub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment errors
var (
	ErrFineNotFound        = errors.New("fine record not found")
	ErrFineNotOwned        = errors.New("you are not authorized to pay this fine")
	ErrFineAlreadyPaid     = errors.New("fine is already paid")
	ErrFineNotPayable      = errors.New("only charged fine entries can be paid")
	ErrPaymentVerification = errors.New("payment verification failed")
)

// PaymentService settles individual fine ledger entries through the payment
// provider. Verification recomputes the provider's HMAC-SHA256 signature
// over "orderID|paymentID" with the shared key secret.
type PaymentService struct {
	db            *gorm.DB
	fineRepo      *repositories.FineRepository
	userRepo      repositories.UserRepository
	notifyService *NotificationService
	keySecret     string
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	db *gorm.DB,
	fineRepo *repositories.FineRepository,
	userRepo repositories.UserRepository,
	notifyService *NotificationService,
	keySecret string,
) *PaymentService {
	return &PaymentService{
		db:            db,
		fineRepo:      fineRepo,
		userRepo:      userRepo,
		notifyService: notifyService,
		keySecret:     keySecret,
	}
}

// CreateOrderInput represents a payment order request
type CreateOrderInput struct {
	FineID uint `json:"fine_id" validate:"required"`
}

// OrderResponse represents a provider payment order
type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	FineID   uint   `json:"fine_id"`
}

// VerifyPaymentInput represents the provider callback fields
type VerifyPaymentInput struct {
	FineID    uint   `json:"fine_id" validate:"required"`
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// PaymentReceipt reports a settled fine entry
type PaymentReceipt struct {
	FineID    uint    `json:"fine_id"`
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
}

// PaymentStats summarizes a user's settled and pending fine entries
type PaymentStats struct {
	TotalPaid      float64 `json:"total_paid"`
	TotalPaidCount int64   `json:"total_paid_count"`
	PendingAmount  float64 `json:"pending_amount"`
	PendingCount   int64   `json:"pending_count"`
}

// CreateOrder issues a provider order for one unpaid charged entry
func (s *PaymentService) CreateOrder(userID uint, input *CreateOrderInput) (*OrderResponse, error) {
	fine, err := s.loadPayableFine(input.FineID, userID)
	if err != nil {
		return nil, err
	}

	orderID := "order_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	fine.OrderID = &orderID
	if err := s.fineRepo.Update(fine); err != nil {
		return nil, err
	}

	log.Printf("✅ Payment order %s created for fine %d (user %d)", orderID, fine.ID, userID)

	return &OrderResponse{
		OrderID:  orderID,
		Amount:   int64(fine.Amount * 100),
		Currency: "INR",
		Receipt:  fmt.Sprintf("fine_receipt_%d", fine.ID),
		FineID:   fine.ID,
	}, nil
}

// VerifyPayment checks the provider signature and settles the entry: the
// entry is marked paid and the user's balance drops by its amount, floored
// at zero, in one transaction.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID uint, input *VerifyPaymentInput) (*PaymentReceipt, error) {
	fine, err := s.loadPayableFine(input.FineID, userID)
	if err != nil {
		return nil, err
	}

	if !s.verifySignature(input.OrderID, input.PaymentID, input.Signature) {
		return nil, ErrPaymentVerification
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		fineRepo := s.fineRepo.WithTx(tx)

		fine.IsPaid = true
		fine.PaymentID = &input.PaymentID
		fine.PaidAt = &now
		if err := fineRepo.Update(fine); err != nil {
			return err
		}

		newBalance := user.FineAmount - fine.Amount
		if newBalance < 0 {
			newBalance = 0
		}
		return fineRepo.SetUserBalance(user.ID, newBalance)
	})
	if err != nil {
		return nil, err
	}

	s.notifyService.Notify(userID, "fine_paid", "Payment Received",
		fmt.Sprintf("Your payment of ₹%.2f has been received.", fine.Amount))

	log.Printf("✅ Payment verified: fine %d settled by user %d (payment %s)", fine.ID, userID, input.PaymentID)

	return &PaymentReceipt{
		FineID:    fine.ID,
		PaymentID: input.PaymentID,
		Amount:    fine.Amount,
	}, nil
}

// History returns a user's settled entries
func (s *PaymentService) History(userID uint) ([]models.FineHistory, error) {
	return s.fineRepo.ListPaidByUser(userID)
}

// Stats returns a user's payment statistics
func (s *PaymentService) Stats(userID uint) (*PaymentStats, error) {
	paidTotal, paidCount, err := s.fineRepo.SumPaidByUser(userID, true)
	if err != nil {
		return nil, err
	}

	pendingTotal, pendingCount, err := s.fineRepo.SumPaidByUser(userID, false)
	if err != nil {
		return nil, err
	}

	return &PaymentStats{
		TotalPaid:      paidTotal,
		TotalPaidCount: paidCount,
		PendingAmount:  pendingTotal,
		PendingCount:   pendingCount,
	}, nil
}

// loadPayableFine fetches an entry and applies ownership and settlement checks
func (s *PaymentService) loadPayableFine(fineID, userID uint) (*models.FineHistory, error) {
	fine, err := s.fineRepo.GetByID(fineID)
	if err != nil {
		return nil, ErrFineNotFound
	}
	if fine.UserID != userID {
		return nil, ErrFineNotOwned
	}
	if fine.Type != domain.FineTypeCharged {
		return nil, ErrFineNotPayable
	}
	if fine.IsPaid {
		return nil, ErrFineAlreadyPaid
	}
	return fine, nil
}

// verifySignature recomputes the expected HMAC and compares in constant time
func (s *PaymentService) verifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
