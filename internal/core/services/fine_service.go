package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"
	"bookhub/internal/core/domain"

	"gorm.io/gorm"
)

// Fine errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidFineAmount = errors.New("fine amount must be greater than 0")
)

// FineService tracks monetary obligations. The ledger is append-only;
// User.FineAmount is the denormalized balance and is only written inside
// the same transaction as the matching ledger entry, so the two cannot
// drift: fine_amount == sum(charged) - sum(paid) at all times.
type FineService struct {
	db            *gorm.DB
	fineRepo      *repositories.FineRepository
	userRepo      repositories.UserRepository
	notifyService *NotificationService
}

// NewFineService creates a new fine service
func NewFineService(
	db *gorm.DB,
	fineRepo *repositories.FineRepository,
	userRepo repositories.UserRepository,
	notifyService *NotificationService,
) *FineService {
	return &FineService{
		db:            db,
		fineRepo:      fineRepo,
		userRepo:      userRepo,
		notifyService: notifyService,
	}
}

// ChargeInput represents an admin fine charge
type ChargeInput struct {
	UserID uint    `json:"user_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason"`
}

// ClearInput represents an admin fine clear
type ClearInput struct {
	UserID uint `json:"user_id" validate:"required"`
}

// BalanceResponse reports a user's balance after a ledger operation
type BalanceResponse struct {
	UserID            uint    `json:"user_id"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	CurrentFineAmount float64 `json:"current_fine_amount"`
}

// FineStats aggregates the ledger
type FineStats struct {
	TotalFinesCollected   float64 `json:"total_fines_collected"`
	TotalOutstandingFines float64 `json:"total_outstanding_fines"`
	TotalFinesCharged     float64 `json:"total_fines_charged"`
}

// Charge appends a `charged` ledger entry and adds to the user's balance
func (s *FineService) Charge(ctx context.Context, adminID uint, input *ChargeInput) (*BalanceResponse, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidFineAmount
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	reason := input.Reason
	if reason == "" {
		reason = "Not specified"
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		fineRepo := s.fineRepo.WithTx(tx)

		if err := fineRepo.Create(&models.FineHistory{
			UserID:  user.ID,
			Amount:  input.Amount,
			Reason:  reason,
			Type:    domain.FineTypeCharged,
			AdminID: &adminID,
		}); err != nil {
			return err
		}
		return fineRepo.AddToUserBalance(user.ID, input.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.notifyService.Notify(user.ID, "fine_charged", "Fine Charged",
		fmt.Sprintf("A fine of ₹%.2f has been added to your account: %s", input.Amount, reason))

	log.Printf("✅ Fine charged: ₹%.2f to user %d (%s)", input.Amount, user.ID, reason)

	return &BalanceResponse{
		UserID:            user.ID,
		FullName:          user.FullName,
		Email:             user.Email,
		CurrentFineAmount: user.FineAmount + input.Amount,
	}, nil
}

// Clear settles a user's full balance with one `paid` entry. There are no
// partial clears; clearing a zero balance appends nothing.
func (s *FineService) Clear(ctx context.Context, adminID uint, input *ClearInput) (*BalanceResponse, error) {
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if user.FineAmount > 0 {
		previousBalance := user.FineAmount

		err = s.db.Transaction(func(tx *gorm.DB) error {
			fineRepo := s.fineRepo.WithTx(tx)

			if err := fineRepo.Create(&models.FineHistory{
				UserID:  user.ID,
				Amount:  previousBalance,
				Reason:  "Admin cleared fine",
				Type:    domain.FineTypePaid,
				AdminID: &adminID,
			}); err != nil {
				return err
			}
			return fineRepo.SetUserBalance(user.ID, 0)
		})
		if err != nil {
			return nil, err
		}

		s.notifyService.Notify(user.ID, "fine_cleared", "Fine Cleared",
			fmt.Sprintf("Your outstanding fine of ₹%.2f has been cleared.", previousBalance))

		log.Printf("✅ Fine cleared: ₹%.2f for user %d", previousBalance, user.ID)
	}

	return &BalanceResponse{
		UserID:            user.ID,
		FullName:          user.FullName,
		Email:             user.Email,
		CurrentFineAmount: 0,
	}, nil
}

// UsersWithFines returns users carrying an outstanding balance
func (s *FineService) UsersWithFines() ([]*models.UserResponse, error) {
	users, err := s.fineRepo.ListUsersWithFines()
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return responses, nil
}

// History returns a user's full ledger along with their current balance
func (s *FineService) History(ctx context.Context, userID uint) (*models.UserResponse, []models.FineHistory, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}

	entries, err := s.fineRepo.ListByUser(userID)
	if err != nil {
		return nil, nil, err
	}
	return user.ToResponse(), entries, nil
}

// Stats returns ledger-wide aggregates
func (s *FineService) Stats() (*FineStats, error) {
	collected, err := s.fineRepo.SumByType(domain.FineTypePaid)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.fineRepo.SumOutstanding()
	if err != nil {
		return nil, err
	}

	charged, err := s.fineRepo.SumByType(domain.FineTypeCharged)
	if err != nil {
		return nil, err
	}

	return &FineStats{
		TotalFinesCollected:   collected,
		TotalOutstandingFines: outstanding,
		TotalFinesCharged:     charged,
	}, nil
}
