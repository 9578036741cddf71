package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"
	"bookhub/internal/core/domain"

	"gorm.io/gorm"
)

// Borrow errors
var (
	ErrBookNotFound         = errors.New("book not found")
	ErrBorrowRecordNotFound = errors.New("borrow record not found")
	ErrAlreadyBorrowed      = errors.New("you already have an active request or issued copy for this book")
	ErrNoCopiesAvailable    = errors.New("no copies of this book are available")
	ErrInvalidRecordStatus  = errors.New("invalid borrow record status for this action")
	ErrRenewLimitReached    = errors.New("maximum renewal limit reached")
	ErrRenewOverdue         = errors.New("cannot renew overdue books")
)

// BorrowService mediates state transitions of borrow records
type BorrowService struct {
	db                 *gorm.DB
	borrowRepo         *repositories.BorrowRepository
	bookRepo           *repositories.BookRepository
	reservationService *ReservationService
	notifyService      *NotificationService
}

// NewBorrowService creates a new borrow service
func NewBorrowService(
	db *gorm.DB,
	borrowRepo *repositories.BorrowRepository,
	bookRepo *repositories.BookRepository,
	reservationService *ReservationService,
	notifyService *NotificationService,
) *BorrowService {
	return &BorrowService{
		db:                 db,
		borrowRepo:         borrowRepo,
		bookRepo:           bookRepo,
		reservationService: reservationService,
		notifyService:      notifyService,
	}
}

// HandleRequestInput represents an admin approve/deny decision on a borrow request
type HandleRequestInput struct {
	RequestID uint   `json:"request_id" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=approve deny"`
}

// ============================================================
// USER: Request & Return
// ============================================================

// RequestBorrow creates a `requested` record for a user and book. No copy is
// taken yet; the decrement happens on admin approval.
func (s *BorrowService) RequestBorrow(userID, bookID uint) (*models.BorrowRecord, error) {
	// 1. Validate book exists and is not deleted
	book, err := s.bookRepo.GetActiveByID(bookID)
	if err != nil {
		return nil, ErrBookNotFound
	}

	// 2. Reject if the user already has a live request or issued copy
	existing, err := s.borrowRepo.GetActiveByUserAndBook(userID, bookID,
		[]string{domain.BorrowStatusRequested, domain.BorrowStatusIssued})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyBorrowed
	}

	// 3. Reject when no copies are available (reservations go through the queue)
	if book.AvailableQuantity == 0 {
		return nil, ErrNoCopiesAvailable
	}

	// 4. Create the request
	record := &models.BorrowRecord{
		UserID: userID,
		BookID: bookID,
		Status: domain.BorrowStatusRequested,
	}
	if err := s.borrowRepo.Create(record); err != nil {
		return nil, err
	}

	s.notifyService.Notify(userID, "borrow_requested", "Borrow Request Sent",
		fmt.Sprintf("Your borrow request for '%s' is awaiting approval.", book.Title))

	log.Printf("✅ Borrow request created: record %d (user %d, book %d)", record.ID, userID, bookID)
	return record, nil
}

// RequestReturn moves an issued (or overdue) record owned by the user to
// return_requested, awaiting admin approval.
func (s *BorrowService) RequestReturn(recordID, userID uint) (*models.BorrowRecord, error) {
	record, err := s.borrowRepo.GetByID(recordID)
	if err != nil || record.UserID != userID {
		return nil, ErrBorrowRecordNotFound
	}

	if record.Status != domain.BorrowStatusIssued && record.Status != domain.BorrowStatusOverdue {
		return nil, ErrInvalidRecordStatus
	}

	if err := s.borrowRepo.UpdateStatus(record.ID, map[string]interface{}{
		"status": domain.BorrowStatusReturnRequested,
	}); err != nil {
		return nil, err
	}

	log.Printf("✅ Return requested: record %d (user %d)", record.ID, userID)
	return s.borrowRepo.GetByID(record.ID)
}

// Renew extends the due date of an issued record by the renewal period.
// Rejections never mutate state: a record at the renewal cap fails the same
// way on every call.
func (s *BorrowService) Renew(recordID, userID uint) (*models.BorrowRecord, error) {
	record, err := s.borrowRepo.GetByID(recordID)
	if err != nil || record.UserID != userID || record.Status != domain.BorrowStatusIssued {
		return nil, ErrBorrowRecordNotFound
	}

	if record.RenewCount >= domain.MaxRenewals {
		return nil, ErrRenewLimitReached
	}

	now := time.Now()
	if record.DueDate != nil && record.DueDate.Before(now) {
		return nil, ErrRenewOverdue
	}

	newDueDate := record.DueDate.Add(domain.RenewExtension)
	record.DueDate = &newDueDate
	record.RenewCount++
	record.LastRenewedAt = &now

	if err := s.borrowRepo.Update(record); err != nil {
		return nil, err
	}

	s.notifyService.Notify(userID, "book_renewed", "Book Renewed",
		fmt.Sprintf("Your book '%s' has been renewed. New due date is %s.",
			record.Book.Title, newDueDate.Format("Mon Jan 2 2006")))

	log.Printf("✅ Record %d renewed (count %d, due %s)", record.ID, record.RenewCount, newDueDate.Format("2006-01-02"))
	return record, nil
}

// MyBorrows returns all borrow records for a user
func (s *BorrowService) MyBorrows(userID uint) ([]models.BorrowRecord, error) {
	return s.borrowRepo.ListByUser(userID)
}

// ============================================================
// ADMIN: Issue & Return approval
// ============================================================

// HandleRequest approves or denies a pending borrow request. Approval takes a
// copy with a guarded decrement and stamps the loan period, all inside one
// transaction so availability and record state cannot diverge.
func (s *BorrowService) HandleRequest(input *HandleRequestInput) (*models.BorrowRecord, error) {
	record, err := s.borrowRepo.GetByID(input.RequestID)
	if err != nil {
		return nil, ErrBorrowRecordNotFound
	}
	if record.Status != domain.BorrowStatusRequested {
		return nil, ErrInvalidRecordStatus
	}

	if input.Action == "deny" {
		if err := s.borrowRepo.UpdateStatus(record.ID, map[string]interface{}{
			"status": domain.BorrowStatusRejected,
		}); err != nil {
			return nil, err
		}

		s.notifyService.Notify(record.UserID, "borrow_rejected", "Borrow Request Denied",
			fmt.Sprintf("Your borrow request for '%s' was denied.", record.Book.Title))

		log.Printf("✅ Borrow request %d denied", record.ID)
		return s.borrowRepo.GetByID(record.ID)
	}

	now := time.Now()
	dueDate := now.Add(domain.LoanPeriod)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookRepo.WithTx(tx).DecrementAvailable(record.BookID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoCopiesAvailable
		}

		return s.borrowRepo.WithTx(tx).UpdateStatus(record.ID, map[string]interface{}{
			"status":     domain.BorrowStatusIssued,
			"issue_date": now,
			"due_date":   dueDate,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyService.Notify(record.UserID, "book_issued", "Book Issued",
		fmt.Sprintf("'%s' has been issued to you. Due date is %s.",
			record.Book.Title, dueDate.Format("Mon Jan 2 2006")))

	log.Printf("✅ Borrow request %d approved (book %d, due %s)", record.ID, record.BookID, dueDate.Format("2006-01-02"))
	return s.borrowRepo.GetByID(record.ID)
}

// HandleReturn approves or denies a pending return. Approval gives the copy
// back (capped at quantity) and then offers it to the head of the book's
// reservation queue.
func (s *BorrowService) HandleReturn(input *HandleRequestInput) (*models.BorrowRecord, error) {
	record, err := s.borrowRepo.GetByID(input.RequestID)
	if err != nil {
		return nil, ErrBorrowRecordNotFound
	}
	if record.Status != domain.BorrowStatusReturnRequested {
		return nil, ErrInvalidRecordStatus
	}

	if input.Action == "deny" {
		// Back to issued; the sweep re-flags it if the due date has passed
		status := domain.BorrowStatusIssued
		if record.IsOverdue(time.Now()) {
			status = domain.BorrowStatusOverdue
		}
		if err := s.borrowRepo.UpdateStatus(record.ID, map[string]interface{}{
			"status": status,
		}); err != nil {
			return nil, err
		}
		log.Printf("✅ Return request %d denied", record.ID)
		return s.borrowRepo.GetByID(record.ID)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.borrowRepo.WithTx(tx).UpdateStatus(record.ID, map[string]interface{}{
			"status":      domain.BorrowStatusReturned,
			"return_date": now,
		}); err != nil {
			return err
		}

		// Capped increment; already-at-quantity means a bookkeeping drift we
		// tolerate rather than fail the return over
		_, err := s.bookRepo.WithTx(tx).IncrementAvailable(record.BookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyService.Notify(record.UserID, "book_returned", "Book Returned",
		fmt.Sprintf("Your return of '%s' has been accepted.", record.Book.Title))

	// Offer the freed copy to the queue head
	if err := s.reservationService.PromoteNext(record.BookID); err != nil {
		log.Printf("⚠️ Queue promotion failed for book %d: %v", record.BookID, err)
	}

	log.Printf("✅ Return request %d approved (book %d)", record.ID, record.BookID)
	return s.borrowRepo.GetByID(record.ID)
}

// ListByStatus returns all records in a status for admin views
func (s *BorrowService) ListByStatus(status string) ([]models.BorrowRecord, error) {
	return s.borrowRepo.ListByStatus(status)
}
