package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"
	"bookhub/internal/core/domain"

	"gorm.io/gorm"
)

// Reservation errors
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrAlreadyInQueue      = errors.New("you are already in the queue for this book")
	ErrAlreadyIssued       = errors.New("you already have this book issued")
)

// ReservationService maintains a strict FIFO waiting list per book.
// Queue positions are always a contiguous 1-based ordering in join order.
type ReservationService struct {
	db            *gorm.DB
	queueRepo     *repositories.QueueRepository
	borrowRepo    *repositories.BorrowRepository
	bookRepo      *repositories.BookRepository
	notifyService *NotificationService
}

// NewReservationService creates a new reservation service
func NewReservationService(
	db *gorm.DB,
	queueRepo *repositories.QueueRepository,
	borrowRepo *repositories.BorrowRepository,
	bookRepo *repositories.BookRepository,
	notifyService *NotificationService,
) *ReservationService {
	return &ReservationService{
		db:            db,
		queueRepo:     queueRepo,
		borrowRepo:    borrowRepo,
		bookRepo:      bookRepo,
		notifyService: notifyService,
	}
}

// ReserveInput represents a reservation request
type ReserveInput struct {
	BookID uint `json:"book_id" validate:"required"`
}

// ReservationResponse pairs the reserved record with the assigned position
type ReservationResponse struct {
	Reservation *models.BorrowRecord `json:"reservation"`
	Position    int                  `json:"position"`
}

// QueuePlacement describes a user's standing in one book's queue
type QueuePlacement struct {
	Book        *models.Book `json:"book"`
	Position    int          `json:"position"`
	QueueLength int64        `json:"queue_length"`
	JoinedAt    time.Time    `json:"joined_at"`
}

// ReservationStats summarizes a user's reservations
type ReservationStats struct {
	ReservationCount int64 `json:"reservation_count"`
	QueueCount       int   `json:"queue_count"`
	AveragePosition  int   `json:"average_position"`
}

// Reserve appends a user to a book's queue and creates the matching
// `reserved` record in one transaction.
func (s *ReservationService) Reserve(userID uint, input *ReserveInput) (*ReservationResponse, error) {
	// 1. Validate book exists and is not deleted
	book, err := s.bookRepo.GetActiveByID(input.BookID)
	if err != nil {
		return nil, ErrBookNotFound
	}

	// 2. Reject if the user already holds an issued copy
	issued, err := s.borrowRepo.GetActiveByUserAndBook(userID, input.BookID,
		[]string{domain.BorrowStatusIssued})
	if err != nil {
		return nil, err
	}
	if issued != nil {
		return nil, ErrAlreadyIssued
	}

	// 3. Reject if already queued
	entry, err := s.queueRepo.GetEntry(input.BookID, userID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return nil, ErrAlreadyInQueue
	}

	// 4. Append at position N+1 and create the reserved record together
	var position int
	var record *models.BorrowRecord

	err = s.db.Transaction(func(tx *gorm.DB) error {
		count, err := s.queueRepo.WithTx(tx).CountByBook(input.BookID)
		if err != nil {
			return err
		}
		position = int(count) + 1

		if err := s.queueRepo.WithTx(tx).Create(&models.QueueEntry{
			BookID:   input.BookID,
			UserID:   userID,
			Position: position,
			JoinedAt: time.Now(),
		}); err != nil {
			return err
		}

		record = &models.BorrowRecord{
			UserID: userID,
			BookID: input.BookID,
			Status: domain.BorrowStatusReserved,
		}
		return s.borrowRepo.WithTx(tx).Create(record)
	})
	if err != nil {
		return nil, err
	}

	s.notifyService.Notify(userID, "reservation_created", "Reservation Created",
		fmt.Sprintf("You have been added to the queue for '%s'. Your position is #%d.", book.Title, position))

	log.Printf("✅ Reservation created: user %d, book %d, position %d", userID, input.BookID, position)
	return &ReservationResponse{Reservation: record, Position: position}, nil
}

// Cancel removes a user's reservation: the queue entry goes away, every
// later entry is renumbered to its new 1-based index, and the reserved
// record is deleted.
func (s *ReservationService) Cancel(reservationID, userID uint) error {
	record, err := s.borrowRepo.GetByID(reservationID)
	if err != nil || record.UserID != userID || record.Status != domain.BorrowStatusReserved {
		return ErrReservationNotFound
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		queueRepo := s.queueRepo.WithTx(tx)

		entry, err := queueRepo.GetEntry(record.BookID, userID)
		if err != nil {
			return err
		}
		if entry != nil {
			if err := queueRepo.Delete(entry.ID); err != nil {
				return err
			}
			if err := queueRepo.Renumber(record.BookID); err != nil {
				return err
			}
		}

		return s.borrowRepo.WithTx(tx).Delete(record.ID)
	})
	if err != nil {
		return err
	}

	book, bookErr := s.bookRepo.GetByID(record.BookID)
	if bookErr == nil {
		s.notifyService.Notify(userID, "reservation_cancelled", "Reservation Cancelled",
			fmt.Sprintf("Your reservation for '%s' has been cancelled.", book.Title))
	}

	log.Printf("✅ Reservation %d cancelled (user %d, book %d)", reservationID, userID, record.BookID)
	return nil
}

// PromoteNext pops the queue head when a copy becomes available, renumbers
// the remainder, and converts the head's reserved record into a borrow
// request awaiting admin approval. No-op on an empty queue.
func (s *ReservationService) PromoteNext(bookID uint) error {
	head, err := s.queueRepo.GetHead(bookID)
	if err != nil {
		return err
	}
	if head == nil {
		return nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		queueRepo := s.queueRepo.WithTx(tx)
		borrowRepo := s.borrowRepo.WithTx(tx)

		if err := queueRepo.Delete(head.ID); err != nil {
			return err
		}
		if err := queueRepo.Renumber(bookID); err != nil {
			return err
		}

		reserved, err := borrowRepo.GetReservedByUserAndBook(head.UserID, bookID)
		if err != nil {
			return err
		}
		if reserved != nil {
			return borrowRepo.UpdateStatus(reserved.ID, map[string]interface{}{
				"status": domain.BorrowStatusRequested,
			})
		}

		// Queue entry without a reserved record is a drift case; recreate
		// the request rather than drop the user's turn
		return borrowRepo.Create(&models.BorrowRecord{
			UserID: head.UserID,
			BookID: bookID,
			Status: domain.BorrowStatusRequested,
		})
	})
	if err != nil {
		return err
	}

	book, bookErr := s.bookRepo.GetByID(bookID)
	if bookErr == nil {
		s.notifyService.Notify(head.UserID, "reservation_promoted", "Book Available",
			fmt.Sprintf("A copy of '%s' is available. Your borrow request has been created.", book.Title))
	}

	log.Printf("✅ Queue head promoted: user %d, book %d", head.UserID, bookID)
	return nil
}

// MyReservations returns a user's reserved records and queue placements
func (s *ReservationService) MyReservations(userID uint) ([]models.BorrowRecord, []QueuePlacement, error) {
	reservations, err := s.borrowRepo.ListByUserAndStatus(userID, domain.BorrowStatusReserved)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.queueRepo.ListByUser(userID)
	if err != nil {
		return nil, nil, err
	}

	placements := make([]QueuePlacement, 0, len(entries))
	for i := range entries {
		length, err := s.queueRepo.CountByBook(entries[i].BookID)
		if err != nil {
			return nil, nil, err
		}
		placements = append(placements, QueuePlacement{
			Book:        &entries[i].Book,
			Position:    entries[i].Position,
			QueueLength: length,
			JoinedAt:    entries[i].JoinedAt,
		})
	}

	return reservations, placements, nil
}

// Stats returns reservation statistics for a user
func (s *ReservationService) Stats(userID uint) (*ReservationStats, error) {
	reservationCount, err := s.borrowRepo.CountByUserAndStatus(userID, domain.BorrowStatusReserved)
	if err != nil {
		return nil, err
	}

	entries, err := s.queueRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	var averagePosition int
	if len(entries) > 0 {
		var sum int
		for _, entry := range entries {
			sum += entry.Position
		}
		averagePosition = int(math.Round(float64(sum) / float64(len(entries))))
	}

	return &ReservationStats{
		ReservationCount: reservationCount,
		QueueCount:       len(entries),
		AveragePosition:  averagePosition,
	}, nil
}
