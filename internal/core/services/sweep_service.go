package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"bookhub/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// SweepService reclassifies issued-but-late borrow records as overdue on a
// schedule. The status flip is one set-based update, so the sweep is
// idempotent and safe to run concurrently with user-initiated returns.
type SweepService struct {
	borrowRepo    *repositories.BorrowRepository
	notifyService *NotificationService

	cron      *cron.Cron
	entryID   cron.EntryID
	schedule  string
	mu        sync.Mutex
	isRunning bool
}

// NewSweepService creates a new overdue sweep service
func NewSweepService(
	borrowRepo *repositories.BorrowRepository,
	notifyService *NotificationService,
	schedule string,
) *SweepService {
	return &SweepService{
		borrowRepo:    borrowRepo,
		notifyService: notifyService,
		schedule:      schedule,
		cron:          cron.New(),
	}
}

// Start schedules the sweep
func (s *SweepService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.Run)
	if err != nil {
		return fmt.Errorf("failed to schedule overdue sweep '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("🚀 Overdue sweep scheduled: '%s'", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *SweepService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Printf("🛑 Overdue sweep stopped")
}

// Run executes one sweep. Failures are logged and never propagated past the
// scheduler; request handling is unaffected.
func (s *SweepService) Run() {
	flipped, err := s.SweepOverdue(time.Now())
	if err != nil {
		log.Printf("⚠️ Overdue sweep failed: %v", err)
		return
	}
	if flipped > 0 {
		log.Printf("✅ Overdue sweep: %d record(s) reclassified", flipped)
	}
}

// SweepOverdue flips all issued records past their due date to overdue and
// notifies the affected users (best effort). Already-overdue records no
// longer match the update, so repeated runs have no further effect.
func (s *SweepService) SweepOverdue(now time.Time) (int64, error) {
	// Snapshot the records about to flip so notifications go only to them,
	// not to records already overdue from an earlier sweep
	candidates, err := s.borrowRepo.ListDueIssued(now)
	if err != nil {
		return 0, err
	}

	flipped, err := s.borrowRepo.MarkOverdue(now)
	if err != nil {
		return 0, err
	}
	if flipped == 0 {
		return 0, nil
	}

	for _, record := range candidates {
		if record.DueDate == nil {
			continue
		}
		s.notifyService.Notify(record.UserID, "book_overdue", "Book Overdue",
			fmt.Sprintf("'%s' was due on %s. Please return it.",
				record.Book.Title, record.DueDate.Format("Mon Jan 2 2006")))
	}

	return flipped, nil
}
