package repositories

import (
	"time"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/core/domain"

	"gorm.io/gorm"
)

// BorrowRepository handles borrow record database operations
type BorrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository creates a new borrow repository
func NewBorrowRepository(db *gorm.DB) *BorrowRepository {
	return &BorrowRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *BorrowRepository) WithTx(tx *gorm.DB) *BorrowRepository {
	return &BorrowRepository{db: tx}
}

// Create creates a new borrow record
func (r *BorrowRepository) Create(record *models.BorrowRecord) error {
	return r.db.Create(record).Error
}

// GetByID returns a borrow record by ID with relations
func (r *BorrowRepository) GetByID(id uint) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	err := r.db.Preload("Book").Preload("User").First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetActiveByUserAndBook checks whether the user already has a live
// requested/issued record for the book
func (r *BorrowRepository) GetActiveByUserAndBook(userID, bookID uint, statuses []string) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	err := r.db.
		Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, statuses).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetReservedByUserAndBook returns the user's reserved record for a book, if any
func (r *BorrowRepository) GetReservedByUserAndBook(userID, bookID uint) (*models.BorrowRecord, error) {
	return r.GetActiveByUserAndBook(userID, bookID, []string{domain.BorrowStatusReserved})
}

// ListByUser returns all records for a user, newest first
func (r *BorrowRepository) ListByUser(userID uint) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := r.db.
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// ListByUserAndStatus returns a user's records in a given status
func (r *BorrowRepository) ListByUserAndStatus(userID uint, status string) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := r.db.
		Preload("Book").
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// ListByStatus returns all records in a given status (for admin views)
func (r *BorrowRepository) ListByStatus(status string) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := r.db.
		Preload("Book").
		Preload("User").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// Update saves record changes
func (r *BorrowRepository) Update(record *models.BorrowRecord) error {
	return r.db.Save(record).Error
}

// UpdateStatus updates a record's status and related fields
func (r *BorrowRepository) UpdateStatus(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.BorrowRecord{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes a borrow record (used for cancelled reservations only)
func (r *BorrowRepository) Delete(id uint) error {
	return r.db.Delete(&models.BorrowRecord{}, id).Error
}

// CountByUserAndStatus counts a user's records in a given status
func (r *BorrowRepository) CountByUserAndStatus(userID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.BorrowRecord{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// MarkOverdue flips all issued records past their due date to overdue in one
// set-based update. Idempotent: already-overdue records no longer match.
func (r *BorrowRepository) MarkOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&models.BorrowRecord{}).
		Where("status = ? AND due_date < ?", domain.BorrowStatusIssued, now).
		Update("status", domain.BorrowStatusOverdue)
	return result.RowsAffected, result.Error
}

// ListDueIssued returns issued records already past their due date
func (r *BorrowRepository) ListDueIssued(now time.Time) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := r.db.
		Preload("Book").
		Where("status = ? AND due_date < ?", domain.BorrowStatusIssued, now).
		Find(&records).Error
	return records, err
}

// ListOverdue returns overdue records that have not been returned yet
func (r *BorrowRepository) ListOverdue() ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := r.db.
		Preload("Book").
		Where("status = ?", domain.BorrowStatusOverdue).
		Find(&records).Error
	return records, err
}
