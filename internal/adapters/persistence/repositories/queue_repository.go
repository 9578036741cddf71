package repositories

import (
	"bookhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// QueueRepository handles reservation queue database operations
type QueueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *QueueRepository) WithTx(tx *gorm.DB) *QueueRepository {
	return &QueueRepository{db: tx}
}

// Create appends a queue entry
func (r *QueueRepository) Create(entry *models.QueueEntry) error {
	return r.db.Create(entry).Error
}

// GetEntry returns the queue entry for a user and book, if any
func (r *QueueRepository) GetEntry(bookID, userID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := r.db.Where("book_id = ? AND user_id = ?", bookID, userID).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByBook returns the queue for a book in position order
func (r *QueueRepository) ListByBook(bookID uint) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := r.db.
		Where("book_id = ?", bookID).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

// ListByUser returns all queue entries for a user with the book preloaded
func (r *QueueRepository) ListByUser(userID uint) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := r.db.
		Preload("Book").
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Find(&entries).Error
	return entries, err
}

// CountByBook returns the queue length for a book
func (r *QueueRepository) CountByBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QueueEntry{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

// GetHead returns the entry at position 1, or nil for an empty queue
func (r *QueueRepository) GetHead(bookID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := r.db.
		Where("book_id = ?", bookID).
		Order("position ASC").
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes a queue entry
func (r *QueueRepository) Delete(id uint) error {
	return r.db.Delete(&models.QueueEntry{}, id).Error
}

// UpdatePosition sets the position of a single entry
func (r *QueueRepository) UpdatePosition(id uint, position int) error {
	return r.db.Model(&models.QueueEntry{}).Where("id = ?", id).Update("position", position).Error
}

// Renumber rewrites positions for a book's queue to a contiguous 1..N
// sequence matching current position order
func (r *QueueRepository) Renumber(bookID uint) error {
	entries, err := r.ListByBook(bookID)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		if entry.Position == i+1 {
			continue
		}
		if err := r.UpdatePosition(entry.ID, i+1); err != nil {
			return err
		}
	}
	return nil
}
