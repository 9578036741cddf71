package repositories

import (
	"bookhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BookRepository handles book catalog database operations
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *BookRepository) WithTx(tx *gorm.DB) *BookRepository {
	return &BookRepository{db: tx}
}

// Create creates a new book
func (r *BookRepository) Create(book *models.Book) error {
	return r.db.Create(book).Error
}

// GetByID returns a book by ID (soft-deleted books included, callers check IsDeleted)
func (r *BookRepository) GetByID(id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetActiveByID returns a non-deleted book by ID
func (r *BookRepository) GetActiveByID(id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns non-deleted books with optional title search
func (r *BookRepository) List(search string, offset, limit int) ([]models.Book, int64, error) {
	var books []models.Book
	var total int64

	query := r.db.Model(&models.Book{}).Where("is_deleted = ?", false)
	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("title ASC").Offset(offset).Limit(limit).Find(&books).Error
	return books, total, err
}

// Update saves book changes
func (r *BookRepository) Update(book *models.Book) error {
	return r.db.Save(book).Error
}

// SoftDelete marks a book deleted without removing borrow history references
func (r *BookRepository) SoftDelete(id uint) error {
	return r.db.Model(&models.Book{}).Where("id = ?", id).Update("is_deleted", true).Error
}

// DecrementAvailable atomically takes one available copy. Returns false when
// no copy is available, which keeps available_quantity from going negative
// under concurrent issues.
func (r *BookRepository) DecrementAvailable(id uint) (bool, error) {
	result := r.db.Model(&models.Book{}).
		Where("id = ? AND available_quantity > 0", id).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementAvailable atomically returns one copy, capped at quantity.
func (r *BookRepository) IncrementAvailable(id uint) (bool, error) {
	result := r.db.Model(&models.Book{}).
		Where("id = ? AND available_quantity < quantity", id).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountActiveBorrows counts borrow records that still hold or await a copy of the book
func (r *BookRepository) CountActiveBorrows(id uint, activeStatuses []string) (int64, error) {
	var count int64
	err := r.db.Model(&models.BorrowRecord{}).
		Where("book_id = ? AND status IN ?", id, activeStatuses).
		Count(&count).Error
	return count, err
}
