package repositories

import (
	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/core/domain"

	"gorm.io/gorm"
)

// FineRepository handles fine ledger database operations
type FineRepository struct {
	db *gorm.DB
}

// NewFineRepository creates a new fine repository
func NewFineRepository(db *gorm.DB) *FineRepository {
	return &FineRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *FineRepository) WithTx(tx *gorm.DB) *FineRepository {
	return &FineRepository{db: tx}
}

// Create appends a ledger entry
func (r *FineRepository) Create(entry *models.FineHistory) error {
	return r.db.Create(entry).Error
}

// GetByID returns a ledger entry by ID
func (r *FineRepository) GetByID(id uint) (*models.FineHistory, error) {
	var entry models.FineHistory
	err := r.db.First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update saves entry changes (online payment settlement only; the ledger is
// otherwise append-only)
func (r *FineRepository) Update(entry *models.FineHistory) error {
	return r.db.Save(entry).Error
}

// ListByUser returns a user's ledger, newest first
func (r *FineRepository) ListByUser(userID uint) ([]models.FineHistory, error) {
	var entries []models.FineHistory
	err := r.db.
		Preload("Admin").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// ListPaidByUser returns a user's settled entries, newest payment first
func (r *FineRepository) ListPaidByUser(userID uint) ([]models.FineHistory, error) {
	var entries []models.FineHistory
	err := r.db.
		Where("user_id = ? AND is_paid = ?", userID, true).
		Order("paid_at DESC").
		Find(&entries).Error
	return entries, err
}

// ListUsersWithFines returns users carrying an outstanding balance, largest first
func (r *FineRepository) ListUsersWithFines() ([]models.User, error) {
	var users []models.User
	err := r.db.
		Where("fine_amount > 0").
		Order("fine_amount DESC").
		Find(&users).Error
	return users, err
}

// SumByType returns the total ledger amount for a type (charged/paid)
func (r *FineRepository) SumByType(fineType string) (float64, error) {
	var total float64
	err := r.db.Model(&models.FineHistory{}).
		Where("type = ?", fineType).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumOutstanding returns the total outstanding balance across all users
func (r *FineRepository) SumOutstanding() (float64, error) {
	var total float64
	err := r.db.Model(&models.User{}).
		Where("fine_amount > 0").
		Select("COALESCE(SUM(fine_amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumPaidByUser returns total and count of a user's settled entries
func (r *FineRepository) SumPaidByUser(userID uint, paid bool) (float64, int64, error) {
	var total float64
	var count int64

	query := r.db.Model(&models.FineHistory{}).
		Where("user_id = ? AND type = ? AND is_paid = ?", userID, domain.FineTypeCharged, paid)

	if err := query.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	err := query.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, count, err
}

// AddToUserBalance adjusts the denormalized balance. Callers must invoke it
// inside the same transaction as the matching ledger write.
func (r *FineRepository) AddToUserBalance(userID uint, delta float64) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("fine_amount", gorm.Expr("fine_amount + ?", delta)).Error
}

// SetUserBalance sets the denormalized balance directly (clear and floor cases)
func (r *FineRepository) SetUserBalance(userID uint, amount float64) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("fine_amount", amount).Error
}
