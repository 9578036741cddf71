package models

import (
	"time"
)

// ============================================================
// Borrow Lifecycle Tables
// ============================================================

// BorrowRecord tracks one user's custody of one book copy through its
// lifecycle: requested -> issued -> return_requested -> returned, with
// overdue set by the sweep and reserved used for queue reservations.
type BorrowRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	BookID        uint       `gorm:"not null;index" json:"book_id"`
	Status        string     `gorm:"size:20;not null;index" json:"status"`
	IssueDate     *time.Time `json:"issue_date"`
	DueDate       *time.Time `gorm:"index" json:"due_date"`
	ReturnDate    *time.Time `json:"return_date"`
	RenewCount    int        `gorm:"default:0" json:"renew_count"`
	LastRenewedAt *time.Time `json:"last_renewed_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	User          User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book          Book       `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (BorrowRecord) TableName() string {
	return "borrow_records"
}

// IsOverdue reports whether an issued record is past its due date
func (r *BorrowRecord) IsOverdue(now time.Time) bool {
	return r.DueDate != nil && r.DueDate.Before(now)
}

// QueueEntry represents book_queue_entries table.
// Invariant: per book, positions form a contiguous 1-based ordering that
// matches join order. Removing an entry renumbers all later entries.
type QueueEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"not null;index;uniqueIndex:idx_queue_book_user" json:"book_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_queue_book_user" json:"user_id"`
	Position  int       `gorm:"not null" json:"position"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (QueueEntry) TableName() string {
	return "book_queue_entries"
}

// ============================================================
// Fine Ledger Table
// ============================================================

// FineHistory is an append-only ledger of charges and payments against a
// user. User.FineAmount is the denormalized running balance and is only
// mutated in the same transaction as a ledger write.
type FineHistory struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Amount    float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Reason    string     `gorm:"size:255;default:'Not specified'" json:"reason"`
	Type      string     `gorm:"size:10;not null;index" json:"type"`
	OrderID   *string    `gorm:"size:64" json:"order_id"`
	PaymentID *string    `gorm:"size:64" json:"payment_id"`
	AdminID   *uint      `json:"admin_id"`
	IsPaid    bool       `gorm:"default:false;index" json:"is_paid"`
	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	Admin     *User      `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}

func (FineHistory) TableName() string {
	return "fine_histories"
}
