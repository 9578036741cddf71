package domain

import "time"

// Borrow record statuses
const (
	BorrowStatusRequested       = "requested"
	BorrowStatusIssued          = "issued"
	BorrowStatusReserved        = "reserved"
	BorrowStatusReturnRequested = "return_requested"
	BorrowStatusReturned        = "returned"
	BorrowStatusOverdue         = "overdue"
	BorrowStatusRejected        = "rejected"
)

// Fine ledger entry types
const (
	FineTypeCharged = "charged"
	FineTypePaid    = "paid"
)

// Loan policy
const (
	// LoanPeriod is how long an issued copy may be kept.
	LoanPeriod = 14 * 24 * time.Hour
	// RenewExtension is added to the due date per renewal.
	RenewExtension = 7 * 24 * time.Hour
	// MaxRenewals caps renewals per borrow record.
	MaxRenewals = 2
)
