package services

import (
	"testing"
	"time"

	"bookhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approveRequest(t *testing.T, svc *testServices, recordID uint) {
	_, err := svc.borrow.HandleRequest(&HandleRequestInput{RequestID: recordID, Action: "approve"})
	require.NoError(t, err)
}

func TestRequestBorrow_CreatesPendingRequest(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "The Go Programming Language", 2)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowStatusRequested, record.Status)
	assert.Nil(t, record.DueDate)

	// No copy is taken until approval
	assert.Equal(t, 2, getBook(t, db, book.ID).AvailableQuantity)
}

func TestRequestBorrow_DuplicateRejected(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 3)

	_, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.borrow.RequestBorrow(user.ID, book.ID)
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
}

func TestRequestBorrow_UnknownBook(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")

	_, err := svc.borrow.RequestBorrow(user.ID, 999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestHandleRequest_ApproveIssuesCopy(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)

	issued, err := svc.borrow.HandleRequest(&HandleRequestInput{RequestID: record.ID, Action: "approve"})
	require.NoError(t, err)

	assert.Equal(t, domain.BorrowStatusIssued, issued.Status)
	require.NotNil(t, issued.IssueDate)
	require.NotNil(t, issued.DueDate)
	assert.WithinDuration(t, issued.IssueDate.Add(domain.LoanPeriod), *issued.DueDate, time.Second)

	assert.Equal(t, 0, getBook(t, db, book.ID).AvailableQuantity)
}

func TestHandleRequest_DenyLeavesAvailability(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)

	denied, err := svc.borrow.HandleRequest(&HandleRequestInput{RequestID: record.ID, Action: "deny"})
	require.NoError(t, err)

	assert.Equal(t, domain.BorrowStatusRejected, denied.Status)
	assert.Equal(t, 1, getBook(t, db, book.ID).AvailableQuantity)
}

func TestBorrow_LastCopyContention(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	book := createTestBook(t, db, "Dune", 1)

	recordA, err := svc.borrow.RequestBorrow(alice.ID, book.ID)
	require.NoError(t, err)
	recordB, err := svc.borrow.RequestBorrow(bob.ID, book.ID)
	require.NoError(t, err)

	approveRequest(t, svc, recordA.ID)

	// The last copy is gone; approving the second request must fail and
	// leave the request pending rather than issue a phantom copy.
	_, err = svc.borrow.HandleRequest(&HandleRequestInput{RequestID: recordB.ID, Action: "approve"})
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)
	assert.Equal(t, domain.BorrowStatusRequested, getRecord(t, db, recordB.ID).Status)
	assert.Equal(t, 0, getBook(t, db, book.ID).AvailableQuantity)
}

func TestRequestBorrow_NoCopies(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(alice.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	_, err = svc.borrow.RequestBorrow(bob.ID, book.ID)
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)
}

func TestReturn_FullCycleRestoresAvailability(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	_, err = svc.borrow.RequestReturn(record.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowStatusReturnRequested, getRecord(t, db, record.ID).Status)

	returned, err := svc.borrow.HandleReturn(&HandleRequestInput{RequestID: record.ID, Action: "approve"})
	require.NoError(t, err)

	assert.Equal(t, domain.BorrowStatusReturned, returned.Status)
	assert.NotNil(t, returned.ReturnDate)
	assert.Equal(t, 1, getBook(t, db, book.ID).AvailableQuantity)
}

func TestReturn_DenyRevertsToIssued(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	_, err = svc.borrow.RequestReturn(record.ID, user.ID)
	require.NoError(t, err)

	reverted, err := svc.borrow.HandleReturn(&HandleRequestInput{RequestID: record.ID, Action: "deny"})
	require.NoError(t, err)

	assert.Equal(t, domain.BorrowStatusIssued, reverted.Status)
	assert.Equal(t, 0, getBook(t, db, book.ID).AvailableQuantity)
}

func TestRequestReturn_OnlyOwner(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(alice.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	_, err = svc.borrow.RequestReturn(record.ID, bob.ID)
	assert.ErrorIs(t, err, ErrBorrowRecordNotFound)
}

func TestRenew_ExtendsDueDate(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	before := getRecord(t, db, record.ID)

	renewed, err := svc.borrow.Renew(record.ID, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, renewed.RenewCount)
	assert.NotNil(t, renewed.LastRenewedAt)
	assert.WithinDuration(t, before.DueDate.Add(domain.RenewExtension), *renewed.DueDate, time.Second)
}

func TestRenew_CapIsIdempotent(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	for i := 0; i < domain.MaxRenewals; i++ {
		_, err = svc.borrow.Renew(record.ID, user.ID)
		require.NoError(t, err)
	}

	// Repeated attempts past the cap fail identically and never mutate state
	for i := 0; i < 3; i++ {
		_, err = svc.borrow.Renew(record.ID, user.ID)
		assert.ErrorIs(t, err, ErrRenewLimitReached)
	}
	assert.Equal(t, domain.MaxRenewals, getRecord(t, db, record.ID).RenewCount)
}

func TestRenew_OverdueRejected(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(getRecord(t, db, record.ID)).Update("due_date", yesterday).Error)

	_, err = svc.borrow.Renew(record.ID, user.ID)
	assert.ErrorIs(t, err, ErrRenewOverdue)
}

func TestSweepOverdue_FlipsAndIsIdempotent(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 2)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(getRecord(t, db, record.ID)).Update("due_date", yesterday).Error)

	flipped, err := svc.sweep.SweepOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)
	assert.Equal(t, domain.BorrowStatusOverdue, getRecord(t, db, record.ID).Status)

	// Second run finds nothing to flip
	flipped, err = svc.sweep.SweepOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), flipped)
}

func TestSweepOverdue_IgnoresFutureDueDates(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	flipped, err := svc.sweep.SweepOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), flipped)
	assert.Equal(t, domain.BorrowStatusIssued, getRecord(t, db, record.ID).Status)
}

func TestOverdueReturn_StillAccepted(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(getRecord(t, db, record.ID)).Update("due_date", yesterday).Error)
	_, err = svc.sweep.SweepOverdue(time.Now())
	require.NoError(t, err)

	_, err = svc.borrow.RequestReturn(record.ID, user.ID)
	require.NoError(t, err)

	returned, err := svc.borrow.HandleReturn(&HandleRequestInput{RequestID: record.ID, Action: "approve"})
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowStatusReturned, returned.Status)
	assert.Equal(t, 1, getBook(t, db, book.ID).AvailableQuantity)
}
