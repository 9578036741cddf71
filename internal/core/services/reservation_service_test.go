package services

import (
	"testing"

	"bookhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_AssignsSequentialPositions(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	carol := createTestUser(t, db, "carol@example.com")
	book := createTestBook(t, db, "Dune", 1)

	first, err := svc.reservation.Reserve(alice.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)
	second, err := svc.reservation.Reserve(bob.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)
	third, err := svc.reservation.Reserve(carol.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, 3, third.Position)
	assert.Equal(t, domain.BorrowStatusReserved, first.Reservation.Status)
}

func TestReserve_DuplicateRejected(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	_, err := svc.reservation.Reserve(user.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)

	_, err = svc.reservation.Reserve(user.ID, &ReserveInput{BookID: book.ID})
	assert.ErrorIs(t, err, ErrAlreadyInQueue)
}

func TestReserve_RejectedWhileIssued(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(user.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	_, err = svc.reservation.Reserve(user.ID, &ReserveInput{BookID: book.ID})
	assert.ErrorIs(t, err, ErrAlreadyIssued)
}

func TestCancel_RenumbersRemainingQueue(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	carol := createTestUser(t, db, "carol@example.com")
	book := createTestBook(t, db, "Dune", 1)

	first, err := svc.reservation.Reserve(alice.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)
	_, err = svc.reservation.Reserve(bob.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)
	_, err = svc.reservation.Reserve(carol.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)

	err = svc.reservation.Cancel(first.Reservation.ID, alice.ID)
	require.NoError(t, err)

	entries, err := svc.queueRepo.ListByBook(book.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Positions stay a contiguous 1-based ordering in join order
	assert.Equal(t, bob.ID, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, carol.ID, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Position)

	// The reserved record is gone too
	reservations, err := svc.borrowRepo.ListByUserAndStatus(alice.ID, domain.BorrowStatusReserved)
	require.NoError(t, err)
	assert.Empty(t, reservations)
}

func TestCancel_OnlyOwner(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	book := createTestBook(t, db, "Dune", 1)

	first, err := svc.reservation.Reserve(alice.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)

	err = svc.reservation.Cancel(first.Reservation.ID, bob.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestPromoteNext_ConvertsReservationToRequest(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	book := createTestBook(t, db, "Dune", 1)

	reserved, err := svc.reservation.Reserve(alice.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)
	_, err = svc.reservation.Reserve(bob.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)

	err = svc.reservation.PromoteNext(book.ID)
	require.NoError(t, err)

	// Head's reservation became a pending borrow request
	assert.Equal(t, domain.BorrowStatusRequested, getRecord(t, db, reserved.Reservation.ID).Status)

	// Bob moved up to position 1
	entries, err := svc.queueRepo.ListByBook(book.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, bob.ID, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Position)
}

func TestPromoteNext_EmptyQueueNoOp(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Dune", 1)

	err := svc.reservation.PromoteNext(book.ID)
	assert.NoError(t, err)
}

func TestReturnApproval_PromotesQueueHead(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	book := createTestBook(t, db, "Dune", 1)

	record, err := svc.borrow.RequestBorrow(alice.ID, book.ID)
	require.NoError(t, err)
	approveRequest(t, svc, record.ID)

	reserved, err := svc.reservation.Reserve(bob.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)

	_, err = svc.borrow.RequestReturn(record.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.borrow.HandleReturn(&HandleRequestInput{RequestID: record.ID, Action: "approve"})
	require.NoError(t, err)

	// The freed copy is offered to the queue head as a fresh request
	assert.Equal(t, domain.BorrowStatusRequested, getRecord(t, db, reserved.Reservation.ID).Status)

	entries, err := svc.queueRepo.ListByBook(book.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMyReservations_ReportsPlacement(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	book := createTestBook(t, db, "Dune", 1)

	_, err := svc.reservation.Reserve(alice.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)
	_, err = svc.reservation.Reserve(bob.ID, &ReserveInput{BookID: book.ID})
	require.NoError(t, err)

	reservations, placements, err := svc.reservation.MyReservations(bob.ID)
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	require.Len(t, placements, 1)
	assert.Equal(t, 2, placements[0].Position)
	assert.Equal(t, int64(2), placements[0].QueueLength)
}

func TestReservationStats(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice@example.com")
	other := createTestUser(t, db, "bob@example.com")
	bookA := createTestBook(t, db, "Dune", 1)
	bookB := createTestBook(t, db, "Foundation", 1)

	_, err := svc.reservation.Reserve(other.ID, &ReserveInput{BookID: bookA.ID})
	require.NoError(t, err)
	_, err = svc.reservation.Reserve(user.ID, &ReserveInput{BookID: bookA.ID})
	require.NoError(t, err)
	_, err = svc.reservation.Reserve(user.ID, &ReserveInput{BookID: bookB.ID})
	require.NoError(t, err)

	stats, err := svc.reservation.Stats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ReservationCount)
	assert.Equal(t, 2, stats.QueueCount)
	// Positions 2 and 1 average to 1.5, rounded to 2
	assert.Equal(t, 2, stats.AveragePosition)
}
