package services

import (
	"context"
	"testing"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userBalance(t *testing.T, svc *testServices, userID uint) float64 {
	user, err := svc.userRepo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user.FineAmount
}

func TestCharge_AppendsLedgerAndRaisesBalance(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")

	result, err := svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{
		UserID: user.ID,
		Amount: 50,
		Reason: "lost page",
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.CurrentFineAmount)
	assert.Equal(t, 50.0, userBalance(t, svc, user.ID))

	entries, err := svc.fineRepo.ListByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.FineTypeCharged, entries[0].Type)
	assert.Equal(t, 50.0, entries[0].Amount)
	assert.Equal(t, "lost page", entries[0].Reason)
	require.NotNil(t, entries[0].AdminID)
	assert.Equal(t, admin.ID, *entries[0].AdminID)
}

func TestCharge_DefaultsReason(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")

	_, err := svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{
		UserID: user.ID,
		Amount: 10,
	})
	require.NoError(t, err)

	entries, err := svc.fineRepo.ListByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Not specified", entries[0].Reason)
}

func TestCharge_RejectsNonPositiveAmount(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")

	_, err := svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{UserID: user.ID, Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidFineAmount)

	_, err = svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{UserID: user.ID, Amount: -5})
	assert.ErrorIs(t, err, ErrInvalidFineAmount)

	assert.Equal(t, 0.0, userBalance(t, svc, user.ID))
}

func TestCharge_UnknownUser(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")

	_, err := svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{UserID: 999, Amount: 10})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClear_SettlesFullBalanceWithPaidEntry(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")

	_, err := svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{UserID: user.ID, Amount: 50, Reason: "lost page"})
	require.NoError(t, err)
	_, err = svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{UserID: user.ID, Amount: 25})
	require.NoError(t, err)

	result, err := svc.fine.Clear(context.Background(), admin.ID, &ClearInput{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.CurrentFineAmount)
	assert.Equal(t, 0.0, userBalance(t, svc, user.ID))

	// One paid entry for the whole previous balance
	entries, err := svc.fineRepo.ListByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var paid []models.FineHistory
	for _, entry := range entries {
		if entry.Type == domain.FineTypePaid {
			paid = append(paid, entry)
		}
	}
	require.Len(t, paid, 1)
	assert.Equal(t, 75.0, paid[0].Amount)
	assert.Equal(t, "Admin cleared fine", paid[0].Reason)
}

func TestClear_ZeroBalanceAppendsNothing(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")

	result, err := svc.fine.Clear(context.Background(), admin.ID, &ClearInput{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.CurrentFineAmount)

	entries, err := svc.fineRepo.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLedgerBalanceInvariant(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")

	ctx := context.Background()
	_, err := svc.fine.Charge(ctx, admin.ID, &ChargeInput{UserID: user.ID, Amount: 40})
	require.NoError(t, err)
	_, err = svc.fine.Charge(ctx, admin.ID, &ChargeInput{UserID: user.ID, Amount: 60})
	require.NoError(t, err)
	_, err = svc.fine.Clear(ctx, admin.ID, &ClearInput{UserID: user.ID})
	require.NoError(t, err)
	_, err = svc.fine.Charge(ctx, admin.ID, &ChargeInput{UserID: user.ID, Amount: 15})
	require.NoError(t, err)

	// balance == sum(charged) - sum(paid) at every point
	entries, err := svc.fineRepo.ListByUser(user.ID)
	require.NoError(t, err)

	var charged, paidSum float64
	for _, entry := range entries {
		switch entry.Type {
		case domain.FineTypeCharged:
			charged += entry.Amount
		case domain.FineTypePaid:
			paidSum += entry.Amount
		}
	}
	assert.Equal(t, charged-paidSum, userBalance(t, svc, user.ID))
	assert.Equal(t, 15.0, userBalance(t, svc, user.ID))
}

func TestUsersWithFines(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	alice := createTestUser(t, db, "alice@example.com")
	_ = createTestUser(t, db, "bob@example.com")

	_, err := svc.fine.Charge(context.Background(), admin.ID, &ChargeInput{UserID: alice.ID, Amount: 30})
	require.NoError(t, err)

	users, err := svc.fine.UsersWithFines()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)
	assert.Equal(t, 30.0, users[0].FineAmount)
}

func TestFineStats(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	ctx := context.Background()
	_, err := svc.fine.Charge(ctx, admin.ID, &ChargeInput{UserID: alice.ID, Amount: 100})
	require.NoError(t, err)
	_, err = svc.fine.Charge(ctx, admin.ID, &ChargeInput{UserID: bob.ID, Amount: 20})
	require.NoError(t, err)
	_, err = svc.fine.Clear(ctx, admin.ID, &ClearInput{UserID: alice.ID})
	require.NoError(t, err)

	stats, err := svc.fine.Stats()
	require.NoError(t, err)
	assert.Equal(t, 120.0, stats.TotalFinesCharged)
	assert.Equal(t, 100.0, stats.TotalFinesCollected)
	assert.Equal(t, 20.0, stats.TotalOutstandingFines)
}
