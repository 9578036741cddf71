package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signPayment computes the provider signature the way the gateway does
func signPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testPaymentSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func chargeFine(t *testing.T, svc *testServices, adminID, userID uint, amount float64) *models.FineHistory {
	_, err := svc.fine.Charge(context.Background(), adminID, &ChargeInput{
		UserID: userID,
		Amount: amount,
		Reason: "late return",
	})
	require.NoError(t, err)

	entries, err := svc.fineRepo.ListByUser(userID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return &entries[0]
}

func TestCreateOrder_ReturnsProviderOrder(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")
	fine := chargeFine(t, svc, admin.ID, user.ID, 50)

	order, err := svc.payment.CreateOrder(user.ID, &CreateOrderInput{FineID: fine.ID})
	require.NoError(t, err)

	assert.Contains(t, order.OrderID, "order_")
	assert.Equal(t, int64(5000), order.Amount) // paise
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, fine.ID, order.FineID)

	// The order ID is persisted on the entry
	stored, err := svc.fineRepo.GetByID(fine.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, order.OrderID, *stored.OrderID)
}

func TestCreateOrder_OwnershipEnforced(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	fine := chargeFine(t, svc, admin.ID, alice.ID, 50)

	_, err := svc.payment.CreateOrder(bob.ID, &CreateOrderInput{FineID: fine.ID})
	assert.ErrorIs(t, err, ErrFineNotOwned)
}

func TestVerifyPayment_SettlesEntryAndLowersBalance(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")
	fine := chargeFine(t, svc, admin.ID, user.ID, 50)

	order, err := svc.payment.CreateOrder(user.ID, &CreateOrderInput{FineID: fine.ID})
	require.NoError(t, err)

	paymentID := "pay_abc123"
	receipt, err := svc.payment.VerifyPayment(context.Background(), user.ID, &VerifyPaymentInput{
		FineID:    fine.ID,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: signPayment(order.OrderID, paymentID),
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, receipt.Amount)
	assert.Equal(t, paymentID, receipt.PaymentID)

	stored, err := svc.fineRepo.GetByID(fine.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, paymentID, *stored.PaymentID)
	assert.NotNil(t, stored.PaidAt)
	assert.Equal(t, domain.FineTypeCharged, stored.Type)

	assert.Equal(t, 0.0, userBalance(t, svc, user.ID))
}

func TestVerifyPayment_BadSignatureRejected(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")
	fine := chargeFine(t, svc, admin.ID, user.ID, 50)

	order, err := svc.payment.CreateOrder(user.ID, &CreateOrderInput{FineID: fine.ID})
	require.NoError(t, err)

	_, err = svc.payment.VerifyPayment(context.Background(), user.ID, &VerifyPaymentInput{
		FineID:    fine.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_abc123",
		Signature: "deadbeef",
	})
	assert.ErrorIs(t, err, ErrPaymentVerification)

	// Nothing settled, balance untouched
	stored, err := svc.fineRepo.GetByID(fine.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid)
	assert.Equal(t, 50.0, userBalance(t, svc, user.ID))
}

func TestVerifyPayment_AlreadyPaidRejected(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")
	fine := chargeFine(t, svc, admin.ID, user.ID, 50)

	order, err := svc.payment.CreateOrder(user.ID, &CreateOrderInput{FineID: fine.ID})
	require.NoError(t, err)

	paymentID := "pay_abc123"
	input := &VerifyPaymentInput{
		FineID:    fine.ID,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: signPayment(order.OrderID, paymentID),
	}

	_, err = svc.payment.VerifyPayment(context.Background(), user.ID, input)
	require.NoError(t, err)

	// Replaying the callback must not settle twice or touch the balance again
	_, err = svc.payment.VerifyPayment(context.Background(), user.ID, input)
	assert.ErrorIs(t, err, ErrFineAlreadyPaid)
	assert.Equal(t, 0.0, userBalance(t, svc, user.ID))
}

func TestVerifyPayment_BalanceFlooredAtZero(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")
	fine := chargeFine(t, svc, admin.ID, user.ID, 50)

	// Admin clears the balance while the online payment is in flight
	_, err := svc.fine.Clear(context.Background(), admin.ID, &ClearInput{UserID: user.ID})
	require.NoError(t, err)

	order, err := svc.payment.CreateOrder(user.ID, &CreateOrderInput{FineID: fine.ID})
	require.NoError(t, err)

	paymentID := "pay_abc123"
	_, err = svc.payment.VerifyPayment(context.Background(), user.ID, &VerifyPaymentInput{
		FineID:    fine.ID,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: signPayment(order.OrderID, paymentID),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, userBalance(t, svc, user.ID))
}

func TestVerifyPayment_PaidTypeEntryNotPayable(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")
	_ = chargeFine(t, svc, admin.ID, user.ID, 50)

	// Clearing appends a paid-type entry; it cannot be paid again online
	_, err := svc.fine.Clear(context.Background(), admin.ID, &ClearInput{UserID: user.ID})
	require.NoError(t, err)

	entries, err := svc.fineRepo.ListByUser(user.ID)
	require.NoError(t, err)

	var paidEntry *models.FineHistory
	for i := range entries {
		if entries[i].Type == domain.FineTypePaid {
			paidEntry = &entries[i]
		}
	}
	require.NotNil(t, paidEntry)

	_, err = svc.payment.CreateOrder(user.ID, &CreateOrderInput{FineID: paidEntry.ID})
	assert.ErrorIs(t, err, ErrFineNotPayable)
}

func TestPaymentStats(t *testing.T) {
	db, svc, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "admin@example.com")
	user := createTestUser(t, db, "alice@example.com")

	first := chargeFine(t, svc, admin.ID, user.ID, 50)
	_ = chargeFine(t, svc, admin.ID, user.ID, 30)

	order, err := svc.payment.CreateOrder(user.ID, &CreateOrderInput{FineID: first.ID})
	require.NoError(t, err)

	paymentID := "pay_abc123"
	_, err = svc.payment.VerifyPayment(context.Background(), user.ID, &VerifyPaymentInput{
		FineID:    first.ID,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: signPayment(order.OrderID, paymentID),
	})
	require.NoError(t, err)

	stats, err := svc.payment.Stats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stats.TotalPaid)
	assert.Equal(t, int64(1), stats.TotalPaidCount)
	assert.Equal(t, 30.0, stats.PendingAmount)
	assert.Equal(t, int64(1), stats.PendingCount)
}
