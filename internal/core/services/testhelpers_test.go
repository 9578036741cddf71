package services

import (
	"os"
	"testing"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testServices bundles the lifecycle services over one test database
type testServices struct {
	db          *gorm.DB
	borrowRepo  *repositories.BorrowRepository
	bookRepo    *repositories.BookRepository
	queueRepo   *repositories.QueueRepository
	fineRepo    *repositories.FineRepository
	userRepo    repositories.UserRepository
	borrow      *BorrowService
	reservation *ReservationService
	fine        *FineService
	payment     *PaymentService
	sweep       *SweepService
}

const testPaymentSecret = "test_key_secret"

func setupTestDB(t *testing.T) (*gorm.DB, *testServices, func()) {
	dbPath := "./test_services_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = models.AutoMigrate(db)
	require.NoError(t, err)

	userRepo := repositories.NewUserRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	borrowRepo := repositories.NewBorrowRepository(db)
	queueRepo := repositories.NewQueueRepository(db)
	fineRepo := repositories.NewFineRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	notifyService := NewNotificationService(notificationRepo)
	reservationService := NewReservationService(db, queueRepo, borrowRepo, bookRepo, notifyService)
	borrowService := NewBorrowService(db, borrowRepo, bookRepo, reservationService, notifyService)
	fineService := NewFineService(db, fineRepo, userRepo, notifyService)
	paymentService := NewPaymentService(db, fineRepo, userRepo, notifyService, testPaymentSecret)
	sweepService := NewSweepService(borrowRepo, notifyService, "0 2 * * *")

	svc := &testServices{
		db:          db,
		borrowRepo:  borrowRepo,
		bookRepo:    bookRepo,
		queueRepo:   queueRepo,
		fineRepo:    fineRepo,
		userRepo:    userRepo,
		borrow:      borrowService,
		reservation: reservationService,
		fine:        fineService,
		payment:     paymentService,
		sweep:       sweepService,
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, svc, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := &models.User{
		FullName: "Test User",
		Email:    email,
		Password: "hashed",
		Role:     "USER",
		IsActive: true,
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

func createTestBook(t *testing.T, db *gorm.DB, title string, quantity int) *models.Book {
	book := &models.Book{
		Title:             title,
		Authors:           "Test Author",
		Quantity:          quantity,
		AvailableQuantity: quantity,
	}
	err := db.Create(book).Error
	require.NoError(t, err)
	return book
}

func getBook(t *testing.T, db *gorm.DB, id uint) *models.Book {
	var book models.Book
	err := db.First(&book, id).Error
	require.NoError(t, err)
	return &book
}

func getRecord(t *testing.T, db *gorm.DB, id uint) *models.BorrowRecord {
	var record models.BorrowRecord
	err := db.First(&record, id).Error
	require.NoError(t, err)
	return &record
}
