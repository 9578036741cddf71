package routes

import (
	"bookhub/internal/adapters/http/handlers"
	"bookhub/internal/adapters/http/middleware"
	"bookhub/internal/adapters/persistence/repositories"
	"bookhub/internal/config"
	"bookhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the sweep
// service so the caller controls its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.SweepService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	borrowRepo := repositories.NewBorrowRepository(db)
	queueRepo := repositories.NewQueueRepository(db)
	fineRepo := repositories.NewFineRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	wishlistRepo := repositories.NewWishlistRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService(notificationRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	bookService := services.NewBookService(bookRepo)
	reservationService := services.NewReservationService(db, queueRepo, borrowRepo, bookRepo, notifyService)
	borrowService := services.NewBorrowService(db, borrowRepo, bookRepo, reservationService, notifyService)
	fineService := services.NewFineService(db, fineRepo, userRepo, notifyService)
	paymentService := services.NewPaymentService(db, fineRepo, userRepo, notifyService, cfg.Payment.KeySecret)
	wishlistService := services.NewWishlistService(wishlistRepo, bookRepo)
	sweepService := services.NewSweepService(borrowRepo, notifyService, cfg.Sweep.Schedule)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	bookHandler := handlers.NewBookHandler(bookService)
	borrowHandler := handlers.NewBorrowHandler(borrowService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	fineHandler := handlers.NewFineHandler(fineService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	notificationHandler := handlers.NewNotificationHandler(notifyService)
	wishlistHandler := handlers.NewWishlistHandler(wishlistService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public + protected)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Book catalog (browse is public, writes are admin)
	bookRoutes := apiV1.Group("/books")
	setupBookRoutes(bookRoutes, bookHandler, cfg)

	// Borrow lifecycle (authenticated)
	borrowRoutes := apiV1.Group("/borrow")
	borrowRoutes.Use(middleware.AuthMiddleware(cfg))
	setupBorrowRoutes(borrowRoutes, borrowHandler)

	// Reservation queues (authenticated)
	reservationRoutes := apiV1.Group("/advanced-borrowing")
	reservationRoutes.Use(middleware.AuthMiddleware(cfg))
	setupReservationRoutes(reservationRoutes, reservationHandler)

	// Fine ledger (admin only)
	fineRoutes := apiV1.Group("/fine")
	fineRoutes.Use(middleware.AuthMiddleware(cfg))
	fineRoutes.Use(middleware.AdminOnly())
	setupFineRoutes(fineRoutes, fineHandler)

	// Online fine payment (authenticated)
	paymentRoutes := apiV1.Group("/payment-gateway")
	paymentRoutes.Use(middleware.AuthMiddleware(cfg))
	setupPaymentRoutes(paymentRoutes, paymentHandler)

	// Wishlist (authenticated)
	wishlistRoutes := apiV1.Group("/wishlist")
	wishlistRoutes.Use(middleware.AuthMiddleware(cfg))
	setupWishlistRoutes(wishlistRoutes, wishlistHandler)

	// Notifications (authenticated)
	notificationRoutes := apiV1.Group("/notification")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	setupNotificationRoutes(notificationRoutes, notificationHandler)

	// User management (admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	return sweepService
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes, rate limited against brute force
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, cfg *config.Config) {
	router.Get("/", handler.List)
	router.Get("/:bookId", handler.Get)

	// Admin writes
	router.Post("/", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Create)
	router.Put("/:bookId", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Update)
	router.Delete("/:bookId", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Delete)
}

// setupBorrowRoutes configures borrow lifecycle routes
func setupBorrowRoutes(router fiber.Router, handler *handlers.BorrowHandler) {
	// User side
	router.Get("/send/borrowRequest/:bookId", handler.RequestBorrow)
	router.Get("/return/:requestId", handler.RequestReturn)
	router.Get("/renew/:requestId", handler.Renew)
	router.Get("/my", handler.MyBorrows)

	// Admin side
	router.Get("/requests", middleware.AdminOnly(), handler.ListRequests)
	router.Post("/handle-request", middleware.AdminOnly(), handler.HandleRequest)
	router.Post("/handle-return", middleware.AdminOnly(), handler.HandleReturn)
}

// setupReservationRoutes configures reservation queue routes
func setupReservationRoutes(router fiber.Router, handler *handlers.ReservationHandler) {
	router.Post("/reserve", handler.Reserve)
	router.Delete("/reserve/:reservationId", handler.Cancel)
	router.Get("/reservations", handler.MyReservations)
	router.Get("/stats", handler.Stats)
}

// setupFineRoutes configures fine ledger routes (admin)
func setupFineRoutes(router fiber.Router, handler *handlers.FineHandler) {
	router.Post("/add-fine", handler.Charge)
	router.Post("/clear-fine", handler.Clear)
	router.Get("/users", handler.UsersWithFines)
	router.Get("/history/:userId", handler.History)
	router.Get("/stats", handler.Stats)
}

// setupPaymentRoutes configures online payment routes
func setupPaymentRoutes(router fiber.Router, handler *handlers.PaymentHandler) {
	router.Post("/create-order", handler.CreateOrder)
	router.Post("/verify-payment", middleware.StrictRateLimiter(), handler.VerifyPayment)
	router.Get("/history", handler.History)
	router.Get("/stats", handler.Stats)
}

// setupWishlistRoutes configures wishlist routes
func setupWishlistRoutes(router fiber.Router, handler *handlers.WishlistHandler) {
	router.Get("/", handler.List)
	router.Post("/:bookId", handler.Add)
	router.Delete("/:bookId", handler.Remove)
}

// setupNotificationRoutes configures notification routes
func setupNotificationRoutes(router fiber.Router, handler *handlers.NotificationHandler) {
	router.Get("/", handler.List)
	router.Put("/:notificationId/read", handler.MarkRead)
	router.Put("/read-all", handler.MarkAllRead)
}

// setupUserRoutes configures user management routes (admin)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.List)
	router.Get("/:userId", handler.Get)
	router.Put("/:userId/active", handler.SetActive)
}
