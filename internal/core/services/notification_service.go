package services

import (
	"log"

	"bookhub/internal/adapters/persistence/models"
	"bookhub/internal/adapters/persistence/repositories"
)

// NotificationService writes fire-and-forget notification records on
// lifecycle transitions. Failures are logged, never propagated: a lost
// notification must not fail the operation that produced it.
type NotificationService struct {
	notificationRepo *repositories.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo *repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// Notify stores a notification for a user (best effort)
func (s *NotificationService) Notify(userID uint, notifType, title, message string) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		log.Printf("⚠️ Failed to create notification for user %d (%s): %v", userID, notifType, err)
	}
}

// ListForUser returns a user's notifications
func (s *NotificationService) ListForUser(userID uint, offset, limit int) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(userID, offset, limit)
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(id, userID uint) error {
	return s.notificationRepo.MarkRead(id, userID)
}

// MarkAllRead marks all of a user's notifications as read
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}
