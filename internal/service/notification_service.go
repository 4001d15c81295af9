package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"liber/internal/models"
	"liber/internal/repository"
)

// NotificationService reads and mutates a user's notification inbox.
// Creation happens inside the services that own the triggering actions.
type NotificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	notifications, err := s.notifications.GetByUserID(ctx, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	err := s.notifications.MarkRead(ctx, userID, notificationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("notification", notificationID)
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// MarkUnread flips one of the user's notifications back to unread.
func (s *NotificationService) MarkUnread(ctx context.Context, userID, notificationID uint) error {
	err := s.notifications.MarkUnread(ctx, userID, notificationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("notification", notificationID)
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// MarkAllRead marks every unread notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes one of the user's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uint) error {
	err := s.notifications.Delete(ctx, userID, notificationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("notification", notificationID)
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
