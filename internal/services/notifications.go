package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventNotification = "notification"
	notificationLimit = 50
)

// Pusher delivers an event to every live connection of a user.
type Pusher interface {
	PushToUser(userID, event string, payload interface{})
}

type NotificationService struct {
	db     *gorm.DB
	pusher Pusher
}

func NewNotificationService(db *gorm.DB, pusher Pusher) *NotificationService {
	return &NotificationService{db: db, pusher: pusher}
}

// SetPusher attaches the realtime channel once the socket server exists.
func (s *NotificationService) SetPusher(p Pusher) {
	s.pusher = p
}

// NotifyNewMessage stores a "new message" notification for msg's recipient
// and pushes it to them live.
func (s *NotificationService) NotifyNewMessage(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(map[string]string{
		"messageId": msg.ID,
		"senderId":  msg.SenderID,
	})
	if err != nil {
		return err
	}

	senderID := msg.SenderID
	n := models.Notification{
		RecipientID: msg.RecipientID,
		SenderID:    &senderID,
		Title:       "New Message",
		Message:     fmt.Sprintf("You have a new message from %s %s", msg.Sender.FirstName, msg.Sender.LastName),
		Type:        models.NotificationTypeMessage,
		Category:    "message",
		Priority:    "low",
		ActionURL:   "/messages/" + msg.SenderID,
		Data:        datatypes.JSON(data),
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return storageError("Failed to create notification", err)
	}

	if s.pusher != nil {
		s.pusher.PushToUser(n.RecipientID, EventNotification, n)
	}
	return nil
}

// List returns the latest notifications for userID and how many are unread.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, int64, error) {
	db := s.db.WithContext(ctx)

	notifications := []models.Notification{}
	err := db.Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(notificationLimit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, storageError("Failed to fetch notifications", err)
	}

	var unread int64
	if err := db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", userID, false).Count(&unread).Error; err != nil {
		return nil, 0, storageError("Failed to fetch notifications", err)
	}
	return notifications, unread, nil
}

// MarkRead flags one of userID's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	db := s.db.WithContext(ctx)

	var n models.Notification
	err := db.Where("id = ? AND recipient_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("Notification not found")
	}
	if err != nil {
		return storageError("Failed to update notification", err)
	}
	if err := db.Model(&n).Update("is_read", true).Error; err != nil {
		return storageError("Failed to update notification", err)
	}
	return nil
}

// MarkAllRead flags every notification of userID as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return storageError("Failed to update notifications", err)
	}
	return nil
}
