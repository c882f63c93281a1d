package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeMessage NotificationType = "message"
	NotificationTypeBooking NotificationType = "booking"
	NotificationTypeSystem  NotificationType = "system"
)

type Notification struct {
	ID          string           `gorm:"primaryKey;type:text" json:"_id"`
	RecipientID string           `gorm:"index;type:text;not null" json:"recipient"`
	SenderID    *string          `gorm:"index;type:text" json:"sender,omitempty"`
	Title       string           `gorm:"type:text;not null" json:"title"`
	Message     string           `gorm:"type:text" json:"message"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Category    string           `gorm:"type:varchar(20)" json:"category"`
	Priority    string           `gorm:"type:varchar(10);default:'low'" json:"priority"`
	ActionURL   string           `gorm:"type:text" json:"actionUrl,omitempty"`
	Data        datatypes.JSON   `json:"data,omitempty"`
	IsRead      bool             `gorm:"default:false;index" json:"isRead"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return
}
