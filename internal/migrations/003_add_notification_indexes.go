package migrations

import (
	"gorm.io/gorm"
)

// Migration003AddNotificationIndexes backs the latest-first notification list.
func Migration003AddNotificationIndexes() Migration {
	return Migration{
		ID:        "003_add_notification_indexes",
		Name:      "Add notification listing index",
		DependsOn: []string{"002_add_message_indexes"},
		Up: func(db *gorm.DB) error {
			return db.Exec(`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created
				ON notifications (recipient_id, created_at DESC)`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_notifications_recipient_created`).Error
		},
	}
}
