package migrations

import (
	"gorm.io/gorm"
)

// Migration002AddMessageIndexes adds indexes for the hot message queries.
// Partial indexes work on both PostgreSQL and SQLite.
func Migration002AddMessageIndexes() Migration {
	return Migration{
		ID:   "002_add_message_indexes",
		Name: "Add message indexes for conversations, unread counts and replays",
		Up: func(db *gorm.DB) error {
			statements := []string{
				// Conversation history, newest first
				`CREATE INDEX IF NOT EXISTS idx_messages_pair_created
					ON messages (sender_id, recipient_id, created_at DESC)`,
				// Unread badge
				`CREATE INDEX IF NOT EXISTS idx_messages_unread
					ON messages (recipient_id)
					WHERE is_read = false AND deleted_at IS NULL`,
				// Replayed sends resolve to the stored message
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_client_id
					ON messages (sender_id, client_message_id)
					WHERE client_message_id IS NOT NULL`,
			}
			for _, stmt := range statements {
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			for _, idx := range []string{"idx_messages_pair_created", "idx_messages_unread", "idx_messages_client_id"} {
				if err := db.Exec("DROP INDEX IF EXISTS " + idx).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
