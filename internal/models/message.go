package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}

// Message is a direct message between two users. Only the read and delete
// flags change after creation.
type Message struct {
	ID string `gorm:"primaryKey;type:text" json:"_id"`

	SenderID    string      `gorm:"index:idx_messages_pair,priority:1;type:text;not null" json:"-"`
	RecipientID string      `gorm:"index:idx_messages_pair,priority:2;index;type:text;not null" json:"-"`
	Content     string      `gorm:"type:text;not null" json:"content"`
	MessageType MessageType `gorm:"type:text;default:'text';not null" json:"messageType"`

	BookingID *string `gorm:"type:text;index" json:"booking"`
	ReplyToID *string `gorm:"type:text;index" json:"-"`
	ReplyTo   *Message `gorm:"foreignKey:ReplyToID" json:"replyTo,omitempty"`

	// Idempotency key (client-generated) for replayed sends
	ClientMessageID *string `gorm:"type:text;index" json:"clientMessageId,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"isRead"`
	ReadAt *time.Time `json:"readAt"`

	IsDeleted bool           `gorm:"-" json:"isDeleted"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Sender    User `gorm:"foreignKey:SenderID" json:"-"`
	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.MessageType == "" {
		m.MessageType = MessageTypeText
	}
	return
}

func (m *Message) AfterFind(tx *gorm.DB) (err error) {
	m.IsDeleted = m.DeletedAt.Valid
	return
}

// Involves reports whether userID is the sender or the recipient.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// Counterparty returns the other participant from userID's point of view.
func (m *Message) Counterparty(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// MarshalJSON renders sender, recipient and replyTo as objects when they were
// loaded and as bare ids otherwise.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	out := struct {
		alias
		Sender    interface{} `json:"sender"`
		Recipient interface{} `json:"recipient"`
		ReplyTo   interface{} `json:"replyTo"`
	}{
		alias:     alias(m),
		Sender:    userRef(m.Sender, m.SenderID),
		Recipient: userRef(m.Recipient, m.RecipientID),
	}
	switch {
	case m.ReplyTo != nil:
		out.ReplyTo = m.ReplyTo
	case m.ReplyToID != nil:
		out.ReplyTo = *m.ReplyToID
	}
	return json.Marshal(out)
}

func userRef(u User, id string) interface{} {
	if u.ID != "" {
		return u.Summary()
	}
	return id
}
