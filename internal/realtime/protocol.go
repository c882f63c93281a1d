package realtime

import (
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
)

// Client to server events.
const (
	EventAuthenticate    = "authenticate"
	EventJoinRoom        = "join_room"
	EventSendMessage     = "send_message"
	EventMarkMessageRead = "mark_message_read"
)

// Server to client events.
const (
	EventUserOnline          = "user_online"
	EventUserOffline         = "user_offline"
	EventOnlineUsers         = "online_users"
	EventNewMessage          = "new_message"
	EventNewConversation     = "new_conversation"
	EventMessageNotification = "message_notification"
	EventMessageSent         = "message_sent"
	EventMessageError        = "message_error"
	EventMessageRead         = "message_read"
)

// SendMessagePayload is the body of send_message.
type SendMessagePayload struct {
	Sender          string             `json:"sender"`
	Recipient       string             `json:"recipient"`
	Content         string             `json:"content"`
	MessageType     models.MessageType `json:"messageType,omitempty"`
	Booking         string             `json:"booking,omitempty"`
	ReplyTo         string             `json:"replyTo,omitempty"`
	ClientMessageID string             `json:"clientMessageId,omitempty"`
}

type NewConversation struct {
	Participant models.Summary  `json:"participant"`
	LastMessage *models.Message `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
}

type MessageNotification struct {
	MessageID string         `json:"messageId"`
	Sender    models.Summary `json:"sender"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
}

// MessageSent acknowledges a send to the originating connection only.
type MessageSent struct {
	ID              string    `json:"_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
	Sender          string    `json:"sender"`
	Recipient       string    `json:"recipient"`
	ClientMessageID string    `json:"clientMessageId,omitempty"`
}

type MessageError struct {
	Error           string `json:"error"`
	ClientMessageID string `json:"clientMessageId,omitempty"`
}

type MessageRead struct {
	MessageID string `json:"messageId"`
}
