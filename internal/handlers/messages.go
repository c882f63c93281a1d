package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mdhaarishussain/Yuvshiksha/internal/metrics"
	"github.com/mdhaarishussain/Yuvshiksha/internal/middleware"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	"github.com/mdhaarishussain/Yuvshiksha/internal/services"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageRequest struct {
	Recipient       string             `json:"recipient"`
	Content         string             `json:"content"`
	MessageType     models.MessageType `json:"messageType"`
	Booking         string             `json:"booking"`
	ReplyTo         string             `json:"replyTo"`
	ClientMessageID string             `json:"clientMessageId"`
}

// GetConversations GET /messages/conversations
func (h *MessageHandler) GetConversations(c *gin.Context) {
	conversations, err := h.messages.ListConversations(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetConversation GET /messages/conversation/:participantId?page=&limit=
func (h *MessageHandler) GetConversation(c *gin.Context) {
	messages, err := h.messages.ListMessages(
		c.Request.Context(),
		middleware.CurrentUserID(c),
		c.Param("participantId"),
		queryInt(c, "page"),
		queryInt(c, "limit"),
	)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// GetUnreadCount GET /messages/unread-count
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.messages.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// SendMessage POST /messages/send
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.Validation("Invalid request body"))
		return
	}

	msg, created, err := h.messages.Send(c.Request.Context(), services.SendInput{
		SenderID:        middleware.CurrentUserID(c),
		RecipientID:     req.Recipient,
		Content:         req.Content,
		MessageType:     req.MessageType,
		BookingID:       req.Booking,
		ReplyToID:       req.ReplyTo,
		ClientMessageID: req.ClientMessageID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		metrics.MessagesSent.WithLabelValues(metrics.TransportHTTP).Inc()
		status = http.StatusCreated
	}
	c.JSON(status, msg)
}

// MarkRead PATCH /messages/:messageId/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if _, err := h.messages.MarkRead(c.Request.Context(), c.Param("messageId"), middleware.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

// DeleteMessage DELETE /messages/:messageId
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.messages.SoftDelete(c.Request.Context(), c.Param("messageId"), middleware.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

// SearchMessages GET /messages/search?query=&participantId=
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	messages, err := h.messages.Search(
		c.Request.Context(),
		middleware.CurrentUserID(c),
		c.Query("query"),
		c.Query("participantId"),
	)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
