package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mdhaarishussain/Yuvshiksha/internal/handlers"
	"github.com/mdhaarishussain/Yuvshiksha/internal/middleware"
)

func RegisterMessageRoutes(r gin.IRouter, h *handlers.MessageHandler) {
	messages := r.Group("/messages")
	messages.Use(middleware.AuthMiddleware())
	{
		messages.GET("/conversations", h.GetConversations)
		messages.GET("/conversation/:participantId", h.GetConversation)
		messages.GET("/unread-count", h.GetUnreadCount)
		messages.GET("/search", h.SearchMessages)
		messages.POST("/send", middleware.ChatRateLimit(), h.SendMessage)
		messages.PATCH("/:messageId/read", h.MarkRead)
		messages.DELETE("/:messageId", h.DeleteMessage)
	}
}
