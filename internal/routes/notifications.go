package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mdhaarishussain/Yuvshiksha/internal/handlers"
	"github.com/mdhaarishussain/Yuvshiksha/internal/middleware"
)

func RegisterNotificationRoutes(r gin.IRouter, h *handlers.NotificationHandler) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", h.GetNotifications)
		notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
		notifications.PATCH("/:id/read", h.MarkNotificationRead)
	}
}
