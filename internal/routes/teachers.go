package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mdhaarishussain/Yuvshiksha/internal/handlers"
	"github.com/mdhaarishussain/Yuvshiksha/internal/middleware"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
)

func RegisterTeacherRoutes(r gin.IRouter, h *handlers.TeacherHandler) {
	teachers := r.Group("/teachers")

	// Public profile
	teachers.GET("/:id", middleware.OptionalAuthMiddleware(), h.GetTeacher)

	authed := teachers.Group("")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.GET("/list", h.ListTeachers)
		authed.GET("/recommended", middleware.RequireRole(models.RoleStudent), h.GetRecommended)
		authed.GET("/search", h.SearchTeachers)
		authed.GET("/location-stats", h.GetLocationStats)
		authed.GET("/:id/availability", h.GetAvailability)
	}
}
