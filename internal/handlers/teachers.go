package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mdhaarishussain/Yuvshiksha/internal/location"
	"github.com/mdhaarishussain/Yuvshiksha/internal/middleware"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	"github.com/mdhaarishussain/Yuvshiksha/internal/services"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
)

type TeacherHandler struct {
	teachers *services.TeacherService
}

func NewTeacherHandler(teachers *services.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// rankedTeacher is a teacher with its ranking fields inlined, the shape
// /teachers/list returns when sorting by location.
type rankedTeacher struct {
	models.User
	LocationScore location.LocationScore `json:"locationScore"`
	MatchBadge    location.Badge         `json:"matchBadge"`
}

func flattenRanking(ranked []services.RecommendedTeacher) []rankedTeacher {
	out := make([]rankedTeacher, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, rankedTeacher{User: r.Teacher, LocationScore: r.LocationScore, MatchBadge: r.MatchBadge})
	}
	return out
}

// ListTeachers GET /teachers/list?sortByLocation=true
func (h *TeacherHandler) ListTeachers(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)

	if c.Query("sortByLocation") == "true" && userID != "" {
		result, err := h.teachers.Recommend(ctx, userID)
		if err == nil {
			c.JSON(http.StatusOK, flattenRanking(result.Teachers))
			return
		}
		logger.Warn().Err(err).Str("user_id", userID).Msg("Location ranking failed, returning plain listing")
	}

	teachers, err := h.teachers.ListTeachers(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, teachers)
}

// GetRecommended GET /teachers/recommended
func (h *TeacherHandler) GetRecommended(c *gin.Context) {
	result, err := h.teachers.Recommend(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchTeachers GET /teachers/search?city=&pinCode=&locality=
func (h *TeacherHandler) SearchTeachers(c *gin.Context) {
	teachers, err := h.teachers.FindTeachers(c.Request.Context(), services.Criteria{
		City:     c.Query("city"),
		PinCode:  c.Query("pinCode"),
		Locality: c.Query("locality"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, teachers)
}

// GetLocationStats GET /teachers/location-stats
func (h *TeacherHandler) GetLocationStats(c *gin.Context) {
	stats, err := h.teachers.LocationStats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetTeacher GET /teachers/:id
func (h *TeacherHandler) GetTeacher(c *gin.Context) {
	if !utils.IsUUID(c.Param("id")) {
		abortWithError(c, errors.NotFound("Teacher not found"))
		return
	}
	teacher, err := h.teachers.GetTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, teacher)
}

// GetAvailability GET /teachers/:id/availability?date=YYYY-MM-DD
func (h *TeacherHandler) GetAvailability(c *gin.Context) {
	slots, err := h.teachers.Availability(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
