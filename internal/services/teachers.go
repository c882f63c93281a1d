package services

import (
	"context"
	"errors"
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/location"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
	"gorm.io/gorm"
)

// Cache stores JSON-serialisable values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TeacherService reads teacher and student profiles for listing, ranking
// and availability.
type TeacherService struct {
	db       *gorm.DB
	cache    Cache
	cacheTTL time.Duration
}

func NewTeacherService(db *gorm.DB) *TeacherService {
	return &TeacherService{db: db}
}

// WithCache enables caching of recommendation results. A nil cache disables it.
func (s *TeacherService) WithCache(c Cache, ttl time.Duration) *TeacherService {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// Criteria filters the listed teachers. Empty fields are ignored.
type Criteria struct {
	City     string
	PinCode  string
	Locality string
}

type LocationStats struct {
	TotalListedTeachers int            `json:"totalListedTeachers"`
	TeachersByCity      map[string]int `json:"teachersByCity"`
	TeachersWithPinCode int            `json:"teachersWithPinCode"`
}

func (s *TeacherService) listedQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Joins("JOIN teacher_profiles ON teacher_profiles.user_id = users.id").
		Where("users.role = ? AND teacher_profiles.is_listed = ?", models.RoleTeacher, true).
		Preload("TeacherProfile").
		Order("users.created_at ASC")
}

// ListTeachers returns every listed teacher with their profile.
func (s *TeacherService) ListTeachers(ctx context.Context) ([]models.User, error) {
	var teachers []models.User
	if err := s.listedQuery(ctx).Find(&teachers).Error; err != nil {
		return nil, storageError("Failed to fetch teachers", err)
	}
	return teachers, nil
}

// FindTeachers returns listed teachers matching c. City and locality are
// case-insensitive substrings of the profile location; the pin code is exact.
func (s *TeacherService) FindTeachers(ctx context.Context, c Criteria) ([]models.User, error) {
	q := s.listedQuery(ctx)
	if c.PinCode != "" {
		q = q.Where("teacher_profiles.pin_code = ?", c.PinCode)
	}
	if c.City != "" {
		q = q.Where(`LOWER(teacher_profiles.location) LIKE ? ESCAPE '\'`, utils.SanitizeSearchQuery(c.City))
	}
	if c.Locality != "" {
		q = q.Where(`LOWER(teacher_profiles.location) LIKE ? ESCAPE '\'`, utils.SanitizeSearchQuery(c.Locality))
	}

	var teachers []models.User
	if err := q.Find(&teachers).Error; err != nil {
		return nil, storageError("Failed to fetch teachers", err)
	}
	return teachers, nil
}

// LocationStats counts listed teachers per parsed city.
func (s *TeacherService) LocationStats(ctx context.Context) (*LocationStats, error) {
	teachers, err := s.ListTeachers(ctx)
	if err != nil {
		return nil, err
	}

	stats := &LocationStats{
		TotalListedTeachers: len(teachers),
		TeachersByCity:      make(map[string]int),
	}
	for _, t := range teachers {
		if t.TeacherProfile == nil {
			continue
		}
		if city := location.Parse(t.TeacherProfile.Location).City; city != "" {
			stats.TeachersByCity[city]++
		}
		if t.TeacherProfile.PinCode != "" {
			stats.TeachersWithPinCode++
		}
	}
	return stats, nil
}

// GetTeacher loads one teacher with profile and weekly availability.
func (s *TeacherService) GetTeacher(ctx context.Context, id string) (*models.User, error) {
	var teacher models.User
	err := s.db.WithContext(ctx).
		Preload("TeacherProfile").
		Preload("TeacherProfile.Availability", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("id = ? AND role = ?", id, models.RoleTeacher).
		First(&teacher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Teacher not found")
	}
	if err != nil {
		return nil, storageError("Failed to fetch teacher details", err)
	}
	return &teacher, nil
}

func (s *TeacherService) studentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	err := s.db.WithContext(ctx).First(&profile, "user_id = ?", studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Student profile not found")
	}
	if err != nil {
		return nil, storageError("Failed to fetch student profile", err)
	}
	return &profile, nil
}
