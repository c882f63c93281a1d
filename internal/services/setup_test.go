package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mdhaarishussain/Yuvshiksha/internal/database"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory SQLite database with every table migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, first, last string, role models.Role) models.User {
	t.Helper()
	u := models.User{
		ID:        uuid.NewString(),
		FirstName: first,
		LastName:  last,
		Email:     fmt.Sprintf("%s.%s@example.com", first, uuid.NewString()[:8]),
		Role:      role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func createStudent(t *testing.T, db *gorm.DB, first, location, pin string) models.User {
	t.Helper()
	u := createUser(t, db, first, "Student", models.RoleStudent)
	require.NoError(t, db.Create(&models.StudentProfile{UserID: u.ID, Location: location, PinCode: pin}).Error)
	return u
}

func createTeacher(t *testing.T, db *gorm.DB, first, location, pin string, years int, listed bool) models.User {
	t.Helper()
	u := createUser(t, db, first, "Teacher", models.RoleTeacher)
	profile := models.TeacherProfile{
		UserID:          u.ID,
		Location:        location,
		PinCode:         pin,
		ExperienceYears: years,
		IsListed:        listed,
		Subjects:        datatypes.JSON(`["Mathematics"]`),
	}
	require.NoError(t, db.Create(&profile).Error)
	return u
}

// createMessage inserts a message directly with a fixed timestamp.
func createMessage(t *testing.T, db *gorm.DB, from, to models.User, content string, at time.Time, read bool) models.Message {
	t.Helper()
	m := models.Message{
		SenderID:    from.ID,
		RecipientID: to.ID,
		Content:     content,
		CreatedAt:   at,
	}
	require.NoError(t, db.Create(&m).Error)
	if read {
		require.NoError(t, db.Model(&m).Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error)
		m.IsRead = true
	}
	return m
}
