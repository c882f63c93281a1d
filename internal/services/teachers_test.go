package services

import (
	"context"
	"testing"
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestListAndFindTeachers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeacherService(db)
	ctx := context.Background()

	hyd := createTeacher(t, db, "Hyd", "Banjara Hills, Hyderabad", "500034", 3, true)
	createTeacher(t, db, "Chennai", "Anna Nagar, Chennai", "600040", 3, true)
	createTeacher(t, db, "Unlisted", "Hyderabad", "500034", 3, false)
	createStudent(t, db, "Student", "Hyderabad", "500034")

	all, err := svc.ListTeachers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, u := range all {
		require.NotNil(t, u.TeacherProfile)
		assert.True(t, u.TeacherProfile.IsListed)
	}

	byCity, err := svc.FindTeachers(ctx, Criteria{City: "hyderabad"})
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, hyd.ID, byCity[0].ID)

	byPin, err := svc.FindTeachers(ctx, Criteria{PinCode: "600040"})
	require.NoError(t, err)
	require.Len(t, byPin, 1)
	assert.Equal(t, "Chennai", byPin[0].FirstName)

	byLocality, err := svc.FindTeachers(ctx, Criteria{Locality: "banjara", City: "Hyderabad"})
	require.NoError(t, err)
	assert.Len(t, byLocality, 1)

	none, err := svc.FindTeachers(ctx, Criteria{City: "%"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocationStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeacherService(db)

	createTeacher(t, db, "A", "Banjara Hills, Hyderabad", "500034", 3, true)
	createTeacher(t, db, "B", "Hyderabad", "", 3, true)
	createTeacher(t, db, "C", "Anna Nagar, Chennai", "600040", 3, true)
	createTeacher(t, db, "D", "Chennai", "600040", 3, false)

	stats, err := svc.LocationStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalListedTeachers)
	assert.Equal(t, map[string]int{"Hyderabad": 2, "Chennai": 1}, stats.TeachersByCity)
	assert.Equal(t, 2, stats.TeachersWithPinCode)
}

func TestGetTeacher(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeacherService(db)
	ctx := context.Background()

	tch := createTeacher(t, db, "A", "Hyderabad", "", 3, true)
	require.NoError(t, db.Create(&models.TeacherAvailability{TeacherID: tch.ID, Day: "Monday", StartTime: "09:00", EndTime: "11:00"}).Error)
	student := createStudent(t, db, "S", "Hyderabad", "")

	got, err := svc.GetTeacher(ctx, tch.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TeacherProfile)
	assert.Len(t, got.TeacherProfile.Availability, 1)
	assert.Equal(t, []string{"Mathematics"}, got.TeacherProfile.SubjectList())

	_, err = svc.GetTeacher(ctx, student.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSlotsForDate(t *testing.T) {
	// 2024-05-13 is a Monday, 2024-05-14 a Tuesday, 2024-05-15 a Wednesday.
	availability := []models.TeacherAvailability{
		{Day: "Monday", StartTime: "09:00", EndTime: "12:30"},
		{Day: "Monday", StartTime: "18:00", EndTime: "20:00"},
		{Day: "Tuesday", StartTime: "09:00", EndTime: "10:00", Slots: datatypes.JSON(`["07:00 - 08:00","19:00 - 20:00"]`)},
		{Day: "Wednesday", StartTime: "10:00", EndTime: "09:00"},
	}

	tests := []struct {
		name string
		date string
		want []string
	}{
		{"hourly with partial hour dropped", "2024-05-13", []string{"09:00 - 10:00", "10:00 - 11:00", "11:00 - 12:00"}},
		{"explicit list wins", "2024-05-14", []string{"07:00 - 08:00", "19:00 - 20:00"}},
		{"end before start", "2024-05-15", []string{}},
		{"no pattern for weekday", "2024-05-16", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SlotsForDate(availability, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SlotsForDate(availability, "13/05/2024")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSlotsForDate_HalfHourStart(t *testing.T) {
	got, err := SlotsForDate([]models.TeacherAvailability{{Day: "Saturday", StartTime: "09:30", EndTime: "11:30"}}, "2024-05-18")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30 - 10:30", "10:30 - 11:30"}, got)
}

func TestAvailability(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeacherService(db)
	ctx := context.Background()

	tch := createTeacher(t, db, "A", "Hyderabad", "", 3, true)
	require.NoError(t, db.Create(&models.TeacherAvailability{TeacherID: tch.ID, Day: time.Monday.String(), StartTime: "16:00", EndTime: "18:00"}).Error)

	slots, err := svc.Availability(ctx, tch.ID, "2024-05-13")
	require.NoError(t, err)
	assert.Equal(t, []string{"16:00 - 17:00", "17:00 - 18:00"}, slots)

	_, err = svc.Availability(ctx, tch.ID, "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Availability(ctx, "missing", "2024-05-13")
	assert.True(t, apperrors.IsNotFound(err))
}
