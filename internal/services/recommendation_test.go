package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mdhaarishussain/Yuvshiksha/internal/database"
	"github.com/mdhaarishussain/Yuvshiksha/internal/location"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teacher(id, loc, pin string, years int) models.User {
	return models.User{
		ID:   id,
		Role: models.RoleTeacher,
		TeacherProfile: &models.TeacherProfile{
			UserID:          id,
			Location:        loc,
			PinCode:         pin,
			ExperienceYears: years,
			IsListed:        true,
		},
	}
}

func TestRankTeachers_OrderAndBadges(t *testing.T) {
	candidates := []models.User{
		teacher("far", "Anna Nagar, Chennai", "600040", 20),
		teacher("city", "Kukatpally, Hyderabad", "", 3),
		teacher("exact", "Banjara Hills, Hyderabad", "500034", 1),
		teacher("zone", "Jubilee Hills, Hyderabad", "500099", 5),
		teacher("city-senior", "Gachibowli, Hyderabad", "", 9),
		{ID: "no-profile", Role: models.RoleTeacher},
	}
	requester := location.Parse("Banjara Hills, Hyderabad")

	ranked := RankTeachers(candidates, requester, "500034")
	require.Len(t, ranked, 6)

	var order []string
	for _, r := range ranked {
		order = append(order, r.Teacher.ID)
	}
	assert.Equal(t, []string{"exact", "zone", "city-senior", "city", "far", "no-profile"}, order)

	assert.Equal(t, 100, ranked[0].LocationScore.Score)
	assert.Equal(t, "📍", ranked[0].MatchBadge.Emoji)
	assert.Equal(t, 80, ranked[1].LocationScore.Score)
	assert.Equal(t, 60, ranked[2].LocationScore.Score)
	assert.Equal(t, "Same City", ranked[2].MatchBadge.Text)
	assert.Equal(t, 0, ranked[4].LocationScore.Score)
	assert.Equal(t, location.Badge{}, ranked[4].MatchBadge)
}

func TestRankTeachers_DoesNotMutateInput(t *testing.T) {
	candidates := []models.User{
		teacher("b", "Chennai", "", 1),
		teacher("a", "Hyderabad", "", 1),
	}
	ranked := RankTeachers(candidates, location.Parse("Hyderabad"), "")

	assert.Equal(t, "a", ranked[0].Teacher.ID)
	assert.Equal(t, "b", candidates[0].ID)
	assert.Equal(t, "Chennai", candidates[0].TeacherProfile.Location)
}

func TestRecommend_StudentScenario(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeacherService(db)
	ctx := context.Background()

	student := createStudent(t, db, "Asha", "Banjara Hills, Hyderabad", "500034")
	a := createTeacher(t, db, "TeacherA", "Banjara Hills, Hyderabad", "500034", 2, true)
	b := createTeacher(t, db, "TeacherB", "Jubilee Hills, Hyderabad", "500099", 10, true)
	createTeacher(t, db, "Hidden", "Banjara Hills, Hyderabad", "500034", 30, false)

	result, err := svc.Recommend(ctx, student.ID)
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Teachers, 2)
	assert.Equal(t, a.ID, result.Teachers[0].Teacher.ID)
	assert.Equal(t, 100, result.Teachers[0].LocationScore.Score)
	assert.Equal(t, b.ID, result.Teachers[1].Teacher.ID)
	assert.Equal(t, 80, result.Teachers[1].LocationScore.Score)

	assert.Equal(t, "Banjara Hills, Hyderabad", result.StudentLocation.Raw)
	assert.Equal(t, LocationParts{Locality: "Banjara Hills", City: "Hyderabad"}, result.StudentLocation.Parsed)
	assert.Equal(t, "500034", result.StudentLocation.PinCode)
}

func TestRecommend_MissingStudentProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeacherService(db)

	u := createUser(t, db, "NoProfile", "Student", models.RoleStudent)
	_, err := svc.Recommend(context.Background(), u.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Recommend(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRecommend_UsesCache(t *testing.T) {
	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := database.NewRedisCache(client, "test:")
	svc := NewTeacherService(db).WithCache(cache, time.Minute)
	ctx := context.Background()

	student := createStudent(t, db, "Asha", "Hyderabad", "")
	createTeacher(t, db, "First", "Hyderabad", "", 1, true)

	first, err := svc.Recommend(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalCount)
	assert.True(t, mr.Exists("test:recommendations:"+student.ID))

	createTeacher(t, db, "Second", "Hyderabad", "", 1, true)
	cached, err := svc.Recommend(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.TotalCount)

	mr.FastForward(2 * time.Minute)
	fresh, err := svc.Recommend(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalCount)
}
