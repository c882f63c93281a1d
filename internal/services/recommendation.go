package services

import (
	"context"
	"sort"
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/location"
	"github.com/mdhaarishussain/Yuvshiksha/internal/metrics"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
)

type RecommendedTeacher struct {
	Teacher       models.User            `json:"teacher"`
	LocationScore location.LocationScore `json:"locationScore"`
	MatchBadge    location.Badge         `json:"matchBadge"`
}

type LocationParts struct {
	Locality string `json:"locality,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
}

type StudentLocation struct {
	Raw     string        `json:"raw"`
	Parsed  LocationParts `json:"parsed"`
	PinCode string        `json:"pinCode,omitempty"`
}

type RecommendationResult struct {
	Teachers        []RecommendedTeacher `json:"teachers"`
	StudentLocation StudentLocation      `json:"studentLocation"`
	TotalCount      int                  `json:"totalCount"`
}

// RankTeachers scores every candidate against the requester and orders them
// by score, then by years of experience. Candidates are copied, never modified.
func RankTeachers(candidates []models.User, requester location.ParsedLocation, requesterPin string) []RecommendedTeacher {
	ranked := make([]RecommendedTeacher, 0, len(candidates))
	for _, teacher := range candidates {
		var loc, pin string
		if teacher.TeacherProfile != nil {
			loc = teacher.TeacherProfile.Location
			pin = teacher.TeacherProfile.PinCode
		}
		score := location.Score(requester, location.Parse(loc), requesterPin, pin)
		ranked = append(ranked, RecommendedTeacher{
			Teacher:       teacher,
			LocationScore: score,
			MatchBadge:    location.MatchBadge(score.MatchType),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].LocationScore.Score != ranked[j].LocationScore.Score {
			return ranked[i].LocationScore.Score > ranked[j].LocationScore.Score
		}
		return experienceYears(ranked[i].Teacher) > experienceYears(ranked[j].Teacher)
	})
	return ranked
}

func experienceYears(u models.User) int {
	if u.TeacherProfile == nil {
		return 0
	}
	return u.TeacherProfile.ExperienceYears
}

func recommendationCacheKey(studentID string) string {
	return "recommendations:" + studentID
}

// Recommend ranks every listed teacher by proximity to the student.
func (s *TeacherService) Recommend(ctx context.Context, studentID string) (*RecommendationResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	if s.cache != nil {
		var cached RecommendationResult
		if err := s.cache.Get(ctx, recommendationCacheKey(studentID), &cached); err == nil {
			return &cached, nil
		}
	}

	student, err := s.studentProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	teachers, err := s.ListTeachers(ctx)
	if err != nil {
		return nil, err
	}

	parsed := location.Parse(student.Location)
	ranked := RankTeachers(teachers, parsed, student.PinCode)

	result := &RecommendationResult{
		Teachers: ranked,
		StudentLocation: StudentLocation{
			Raw:     parsed.Raw,
			Parsed:  LocationParts{Locality: parsed.Locality, City: parsed.City, State: parsed.State},
			PinCode: student.PinCode,
		},
		TotalCount: len(ranked),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, recommendationCacheKey(studentID), result, s.cacheTTL); err != nil {
			logger.Warn().Err(err).Str("student_id", studentID).Msg("Failed to cache recommendations")
		}
	}
	return result, nil
}
