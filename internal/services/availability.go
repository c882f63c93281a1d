package services

import (
	"context"
	"strings"
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	slotLength  = time.Hour
)

// SlotsForDate lists bookable slots on date (YYYY-MM-DD, read as UTC) from
// a weekly pattern. The first entry for that weekday is used. An explicit
// slot list wins; otherwise whole hours between start and end are offered.
func SlotsForDate(availability []models.TeacherAvailability, date string) ([]string, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, apperrors.Validation("Invalid date, expected YYYY-MM-DD")
	}
	weekday := day.UTC().Weekday().String()

	for _, a := range availability {
		if !strings.EqualFold(strings.TrimSpace(a.Day), weekday) {
			continue
		}
		if slots, ok := a.SlotList(); ok {
			if slots == nil {
				slots = []string{}
			}
			return slots, nil
		}
		return hourlySlots(a.StartTime, a.EndTime), nil
	}
	return []string{}, nil
}

// hourlySlots renders "HH:MM - HH:MM" ranges; a trailing partial hour is dropped.
func hourlySlots(start, end string) []string {
	slots := []string{}
	from, err := time.Parse(clockLayout, strings.TrimSpace(start))
	if err != nil {
		return slots
	}
	to, err := time.Parse(clockLayout, strings.TrimSpace(end))
	if err != nil {
		return slots
	}
	for cur := from; !cur.Add(slotLength).After(to); cur = cur.Add(slotLength) {
		slots = append(slots, cur.Format(clockLayout)+" - "+cur.Add(slotLength).Format(clockLayout))
	}
	return slots
}

// Availability returns the teacher's slots for date.
func (s *TeacherService) Availability(ctx context.Context, teacherID, date string) ([]string, error) {
	if strings.TrimSpace(date) == "" {
		return nil, apperrors.Validation("Date is required")
	}
	teacher, err := s.GetTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher.TeacherProfile == nil {
		return nil, apperrors.NotFound("Teacher not found")
	}
	return SlotsForDate(teacher.TeacherProfile.Availability, date)
}
