package conditions

import (
	"testing"
	"time"

	"github.com/kanikamera/agent/src/models"
)

// Mon-Fri 09:00-17:00, weekend closed.
func officeHours() []*models.Timetable {
	week := make([]*models.Timetable, 7)
	for day := time.Monday; day <= time.Friday; day++ {
		week[int(day)] = &models.Timetable{Start1: 9 * 3600, End1: 17 * 3600}
	}
	return week
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		t.Fatalf("bad timestamp in test: %s", err)
	}
	return parsed
}

func TestWithinTimetableOfficeHours(t *testing.T) {
	config := models.Config{Timetable: officeHours()}

	tests := []struct {
		name string
		when string
		want bool
	}{
		{"wednesday morning", "2025-03-12 10:00:00", true},
		{"wednesday evening", "2025-03-12 20:00:00", false},
		{"wednesday before opening", "2025-03-12 08:59:59", false},
		{"wednesday opening second", "2025-03-12 09:00:00", true},
		{"wednesday closing second", "2025-03-12 17:00:00", true},
		{"wednesday just after closing", "2025-03-12 17:00:01", false},
		{"saturday", "2025-03-15 10:00:00", false},
		{"sunday", "2025-03-16 10:00:00", false},
		{"monday midnight", "2025-03-10 00:00:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinTimetable(at(t, tt.when), config); got != tt.want {
				t.Errorf("WithinTimetable(%s) = %v, want %v", tt.when, got, tt.want)
			}
		})
	}
}

func TestWithinTimetableSecondTrack(t *testing.T) {
	week := make([]*models.Timetable, 7)
	week[int(time.Wednesday)] = &models.Timetable{
		Start1: 8 * 3600, End1: 10 * 3600,
		Start2: 14 * 3600, End2: 16 * 3600,
	}
	config := models.Config{Timetable: week}

	if !WithinTimetable(at(t, "2025-03-12 09:00:00"), config) {
		t.Error("expected the first track to allow capture")
	}
	if WithinTimetable(at(t, "2025-03-12 12:00:00"), config) {
		t.Error("expected the gap between tracks to deny capture")
	}
	if !WithinTimetable(at(t, "2025-03-12 15:00:00"), config) {
		t.Error("expected the second track to allow capture")
	}
}

func TestWithinTimetableDisabled(t *testing.T) {
	config := models.Config{Time: "false", Timetable: officeHours()}
	if !WithinTimetable(at(t, "2025-03-16 03:00:00"), config) {
		t.Error("time=false should disable the policy window entirely")
	}
}

func TestWithinTimetableNoTimetable(t *testing.T) {
	config := models.Config{}
	if !WithinTimetable(at(t, "2025-03-16 03:00:00"), config) {
		t.Error("an absent timetable should allow capture at any time")
	}
}
