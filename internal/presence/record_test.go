package presence

import (
	"testing"
	"time"
)

func TestDayWindow(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 4, 14, 30, 45, 0, loc)
	start, end := DayWindow(now, loc)

	wantStart := time.Date(2025, 3, 4, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2025, 3, 5, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}

	// A scan later the same day falls inside the same window.
	later := time.Date(2025, 3, 4, 23, 59, 59, 0, loc)
	s2, e2 := DayWindow(later, loc)
	if !s2.Equal(start) || !e2.Equal(end) {
		t.Errorf("later scan window = [%v, %v), want [%v, %v)", s2, e2, start, end)
	}

	// Midnight starts a new window.
	midnight := time.Date(2025, 3, 5, 0, 0, 0, 0, loc)
	s3, _ := DayWindow(midnight, loc)
	if !s3.Equal(end) {
		t.Errorf("midnight window start = %v, want %v", s3, end)
	}
}

func TestDayWindowUsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 01:00 in Jakarta is still the previous day in UTC.
	now := time.Date(2025, 3, 4, 1, 0, 0, 0, jakarta)
	start, _ := DayWindow(now.UTC(), jakarta)
	want := time.Date(2025, 3, 4, 0, 0, 0, 0, jakarta)
	if !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPresent, StatusAbsent, StatusExcused, StatusSick} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"", "late", "PRESENT"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true", s)
		}
	}
}
