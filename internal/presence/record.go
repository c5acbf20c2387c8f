package presence

import "time"

// Attendance statuses. A scan only ever produces StatusPresent; the others
// are assigned afterwards by administrator correction.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusExcused = "excused"
	StatusSick    = "sick"
)

// ValidStatus reports whether s is one of the fixed status vocabulary.
func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusExcused, StatusSick:
		return true
	}
	return false
}

// Record is one confirmed presence event. CreatedAt is assigned by the
// database at insert time and anchors the daily duplicate check.
type Record struct {
	ID        string    `json:"id"`
	LectureID string    `json:"lecture_id"`
	DayID     string    `json:"day_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DayWindow returns the [start, end) calendar-date span containing now in
// loc: local midnight to the next midnight.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
