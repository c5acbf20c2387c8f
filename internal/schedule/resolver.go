package schedule

import (
	"context"
	"fmt"
	"time"
)

// DayNames maps weekday indexes to catalog names, Monday first. It decouples
// date arithmetic from whatever language the administrator seeded the
// catalog in: deployments override the table instead of relying on a locale.
type DayNames [7]string

// DefaultDayNames is the English weekday table.
var DefaultDayNames = DayNames{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ParseDayNames builds a table from a Monday-first list of seven names.
// An empty list yields the default table.
func ParseDayNames(names []string) (DayNames, error) {
	if len(names) == 0 {
		return DefaultDayNames, nil
	}
	if len(names) != 7 {
		return DayNames{}, fmt.Errorf("day names: want 7 entries, got %d", len(names))
	}
	var t DayNames
	copy(t[:], names)
	return t, nil
}

// For returns the catalog name for a weekday.
func (t DayNames) For(wd time.Weekday) string {
	// time.Weekday is Sunday-based; the table is Monday-first.
	return t[(int(wd)+6)%7]
}

// DayFinder is the catalog lookup the resolver needs.
type DayFinder interface {
	FindByName(ctx context.Context, name string) (*Day, error)
}

// Resolver maps a point in time to the schedule day in effect.
type Resolver struct {
	days  DayFinder
	names DayNames
	loc   *time.Location
}

// NewResolver creates a resolver computing dates in loc.
func NewResolver(days DayFinder, names DayNames, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{days: days, names: names, loc: loc}
}

// ResolveToday returns the catalog day matching now's weekday, or nil when
// the administrator has not seeded that weekday.
func (r *Resolver) ResolveToday(ctx context.Context, now time.Time) (*Day, error) {
	name := r.names.For(now.In(r.loc).Weekday())
	return r.days.FindByName(ctx, name)
}
