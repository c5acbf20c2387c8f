package schedule

import (
	"context"
	"testing"
	"time"
)

type fakeFinder map[string]*Day

func (f fakeFinder) FindByName(_ context.Context, name string) (*Day, error) {
	return f[name], nil
}

func TestDayNamesFor(t *testing.T) {
	cases := []struct {
		wd   time.Weekday
		want string
	}{
		{time.Monday, "Monday"},
		{time.Tuesday, "Tuesday"},
		{time.Saturday, "Saturday"},
		{time.Sunday, "Sunday"},
	}
	for _, tc := range cases {
		if got := DefaultDayNames.For(tc.wd); got != tc.want {
			t.Errorf("For(%v) = %q, want %q", tc.wd, got, tc.want)
		}
	}
}

func TestParseDayNames(t *testing.T) {
	names, err := ParseDayNames(nil)
	if err != nil || names != DefaultDayNames {
		t.Errorf("ParseDayNames(nil) = %v, %v; want default table", names, err)
	}

	id := []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}
	names, err = ParseDayNames(id)
	if err != nil {
		t.Fatalf("ParseDayNames failed: %v", err)
	}
	if got := names.For(time.Sunday); got != "Minggu" {
		t.Errorf("For(Sunday) = %q, want Minggu", got)
	}
	if got := names.For(time.Monday); got != "Senin" {
		t.Errorf("For(Monday) = %q, want Senin", got)
	}

	if _, err := ParseDayNames([]string{"Mon", "Tue"}); err == nil {
		t.Error("ParseDayNames accepted a short table")
	}
}

func TestResolveToday(t *testing.T) {
	tuesday := &Day{ID: "day-tue", Name: "Tuesday"}
	r := NewResolver(fakeFinder{"Tuesday": tuesday}, DefaultDayNames, time.UTC)

	// 2025-03-04 is a Tuesday.
	got, err := r.ResolveToday(context.Background(), time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveToday failed: %v", err)
	}
	if got == nil || got.ID != "day-tue" {
		t.Errorf("ResolveToday = %v, want day-tue", got)
	}

	// Wednesday is not seeded.
	got, err = r.ResolveToday(context.Background(), time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveToday failed: %v", err)
	}
	if got != nil {
		t.Errorf("ResolveToday = %v, want nil for unseeded weekday", got)
	}
}

func TestResolveTodayCrossZone(t *testing.T) {
	// 2025-03-04 23:00 UTC is already Wednesday in Jakarta.
	jakarta := time.FixedZone("WIB", 7*3600)
	wednesday := &Day{ID: "day-wed", Name: "Wednesday"}
	r := NewResolver(fakeFinder{"Wednesday": wednesday}, DefaultDayNames, jakarta)

	got, err := r.ResolveToday(context.Background(), time.Date(2025, 3, 4, 23, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveToday failed: %v", err)
	}
	if got == nil || got.ID != "day-wed" {
		t.Errorf("ResolveToday = %v, want day-wed", got)
	}
}
