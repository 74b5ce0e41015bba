package stats

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
)

func aggregate(t *testing.T, events []time.Time, opts Options) (model.StatsRecord, error) {
	t.Helper()
	streaks, err := ComputeStreaks(StreakInput{Events: events, Clock: opts.Clock, Now: opts.Now})
	if err != nil {
		t.Fatalf("ComputeStreaks: %v", err)
	}
	return Aggregate(events, streaks, opts)
}

func TestAggregateSessionsAndMinutes(t *testing.T) {
	base := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	events := []time.Time{
		base,
		base.Add(4 * time.Minute),
		base.Add(30 * time.Minute),
	}
	opts := Options{
		Kind:         model.KindReviews,
		Clock:        NewDayClock(0, time.UTC),
		SessionLimit: 10,
		Now:          base.Add(2 * time.Hour),
	}
	rec, err := aggregate(t, events, opts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if rec.Sessions != 2 {
		t.Fatalf("expected 2 sessions, got %d", rec.Sessions)
	}
	if rec.Minutes[model.PeriodAll] != 4 {
		t.Fatalf("expected 4 minutes, got %v", rec.Minutes[model.PeriodAll])
	}
	for _, p := range []model.Period{model.PeriodAll, model.PeriodYear, model.PeriodMonth, model.PeriodWeek, model.PeriodToday} {
		if rec.Totals[p] != 3 {
			t.Fatalf("expected total 3 for period %d, got %d", p, rec.Totals[p])
		}
	}
	if rec.Days != 1 || rec.DaysStudied.Count != 1 || rec.DaysStudied.Percent != 100 {
		t.Fatalf("unexpected days: %d %+v", rec.Days, rec.DaysStudied)
	}
	if rec.MaxDone != 3 || rec.Average.PerStudiedDay != 3 || rec.Average.StdDev != 0 {
		t.Fatalf("unexpected averages: max %d %+v", rec.MaxDone, rec.Average)
	}
}

func TestAggregatePeriods(t *testing.T) {
	// Wednesday 2024-06-12; the ISO week starts Monday the 10th.
	now := time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)
	events := []time.Time{
		time.Date(2023, 12, 30, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC),
	}
	opts := Options{Clock: NewDayClock(0, time.UTC), SessionLimit: 10, Now: now}
	rec, err := aggregate(t, events, opts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	want := [model.PeriodCount]int{6, 5, 4, 2, 1}
	if rec.Totals != want {
		t.Fatalf("expected totals %v, got %v", want, rec.Totals)
	}
	if rec.Sessions != 6 {
		t.Fatalf("expected 6 sessions, got %d", rec.Sessions)
	}
}

func TestAggregateDeviation(t *testing.T) {
	clock := NewDayClock(0, time.UTC)
	var events []time.Time
	// Day one gets 1 event, day two gets 3.
	events = append(events, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		events = append(events, time.Date(2024, 1, 2, 10, i, 0, 0, time.UTC))
	}
	rec, err := aggregate(t, events, Options{Clock: clock, SessionLimit: 10, Now: time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if rec.Average.PerStudiedDay != 2 || rec.Average.PerDay != 2 {
		t.Fatalf("unexpected averages: %+v", rec.Average)
	}
	if math.Abs(rec.Average.StdDev-1) > 1e-9 {
		t.Fatalf("expected deviation 1, got %v", rec.Average.StdDev)
	}
	if rec.MaxDone != 3 || rec.Days != 2 {
		t.Fatalf("unexpected max %d days %d", rec.MaxDone, rec.Days)
	}
}

func TestAggregateStartDateCutoff(t *testing.T) {
	clock := NewDayClock(0, time.UTC)
	events := []time.Time{
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
	}
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rec, err := aggregate(t, events, Options{Clock: clock, SessionLimit: 10, StartDate: &start, Now: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if rec.Totals[model.PeriodAll] != 1 || rec.DaysStudied.Count != 1 {
		t.Fatalf("expected cutoff to drop the first event: %+v", rec)
	}

	late := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rec, err = aggregate(t, events, Options{Clock: clock, SessionLimit: 10, StartDate: &late, Now: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)})
	if !errors.Is(err, ErrDivisionUndefined) {
		t.Fatalf("expected ErrDivisionUndefined, got %v", err)
	}
	if rec.Average.PerStudiedDay != 0 || rec.Average.StdDev != 0 || rec.Days != 3 {
		t.Fatalf("expected zero averages with a valid record, got %+v", rec)
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil, Streaks{}, Options{Clock: NewDayClock(0, time.UTC)})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestAggregateWithDayStart(t *testing.T) {
	// Wednesday 02:00 still belongs to Tuesday 2024-06-11 with a 04:00 day start.
	now := time.Date(2024, 6, 12, 2, 0, 0, 0, time.UTC)
	events := []time.Time{
		time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC),   // May 31
		time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC),  // Sunday June 9
		time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC),  // Monday
		time.Date(2024, 6, 11, 23, 0, 0, 0, time.UTC), // today
		time.Date(2024, 6, 12, 1, 0, 0, 0, time.UTC),  // today
	}
	cases := []struct {
		name     string
		dayStart int
		totals   [model.PeriodCount]int
		studied  int
		current  int
	}{
		{"shifted", 4, [model.PeriodCount]int{5, 5, 4, 3, 2}, 4, 3},
		{"midnight", 0, [model.PeriodCount]int{5, 5, 5, 4, 1}, 4, 3},
	}
	for _, tc := range cases {
		opts := Options{Clock: NewDayClock(tc.dayStart, time.UTC), SessionLimit: 10, Now: now}
		rec, err := aggregate(t, events, opts)
		if err != nil {
			t.Fatalf("%s: Aggregate: %v", tc.name, err)
		}
		if rec.Totals != tc.totals {
			t.Fatalf("%s: expected totals %v, got %v", tc.name, tc.totals, rec.Totals)
		}
		if rec.DaysStudied.Count != tc.studied {
			t.Fatalf("%s: expected %d studied days, got %d", tc.name, tc.studied, rec.DaysStudied.Count)
		}
		if rec.Streak.Current != tc.current {
			t.Fatalf("%s: expected current streak %d, got %d", tc.name, tc.current, rec.Streak.Current)
		}
	}
}
