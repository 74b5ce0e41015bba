package stats

import "time"

// IdleWindow is the span during which an item waited between unlock and
// lesson start.
type IdleWindow struct {
	From time.Time
	To   time.Time
}

// StreakInput carries everything the streak walk needs.
type StreakInput struct {
	// Events must be sorted ascending.
	Events []time.Time
	// Idle windows only matter when CountIdle is set.
	Idle      []IdleWindow
	CountIdle bool
	Clock     DayClock
	Now       time.Time
}

// Streaks is the per-day running streak counter of one kind.
type Streaks struct {
	ByDay   map[string]int
	First   time.Time
	Today   string
	Longest int
	Current int
}

// On returns the streak length stored for the day of t; days outside the
// walked range count as zero.
func (s Streaks) On(clock DayClock, t time.Time) int {
	return s.ByDay[clock.Key(t)]
}

// ComputeStreaks walks every day from the first event to today and stores
// the running streak length for each of them.
func ComputeStreaks(in StreakInput) (Streaks, error) {
	if len(in.Events) == 0 {
		return Streaks{}, ErrEmptyInput
	}
	clock := in.Clock
	first := clock.Day(in.Events[0])
	today := clock.Day(in.Now)
	if first.After(today) {
		first = today
	}
	todayKey := today.Format(DayKeyLayout)

	active := make(map[string]bool)
	for _, ev := range in.Events {
		active[clock.Key(ev)] = true
	}
	active[todayKey] = true

	if in.CountIdle {
		waiting := make(map[string]bool)
		for _, w := range in.Idle {
			from := clock.Day(w.From)
			to := clock.Day(w.To)
			if from.Before(first) {
				from = first
			}
			for d := from; !d.After(to) && !d.After(today); d = NextDay(d) {
				waiting[d.Format(DayKeyLayout)] = true
			}
		}
		for d := first; !d.After(today); d = NextDay(d) {
			key := d.Format(DayKeyLayout)
			if !waiting[key] {
				active[key] = true
			}
		}
	}

	out := Streaks{
		ByDay: make(map[string]int),
		First: first,
		Today: todayKey,
	}
	run := 0
	for d := first; !d.After(today); d = NextDay(d) {
		key := d.Format(DayKeyLayout)
		if active[key] {
			run++
		} else {
			run = 0
		}
		out.ByDay[key] = run
		if run > out.Longest {
			out.Longest = run
		}
	}
	out.Current = out.ByDay[todayKey]
	return out, nil
}
