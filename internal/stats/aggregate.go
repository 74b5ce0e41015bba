package stats

import (
	"math"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
)

// Options configures Aggregate.
type Options struct {
	Kind  model.Kind
	Clock DayClock
	// SessionLimit is the largest gap, in minutes, that still continues a session.
	SessionLimit float64
	// StartDate drops every event whose day lies before it; nil keeps all.
	StartDate *time.Time
	Now       time.Time
}

// Aggregate computes the longitudinal stats record of one kind.
//
// Events must be sorted ascending. When no event survives the start date
// cutoff the returned record is still filled in, its averages are zero, and
// the error is ErrDivisionUndefined.
func Aggregate(events []time.Time, streaks Streaks, opts Options) (model.StatsRecord, error) {
	if len(events) == 0 {
		return model.StatsRecord{}, ErrEmptyInput
	}
	clock := opts.Clock
	today := clock.Day(opts.Now)
	todayKey := today.Format(DayKeyLayout)
	starts := [model.PeriodCount]time.Time{
		model.PeriodYear:  time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()),
		model.PeriodMonth: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()),
		model.PeriodWeek:  WeekStartISO(today),
	}
	var cutoff time.Time
	if opts.StartDate != nil {
		sd := opts.StartDate.In(clock.loc())
		cutoff = time.Date(sd.Year(), sd.Month(), sd.Day(), 0, 0, 0, 0, clock.loc())
	}

	rec := model.StatsRecord{
		Kind:    opts.Kind,
		Streaks: streaks.ByDay,
		Streak: model.Streak{
			Longest: streaks.Longest,
			Current: streaks.Current,
		},
	}

	var (
		lastKey  string
		lastTime time.Time
		doneDay  int
		doneDays []int
	)
	for _, ev := range events {
		day := clock.Day(ev)
		if !cutoff.IsZero() && day.Before(cutoff) {
			continue
		}
		key := day.Format(DayKeyLayout)
		if key != lastKey {
			rec.DaysStudied.Count++
			if lastKey != "" {
				doneDays = append(doneDays, doneDay)
			}
			doneDay = 0
		}
		doneDay++
		if doneDay > rec.MaxDone {
			rec.MaxDone = doneDay
		}

		minutes := 0.0
		if lastTime.IsZero() {
			rec.Sessions++
		} else {
			minutes = ev.Sub(lastTime).Minutes()
			if minutes > opts.SessionLimit {
				rec.Sessions++
				minutes = 0
			}
		}

		rec.Totals[model.PeriodAll]++
		rec.Minutes[model.PeriodAll] += minutes
		for _, p := range []model.Period{model.PeriodYear, model.PeriodMonth, model.PeriodWeek} {
			if !day.Before(starts[p]) {
				rec.Totals[p]++
				rec.Minutes[p] += minutes
			}
		}
		if key == todayKey {
			rec.Totals[model.PeriodToday]++
			rec.Minutes[model.PeriodToday] += minutes
		}
		lastKey = key
		lastTime = ev
	}
	if lastKey != "" {
		doneDays = append(doneDays, doneDay)
	}

	rec.Days = int(math.Floor(opts.Now.Sub(events[0]).Hours()/24)) + 1
	if rec.Days < 1 {
		rec.Days = 1
	}
	total := float64(rec.Totals[model.PeriodAll])
	rec.DaysStudied.Percent = int(roundHalfUp(float64(rec.DaysStudied.Count) / float64(rec.Days) * 100))
	rec.Average.PerDay = int(roundHalfUp(total / float64(rec.Days)))
	if rec.DaysStudied.Count == 0 {
		return rec, ErrDivisionUndefined
	}
	rec.Average.PerStudiedDay = int(roundHalfUp(total / float64(rec.DaysStudied.Count)))
	rec.Average.StdDev = deviationAround(doneDays, float64(rec.Average.PerStudiedDay))
	return rec, nil
}

// deviationAround is the population standard deviation of values measured
// from center instead of their own mean.
func deviationAround(values []int, center float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := float64(v) - center
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
