// Package stats contains the streak, aggregate and auto-range calculations.
package stats

import (
	"math"
	"time"
)

// DayKeyLayout formats the per-day keys of streak maps and buckets.
const DayKeyLayout = "2006-01-02"

// DayClock maps instants onto calendar days that begin DayStart hours past
// local midnight.
type DayClock struct {
	DayStart int
	Location *time.Location
}

// NewDayClock builds a DayClock; a nil location means time.Local.
func NewDayClock(dayStart int, loc *time.Location) DayClock {
	if loc == nil {
		loc = time.Local
	}
	return DayClock{DayStart: dayStart, Location: loc}
}

func (c DayClock) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Shift moves t back by the day start offset, in the clock's location.
func (c DayClock) Shift(t time.Time) time.Time {
	return t.Add(-time.Duration(c.DayStart) * time.Hour).In(c.loc())
}

// Day returns local midnight of the day t belongs to.
func (c DayClock) Day(t time.Time) time.Time {
	s := c.Shift(t)
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, c.loc())
}

// Midnight truncates a calendar day to local midnight without applying the
// day start.
func (c DayClock) Midnight(day time.Time) time.Time {
	d := day.In(c.loc())
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc())
}

// Key returns the day key of t.
func (c DayClock) Key(t time.Time) string {
	return c.Shift(t).Format(DayKeyLayout)
}

// Boundary returns the instant the given day begins, offset included.
func (c DayClock) Boundary(day time.Time) time.Time {
	d := day.In(c.loc())
	return time.Date(d.Year(), d.Month(), d.Day(), c.DayStart, 0, 0, 0, c.loc())
}

// NextDay advances a local midnight by one calendar day.
func NextDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

// WeekStartISO returns local midnight of the Monday on or before day.
func WeekStartISO(day time.Time) time.Time {
	back := (int(day.Weekday()) + 6) % 7
	return time.Date(day.Year(), day.Month(), day.Day()-back, 0, 0, 0, 0, day.Location())
}

// roundHalfUp rounds x to the nearest integer, halves towards +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
