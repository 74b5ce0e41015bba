// Package model defines shared data structures.
package model

import "time"

// Kind names an activity stream.
type Kind string

const (
	KindReviews  Kind = "reviews"
	KindLessons  Kind = "lessons"
	KindForecast Kind = "forecast"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindReviews, KindLessons, KindForecast}

// ReviewRecord is a completed review as delivered by the review cache.
type ReviewRecord struct {
	Timestamp        time.Time
	SubjectID        int64
	SRSStage         int
	IncorrectMeaning int
	IncorrectReading int
	Streak           int
}

// Incorrect returns the total number of wrong answers for the review.
func (r ReviewRecord) Incorrect() int {
	return r.IncorrectMeaning + r.IncorrectReading
}

// AssignmentRecord is the per-subject assignment state.
type AssignmentRecord struct {
	SubjectID   int64
	SubjectType string
	Level       int
	UnlockedAt  time.Time
	StartedAt   *time.Time
	AvailableAt *time.Time
	SRSStage    int
}

// LessonRecord is a started lesson derived from an assignment.
type LessonRecord struct {
	StartedAt  time.Time
	SubjectID  int64
	Level      int
	UnlockedAt time.Time
}

// Subject is the minimal subject metadata used by drill-down breakdowns.
type Subject struct {
	ID    int64
	Type  string
	Level int
}

// Inputs holds every raw record the engine consumes for one recompute.
type Inputs struct {
	Reviews           []ReviewRecord
	Assignments       []AssignmentRecord
	VacationStartedAt *time.Time
}

// CookedEvent is the uniform event shape consumed by grids and drill-down.
type CookedEvent struct {
	Time   time.Time
	Counts map[string]int
	IDs    map[string][]int64
}

// DayBucket merges all events that fall on one calendar day.
type DayBucket struct {
	Day    time.Time
	Key    string
	Counts map[string]int
	IDs    map[string][]int64
}

// Count returns the counter value for key; absent keys count as zero.
func (b DayBucket) Count(key string) int {
	return b.Counts[key]
}

// RangeSummary folds a selected interval into one record.
type RangeSummary struct {
	Start   time.Time
	End     time.Time
	Counts  map[string]int
	IDs     map[string][]int64
	Minimap []CookedEvent
	Hours   [24]int
}

// Period indexes the per-period totals of a StatsRecord.
type Period int

const (
	PeriodAll Period = iota
	PeriodYear
	PeriodMonth
	PeriodWeek
	PeriodToday
	periodCount
)

// PeriodCount is the number of tracked periods.
const PeriodCount = int(periodCount)

// DaysStudied is the number of active days and its share of elapsed days.
type DaysStudied struct {
	Count   int
	Percent int
}

// Average captures the daily averages of a kind.
type Average struct {
	PerDay        int
	PerStudiedDay int
	StdDev        float64
}

// Streak holds the longest and the current streak lengths.
type Streak struct {
	Longest int
	Current int
}

// StatsRecord is the longitudinal summary of one kind.
type StatsRecord struct {
	Kind        Kind
	Totals      [PeriodCount]int
	Minutes     [PeriodCount]float64
	DaysStudied DaysStudied
	Average     Average
	Streak      Streak
	Sessions    int
	Days        int
	MaxDone     int
	Streaks     map[string]int
}

// ColorStop pairs a lower threshold with a hex color.
type ColorStop struct {
	Threshold int
	Color     string
}

// ColorRange is the ascending list of color stops for a kind.
type ColorRange struct {
	Kind      Kind
	Stops     []ColorStop
	Gradient  bool
	AutoRange bool
}

// Clone returns a deep copy of the range.
func (r ColorRange) Clone() ColorRange {
	out := r
	out.Stops = append([]ColorStop(nil), r.Stops...)
	return out
}

// GeneralSettings are the settings shared by every kind.
type GeneralSettings struct {
	StartDate    *time.Time
	WeekStart    int
	DayStart     int
	SessionLimit float64
	Location     *time.Location
	ReverseYears bool
}

// Settings is the resolved configuration the engine runs with.
type Settings struct {
	General          GeneralSettings
	Ranges           map[Kind]ColorRange
	CountIdleLessons bool
	ShowNextYear     int
	LastVisibleYear  map[Kind]int
}

// Range returns a copy of the configured range for kind.
func (s Settings) Range(kind Kind) ColorRange {
	return s.Ranges[kind].Clone()
}
