// Package cook normalizes raw study records into uniform events and folds
// them into day buckets and range summaries.
package cook

import (
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
)

// Counter keys shared by every kind.
const (
	KeyPass      = "pass"
	KeyIncorrect = "incorrect"
	KeyStreak    = "streak"
)

// CountKey returns the plain event counter of kind, e.g. "reviews".
func CountKey(kind model.Kind) string {
	return string(kind)
}

// IDsKey returns the subject id list key of kind, e.g. "reviews-ids".
func IDsKey(kind model.Kind) string {
	return string(kind) + "-ids"
}

// StageBeforeKey returns the key counting items at stage before answering.
func StageBeforeKey(kind model.Kind, stage int) string {
	return string(kind) + "-srs1-" + strconv.Itoa(stage)
}

// StageAfterKey returns the key counting items at stage after answering.
func StageAfterKey(kind model.Kind, stage int) string {
	return string(kind) + "-srs2-" + strconv.Itoa(stage)
}

// StageAfter estimates the stage a review moved to. Wrong answers drop one
// stage each below stage 5 and two stages each from stage 5 up, never below
// stage 1; a fully correct answer moves up one stage. This is inferred from
// the single review snapshot and not read from any record.
func StageAfter(stage, incorrect int) int {
	penalty := 1
	if stage >= 5 {
		penalty = 2
	}
	next := stage - incorrect*penalty
	if incorrect == 0 {
		next++
	}
	if next < 1 {
		next = 1
	}
	return next
}

// CookReviews turns review records into events.
func CookReviews(records []model.ReviewRecord) []model.CookedEvent {
	out := make([]model.CookedEvent, 0, len(records))
	for _, r := range records {
		incorrect := r.Incorrect()
		pass := 0
		if incorrect == 0 {
			pass = 1
		}
		ev := model.CookedEvent{
			Time: r.Timestamp,
			Counts: map[string]int{
				CountKey(model.KindReviews): 1,
				KeyPass:                     pass,
				KeyIncorrect:                incorrect,
				KeyStreak:                   r.Streak,
			},
			IDs: map[string][]int64{IDsKey(model.KindReviews): {r.SubjectID}},
		}
		ev.Counts[StageBeforeKey(model.KindReviews, r.SRSStage)] = 1
		ev.Counts[StageAfterKey(model.KindReviews, StageAfter(r.SRSStage, incorrect))] = 1
		out = append(out, ev)
	}
	return out
}

// StreakLookup returns the streak length of the day an instant falls on.
type StreakLookup func(t time.Time) int

// CookLessons turns lesson records into events, tagging each with the
// streak length of its day.
func CookLessons(records []model.LessonRecord, streak StreakLookup) []model.CookedEvent {
	out := make([]model.CookedEvent, 0, len(records))
	for _, l := range records {
		s := 0
		if streak != nil {
			s = streak(l.StartedAt)
		}
		out = append(out, model.CookedEvent{
			Time: l.StartedAt,
			Counts: map[string]int{
				CountKey(model.KindLessons): 1,
				KeyStreak:                   s,
			},
			IDs: map[string][]int64{IDsKey(model.KindLessons): {l.SubjectID}},
		})
	}
	return out
}

// CookForecast returns forecast events as they are; they are cooked when
// assignments are split.
func CookForecast(events []model.CookedEvent) []model.CookedEvent {
	return events
}

// SplitAssignments derives the lesson list and the forecast events from
// assignment state.
//
// Started assignments become lessons sorted by start time. Started
// assignments that become available after now become forecast events; while
// a vacation is running their due time is pushed back by its duration.
func SplitAssignments(assignments []model.AssignmentRecord, now time.Time, vacationStartedAt *time.Time) ([]model.LessonRecord, []model.CookedEvent) {
	var offset time.Duration
	if vacationStartedAt != nil && !vacationStartedAt.IsZero() && vacationStartedAt.Before(now) {
		offset = now.Sub(*vacationStartedAt)
	}
	lessons := make([]model.LessonRecord, 0, len(assignments))
	forecast := make([]model.CookedEvent, 0)
	for _, a := range assignments {
		if a.StartedAt == nil {
			continue
		}
		lessons = append(lessons, model.LessonRecord{
			StartedAt:  *a.StartedAt,
			SubjectID:  a.SubjectID,
			Level:      a.Level,
			UnlockedAt: a.UnlockedAt,
		})
		if a.AvailableAt == nil || !a.AvailableAt.After(now) {
			continue
		}
		forecast = append(forecast, model.CookedEvent{
			Time: a.AvailableAt.Add(offset),
			Counts: map[string]int{
				CountKey(model.KindForecast):                 1,
				StageBeforeKey(model.KindForecast, a.SRSStage): 1,
			},
			IDs: map[string][]int64{IDsKey(model.KindForecast): {a.SubjectID}},
		})
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].StartedAt.Before(lessons[j].StartedAt)
	})
	sort.SliceStable(forecast, func(i, j int) bool {
		return forecast[i].Time.Before(forecast[j].Time)
	})
	return lessons, forecast
}

// Times extracts the event instants.
func Times(events []model.CookedEvent) []time.Time {
	out := make([]time.Time, len(events))
	for i, ev := range events {
		out[i] = ev.Time
	}
	return out
}

// ReviewTimes extracts the review instants.
func ReviewTimes(records []model.ReviewRecord) []time.Time {
	out := make([]time.Time, len(records))
	for i, r := range records {
		out[i] = r.Timestamp
	}
	return out
}

// LessonTimes extracts the lesson start instants.
func LessonTimes(records []model.LessonRecord) []time.Time {
	out := make([]time.Time, len(records))
	for i, l := range records {
		out[i] = l.StartedAt
	}
	return out
}
