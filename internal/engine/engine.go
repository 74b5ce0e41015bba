// Package engine recomputes every derived view of the study timeline and
// keeps the latest result as the current snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verte-zerg/studyheat/internal/cook"
	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/stats"
)

// Source provides the raw records for a reload.
type Source interface {
	LoadInputs(ctx context.Context) (model.Inputs, error)
}

// Snapshot is the complete derived state of one recompute.
type Snapshot struct {
	Now      time.Time
	Settings model.Settings
	Clock    stats.DayClock

	Lessons  []model.LessonRecord
	Events   map[model.Kind][]model.CookedEvent
	Buckets  map[model.Kind][]model.DayBucket
	Days     map[model.Kind]map[string]model.DayBucket
	Stats    map[model.Kind]model.StatsRecord
	Problems map[model.Kind]error
	Subjects map[int64]model.Subject
	LevelUps [stats.MaxLevel]time.Time
	Ranges   map[model.Kind]model.ColorRange
}

// Stat returns the stats record of kind and whether one was computed.
func (s *Snapshot) Stat(kind model.Kind) (model.StatsRecord, bool) {
	rec, ok := s.Stats[kind]
	return rec, ok
}

// Range folds the events of kind between two days into a summary.
func (s *Snapshot) Range(kind model.Kind, from, to time.Time) model.RangeSummary {
	return cook.AggregateRange(s.Events[kind], from, to, s.Clock, s.Now)
}

// Detail folds the range and derives its breakdown.
func (s *Snapshot) Detail(kind model.Kind, from, to time.Time) (model.RangeSummary, cook.Breakdown) {
	sum := s.Range(kind, from, to)
	return sum, cook.Detail(sum, kind, s.Subjects)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine owns the settings and the current snapshot.
type Engine struct {
	settings model.Settings
	now      func() time.Time
	current  atomic.Pointer[Snapshot]
}

// New creates an engine with the given settings.
func New(settings model.Settings, opts ...Option) *Engine {
	e := &Engine{settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the settings the engine runs with.
func (e *Engine) Settings() model.Settings {
	return e.settings
}

// Current returns the last snapshot, or nil before the first reload.
func (e *Engine) Current() *Snapshot {
	return e.current.Load()
}

// Reload loads the inputs from src, recomputes and replaces the current
// snapshot. A failed load keeps the previous snapshot.
func (e *Engine) Reload(ctx context.Context, src Source) (*Snapshot, error) {
	in, err := src.LoadInputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inputs: %w", err)
	}
	snap := e.Recompute(in)
	e.current.Store(snap)
	return snap, nil
}

// Recompute derives a fresh snapshot from the inputs. It does not touch the
// current snapshot.
func (e *Engine) Recompute(in model.Inputs) *Snapshot {
	now := e.now()
	set := e.settings
	clock := stats.NewDayClock(set.General.DayStart, set.General.Location)

	snap := &Snapshot{
		Now:      now,
		Settings: set,
		Clock:    clock,
		Events:   make(map[model.Kind][]model.CookedEvent),
		Buckets:  make(map[model.Kind][]model.DayBucket),
		Days:     make(map[model.Kind]map[string]model.DayBucket),
		Stats:    make(map[model.Kind]model.StatsRecord),
		Problems: make(map[model.Kind]error),
		Subjects: make(map[int64]model.Subject, len(in.Assignments)),
	}
	for _, a := range in.Assignments {
		snap.Subjects[a.SubjectID] = model.Subject{ID: a.SubjectID, Type: a.SubjectType, Level: a.Level}
	}

	reviews := append([]model.ReviewRecord(nil), in.Reviews...)
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Timestamp.Before(reviews[j].Timestamp)
	})
	lessons, forecast := cook.SplitAssignments(in.Assignments, now, in.VacationStartedAt)
	snap.Lessons = lessons

	reviewStreaks := e.kindStats(snap, model.KindReviews, cook.ReviewTimes(reviews), nil)
	for i := range reviews {
		reviews[i].Streak = reviewStreaks.On(clock, reviews[i].Timestamp)
	}
	snap.Events[model.KindReviews] = cook.CookReviews(reviews)

	idle := make([]stats.IdleWindow, 0, len(lessons))
	for _, l := range lessons {
		if l.UnlockedAt.IsZero() {
			continue
		}
		idle = append(idle, stats.IdleWindow{From: l.UnlockedAt, To: l.StartedAt})
	}
	lessonStreaks := e.kindStats(snap, model.KindLessons, cook.LessonTimes(lessons), idle)
	snap.Events[model.KindLessons] = cook.CookLessons(lessons, func(t time.Time) int {
		return lessonStreaks.On(clock, t)
	})
	snap.Events[model.KindForecast] = cook.CookForecast(forecast)

	for _, kind := range model.Kinds {
		buckets := cook.BucketByDay(snap.Events[kind], clock)
		snap.Buckets[kind] = buckets
		snap.Days[kind] = cook.Index(buckets)
	}
	snap.LevelUps = stats.LevelUps(lessons, clock)
	snap.Ranges = e.autoRange(snap, forecast)

	log.Debug().
		Int("reviews", len(reviews)).
		Int("lessons", len(lessons)).
		Int("forecast", len(forecast)).
		Int("problems", len(snap.Problems)).
		Msg("recomputed snapshot")
	return snap
}

func (e *Engine) kindStats(snap *Snapshot, kind model.Kind, events []time.Time, idle []stats.IdleWindow) stats.Streaks {
	set := e.settings
	streaks, err := stats.ComputeStreaks(stats.StreakInput{
		Events:    events,
		Idle:      idle,
		CountIdle: kind == model.KindLessons && set.CountIdleLessons,
		Clock:     snap.Clock,
		Now:       snap.Now,
	})
	if err != nil {
		snap.Problems[kind] = err
		return stats.Streaks{}
	}
	rec, err := stats.Aggregate(events, streaks, stats.Options{
		Kind:         kind,
		Clock:        snap.Clock,
		SessionLimit: set.General.SessionLimit,
		StartDate:    set.General.StartDate,
		Now:          snap.Now,
	})
	if err != nil {
		snap.Problems[kind] = err
		log.Debug().Err(err).Str("kind", string(kind)).Msg("stats incomplete")
		if !errors.Is(err, stats.ErrDivisionUndefined) {
			return streaks
		}
	}
	snap.Stats[kind] = rec
	return streaks
}

func (e *Engine) autoRange(snap *Snapshot, forecast []model.CookedEvent) map[model.Kind]model.ColorRange {
	dists := make(map[model.Kind]stats.Distribution)
	for _, kind := range []model.Kind{model.KindReviews, model.KindLessons} {
		if _, failed := snap.Problems[kind]; failed {
			continue
		}
		if rec, ok := snap.Stats[kind]; ok {
			dists[kind] = stats.StatsDistribution(rec)
		}
	}
	mean, sd, err := stats.ForecastDistribution(forecast, snap.Clock)
	if err != nil {
		snap.Problems[model.KindForecast] = err
	} else {
		dists[model.KindForecast] = stats.Distribution{Mean: mean, StdDev: sd}
	}
	ranges := e.settings.Ranges
	if ranges == nil {
		ranges = map[model.Kind]model.ColorRange{}
	}
	return stats.AutoRange(stats.AutoRangeInput{Ranges: ranges, Distributions: dists})
}
