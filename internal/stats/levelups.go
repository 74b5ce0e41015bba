package stats

import (
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
)

const (
	// MaxLevel is the highest level that can be reached.
	MaxLevel = 60
	// LevelUpMinUnlocks is the number of same-day unlocks that marks a level-up.
	LevelUpMinUnlocks = 20
)

// LevelUps estimates the day each level was reached from unlock clusters.
//
// For every level the unlocks are grouped by day, days with fewer than
// LevelUpMinUnlocks unlocks are discarded and the earliest remaining day
// wins. Index 0 holds level 1; a zero time means the level was not detected.
func LevelUps(lessons []model.LessonRecord, clock DayClock) [MaxLevel]time.Time {
	perLevel := make(map[int]map[string]int)
	days := make(map[string]time.Time)
	for _, l := range lessons {
		if l.Level < 1 || l.Level > MaxLevel || l.UnlockedAt.IsZero() {
			continue
		}
		day := clock.Day(l.UnlockedAt)
		key := day.Format(DayKeyLayout)
		days[key] = day
		if perLevel[l.Level] == nil {
			perLevel[l.Level] = make(map[string]int)
		}
		perLevel[l.Level][key]++
	}

	var out [MaxLevel]time.Time
	for level, counts := range perLevel {
		var best time.Time
		for key, n := range counts {
			if n < LevelUpMinUnlocks {
				continue
			}
			if best.IsZero() || days[key].Before(best) {
				best = days[key]
			}
		}
		out[level-1] = best
	}
	return out
}

// LevelOn returns the level reached on day, or 0 when none was.
func LevelOn(levels [MaxLevel]time.Time, day time.Time) int {
	for i, d := range levels {
		if !d.IsZero() && d.Equal(day) {
			return i + 1
		}
	}
	return 0
}
