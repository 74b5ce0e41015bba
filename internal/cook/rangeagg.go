package cook

import (
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/stats"
)

// AggregateRange folds every event strictly inside the selected day range
// into one summary. The endpoints may be given in either order. Both are
// calendar days as used by the grid and the day buckets, not instants; the
// range runs from the start of the first day to the start of the day after
// the last one, with day boundaries moved by the day start.
func AggregateRange(events []model.CookedEvent, a, b time.Time, clock stats.DayClock, now time.Time) model.RangeSummary {
	startDay := clock.Midnight(a)
	endDay := clock.Midnight(b)
	if endDay.Before(startDay) {
		startDay, endDay = endDay, startDay
	}
	from := clock.Boundary(startDay)
	to := clock.Boundary(stats.NextDay(endDay))

	inside := make([]model.CookedEvent, 0)
	for _, ev := range events {
		if ev.Time.After(from) && ev.Time.Before(to) {
			inside = append(inside, ev)
		}
	}

	sum := model.RangeSummary{
		Start:   startDay,
		End:     endDay,
		Counts:  make(map[string]int),
		IDs:     make(map[string][]int64),
		Minimap: ShiftToHours(inside, now, clock.Location),
	}
	for _, ev := range sum.Minimap {
		fold(sum.Counts, sum.IDs, ev)
		sum.Hours[ev.Time.Hour()]++
	}
	return sum
}
