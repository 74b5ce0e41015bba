package cook

import (
	"sort"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/stats"
)

// BucketByDay merges events into one bucket per day, sorted by day. Only
// days with at least one event get a bucket and zero counters are dropped.
func BucketByDay(events []model.CookedEvent, clock stats.DayClock) []model.DayBucket {
	index := make(map[string]int)
	buckets := make([]model.DayBucket, 0)
	for _, ev := range events {
		key := clock.Key(ev.Time)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, model.DayBucket{
				Day:    clock.Day(ev.Time),
				Key:    key,
				Counts: make(map[string]int),
				IDs:    make(map[string][]int64),
			})
		}
		fold(buckets[i].Counts, buckets[i].IDs, ev)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Day.Before(buckets[j].Day)
	})
	return buckets
}

// ShiftToHours maps events onto the day of anchor, keeping only their local
// hour. The result feeds the single-day minimap.
func ShiftToHours(events []model.CookedEvent, anchor time.Time, loc *time.Location) []model.CookedEvent {
	if loc == nil {
		loc = time.Local
	}
	a := anchor.In(loc)
	base := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
	out := make([]model.CookedEvent, 0, len(events))
	for _, ev := range events {
		shifted := ev
		shifted.Time = base.Add(time.Duration(ev.Time.In(loc).Hour()) * time.Hour)
		out = append(out, shifted)
	}
	return out
}

// Index returns the buckets keyed by day key.
func Index(buckets []model.DayBucket) map[string]model.DayBucket {
	out := make(map[string]model.DayBucket, len(buckets))
	for _, b := range buckets {
		out[b.Key] = b
	}
	return out
}

func fold(counts map[string]int, ids map[string][]int64, ev model.CookedEvent) {
	for key, v := range ev.Counts {
		if v == 0 {
			continue
		}
		counts[key] += v
	}
	for key, list := range ev.IDs {
		ids[key] = append(ids[key], list...)
	}
}
