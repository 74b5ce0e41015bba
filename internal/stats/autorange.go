package stats

import (
	"fmt"

	mstats "github.com/montanaflynn/stats"

	"github.com/verte-zerg/studyheat/internal/model"
)

// Thresholds returns bands-1 quantile thresholds of N(mean, sd), one for
// each i/bands with i = 1..bands-1.
func Thresholds(mean, sd float64, bands int) []int {
	if bands < 2 {
		return nil
	}
	out := make([]int, 0, bands-1)
	for i := 1; i < bands; i++ {
		p := float64(i) / float64(bands)
		out = append(out, int(roundHalfUp(InverseNormalCDF(p, mean, sd))))
	}
	return out
}

// ForecastDistribution groups forecast events by day and returns the mean
// count per day with any forecast and the population deviation around it.
func ForecastDistribution(events []model.CookedEvent, clock DayClock) (mean, sd float64, err error) {
	if len(events) == 0 {
		return 0, 0, ErrEmptyInput
	}
	perDay := make(map[string]int)
	order := make([]string, 0)
	for _, ev := range events {
		key := clock.Key(ev.Time)
		if _, ok := perDay[key]; !ok {
			order = append(order, key)
		}
		perDay[key]++
	}
	counts := make(mstats.Float64Data, 0, len(order))
	for _, key := range order {
		counts = append(counts, float64(perDay[key]))
	}
	mean, err = mstats.Mean(counts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute forecast mean: %w", err)
	}
	sd, err = mstats.StandardDeviationPopulation(counts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute forecast deviation: %w", err)
	}
	return mean, sd, nil
}

// Distribution is the mean and standard deviation fed to the auto-ranger.
type Distribution struct {
	Mean   float64
	StdDev float64
}

// AutoRangeInput lists the configured ranges and the distributions known
// for each kind. A kind without a distribution keeps its thresholds.
type AutoRangeInput struct {
	Ranges        map[model.Kind]model.ColorRange
	Distributions map[model.Kind]Distribution
}

// AutoRange returns new ranges where every auto-ranged kind with a known
// distribution has its thresholds 1..k-1 replaced. The input is not modified.
func AutoRange(in AutoRangeInput) map[model.Kind]model.ColorRange {
	out := make(map[model.Kind]model.ColorRange, len(in.Ranges))
	for kind, rng := range in.Ranges {
		next := rng.Clone()
		dist, ok := in.Distributions[kind]
		if next.AutoRange && ok && len(next.Stops) > 1 {
			for i, th := range Thresholds(dist.Mean, dist.StdDev, len(next.Stops)) {
				next.Stops[i+1].Threshold = th
			}
		}
		out[kind] = next
	}
	return out
}

// StatsDistribution takes the per-studied-day mean and deviation of a record.
func StatsDistribution(rec model.StatsRecord) Distribution {
	return Distribution{
		Mean:   float64(rec.Average.PerStudiedDay),
		StdDev: rec.Average.StdDev,
	}
}
