package color

import "github.com/verte-zerg/studyheat/internal/model"

// Pick returns the color a count maps to under rng.
//
// Stepped ranges use the color of the highest threshold not above count.
// Gradient ranges blend between the two stops around count and saturate at
// the top stop. Counts below every threshold get the lowest color.
func Pick(count float64, rng model.ColorRange) string {
	stops := rng.Stops
	if len(stops) == 0 {
		return ""
	}
	th := thresholds(stops)
	top := len(stops) - 1
	if !rng.Gradient {
		return stops[Band(count, rng)].Color
	}
	if count >= th[top] {
		return stops[top].Color
	}
	for i := top - 1; i >= 0; i-- {
		if count < th[i] {
			continue
		}
		span := th[i+1] - th[i]
		if span <= 0 {
			return stops[i].Color
		}
		blended, err := Interpolate(stops[i].Color, stops[i+1].Color, (count-th[i])/span)
		if err != nil {
			return stops[i].Color
		}
		return blended
	}
	return stops[0].Color
}

// Band returns the index of the highest stop whose threshold is not above
// count, or 0.
func Band(count float64, rng model.ColorRange) int {
	th := thresholds(rng.Stops)
	for i := len(th) - 1; i >= 0; i-- {
		if count >= th[i] {
			return i
		}
	}
	return 0
}

// thresholds returns the effective stop thresholds. Auto-ranged stops can
// come out below an earlier stop, even negative; each one is raised to the
// largest threshold before it so the bands stay ordered.
func thresholds(stops []model.ColorStop) []float64 {
	out := make([]float64, len(stops))
	for i, s := range stops {
		out[i] = float64(s.Threshold)
		if i > 0 && out[i] < out[i-1] {
			out[i] = out[i-1]
		}
	}
	return out
}
