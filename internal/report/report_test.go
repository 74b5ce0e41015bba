package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/studyheat/internal/cook"
	"github.com/verte-zerg/studyheat/internal/model"
)

func TestFormatMinutes(t *testing.T) {
	cases := map[float64]string{
		0:     "0m",
		12.7:  "12m",
		60:    "1h 0m",
		192.5: "3h 12m",
	}
	for in, want := range cases {
		if got := FormatMinutes(in); got != want {
			t.Fatalf("FormatMinutes(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderStats(t *testing.T) {
	rec := model.StatsRecord{
		Kind:        model.KindReviews,
		Totals:      [model.PeriodCount]int{1500, 400, 120, 30, 12},
		Minutes:     [model.PeriodCount]float64{900, 200, 60, 15, 8},
		DaysStudied: model.DaysStudied{Count: 90, Percent: 75},
		Average:     model.Average{PerDay: 13, PerStudiedDay: 17, StdDev: 4.3},
		Streak:      model.Streak{Longest: 40, Current: 3},
		Sessions:    120,
		Days:        120,
		MaxDone:     88,
	}
	var buf bytes.Buffer
	if err := RenderStats(&buf, rec); err != nil {
		t.Fatalf("RenderStats: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Reviews",
		"Days studied: 75% (90/120)",
		"Done daily: 13 / 17 (±4.3), max 88",
		"Streak: 40 / 3",
		"Sessions: 120",
		"15h 0m",
		"Today",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRangesOrder(t *testing.T) {
	ranges := map[model.Kind]model.ColorRange{
		model.KindForecast: {Kind: model.KindForecast, Stops: []model.ColorStop{{Threshold: 0, Color: "#808080"}}},
		model.KindReviews:  {Kind: model.KindReviews, Gradient: true, AutoRange: true, Stops: []model.ColorStop{{Threshold: 0, Color: "#dae289"}, {Threshold: 12, Color: "#9cc069"}}},
	}
	var buf bytes.Buffer
	if err := RenderRanges(&buf, ranges); err != nil {
		t.Fatalf("RenderRanges: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Reviews (gradient, auto)") > strings.Index(out, "Forecast (stepped)") {
		t.Fatalf("expected reviews before forecast:\n%s", out)
	}
	if !strings.Contains(out, "12 #9cc069") {
		t.Fatalf("missing stop line:\n%s", out)
	}
}

func TestRenderBreakdown(t *testing.T) {
	sum := model.RangeSummary{
		Start:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
		Counts: map[string]int{"reviews": 2, "pass": 1, "incorrect": 1},
	}
	sum.Hours[9] = 2
	d := cook.Breakdown{
		Kind:        model.KindReviews,
		Items:       2,
		NetProgress: -1,
		Groups:      make([]cook.BeforeAfter, len(cook.StageGroups)),
		Pass:        cook.Ratio{Right: 1, Wrong: 1, Accuracy: 50},
		Answers:     cook.Ratio{Right: 4, Wrong: 1, Accuracy: 80},
	}
	var buf bytes.Buffer
	if err := RenderBreakdown(&buf, sum, d); err != nil {
		t.Fatalf("RenderBreakdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Apr 01 2024 - Apr 03 2024: 2 reviews, SRS -1", "Apprentice", "Summary: 1 pass, 1 fail, 50%", "Answers: 4 right, 1 wrong, 80%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9, 0}); got != " @ " {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{0, 0}); got != "  " {
		t.Fatalf("expected blank sparkline, got %q", got)
	}
}
