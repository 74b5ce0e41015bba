package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
)

func gridRange() model.ColorRange {
	return model.ColorRange{Stops: []model.ColorStop{
		{Threshold: 0, Color: "#000000"},
		{Threshold: 5, Color: "#555555"},
		{Threshold: 10, Color: "#aaaaaa"},
	}}
}

func TestBuildGridWeekStart(t *testing.T) {
	// 2024-05-01 is a Wednesday.
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	buckets := map[string]model.DayBucket{
		"2024-05-01": {Key: "2024-05-01", Counts: map[string]int{"reviews": 7}},
	}
	g := BuildGrid(GridOptions{From: from, To: to, WeekStart: 1, CountKey: "reviews", Range: gridRange(), Buckets: buckets})
	if g.Labels[0] != "月" || g.Labels[6] != "日" {
		t.Fatalf("unexpected labels: %v", g.Labels)
	}
	if g.Weeks != 3 {
		t.Fatalf("expected 3 weeks, got %d", g.Weeks)
	}
	if g.Rows[0][0].InRange || g.Rows[1][0].InRange {
		t.Fatalf("days before the start must be padding")
	}
	cell := g.Rows[2][0]
	if cell.Key != "2024-05-01" || cell.Count != 7 || cell.Color != "#555555" {
		t.Fatalf("unexpected cell: %+v", cell)
	}
	if last := g.Rows[1][2]; last.Key != "2024-05-14" {
		t.Fatalf("unexpected last cell: %+v", last)
	}
}

func TestRenderGridPlain(t *testing.T) {
	from := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	buckets := map[string]model.DayBucket{
		"2024-05-05": {Counts: map[string]int{"reviews": 11}},
		"2024-05-06": {Counts: map[string]int{"reviews": 1}},
	}
	rng := gridRange()
	g := BuildGrid(GridOptions{From: from, To: to, CountKey: "reviews", Range: rng, Buckets: buckets})
	var buf bytes.Buffer
	if err := RenderGrid(&buf, g, rng, false); err != nil {
		t.Fatalf("RenderGrid: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d", len(lines))
	}
	if lines[0] != "日 ▓" || lines[1] != "月 ░" || lines[2] != "火 ·" {
		t.Fatalf("unexpected grid:\n%s", buf.String())
	}
}

func TestGridWeeksFor(t *testing.T) {
	if got := GridWeeksFor(80); got != 38 {
		t.Fatalf("expected 38 weeks, got %d", got)
	}
	if got := GridWeeksFor(0); got != minGridWeeks {
		t.Fatalf("expected min weeks, got %d", got)
	}
}
