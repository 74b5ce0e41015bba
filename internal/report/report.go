// Package report renders stats records, ranges and drill-down summaries as
// plain text for the command line.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/studyheat/internal/cook"
	"github.com/verte-zerg/studyheat/internal/model"
)

const sparkChars = " .:-=+*#%@"

var periodNames = [model.PeriodCount]string{
	model.PeriodAll:   "All time",
	model.PeriodYear:  "This year",
	model.PeriodMonth: "This month",
	model.PeriodWeek:  "This week",
	model.PeriodToday: "Today",
}

// FormatMinutes renders a duration in minutes as "3h 12m" or "12m".
func FormatMinutes(minutes float64) string {
	total := int(math.Floor(minutes))
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// HeadLines returns the header stats shown above a heatmap.
func HeadLines(rec model.StatsRecord) []string {
	return []string{
		fmt.Sprintf("Days studied: %d%% (%d/%d)", rec.DaysStudied.Percent, rec.DaysStudied.Count, rec.Days),
		fmt.Sprintf("Done daily: %d / %d (±%.1f), max %d", rec.Average.PerDay, rec.Average.PerStudiedDay, rec.Average.StdDev, rec.MaxDone),
		fmt.Sprintf("Streak: %d / %d", rec.Streak.Longest, rec.Streak.Current),
	}
}

// FootLines returns the per-period totals table shown below a heatmap.
func FootLines(rec model.StatsRecord) []string {
	rows := make([][]string, 0, model.PeriodCount)
	for p := model.PeriodToday; p >= model.PeriodAll; p-- {
		rows = append(rows, []string{
			periodNames[p],
			strconv.Itoa(rec.Totals[p]),
			FormatMinutes(rec.Minutes[p]),
		})
	}
	lines := formatTable([]string{"Period", title(rec.Kind), "Time"}, rows, map[int]bool{1: true, 2: true})
	return append(lines, fmt.Sprintf("Sessions: %d", rec.Sessions))
}

// RenderStats prints the head and foot stats of a record.
func RenderStats(w io.Writer, rec model.StatsRecord) error {
	if _, err := fmt.Fprintln(w, title(rec.Kind)); err != nil {
		return err
	}
	for _, line := range append(HeadLines(rec), FootLines(rec)...) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderRanges prints the color stops of every kind, in display order.
func RenderRanges(w io.Writer, ranges map[model.Kind]model.ColorRange) error {
	kinds := make([]model.Kind, 0, len(ranges))
	for _, kind := range model.Kinds {
		if _, ok := ranges[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	extra := make([]model.Kind, 0)
	for kind := range ranges {
		if !containsKind(kinds, kind) {
			extra = append(extra, kind)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	kinds = append(kinds, extra...)

	for _, kind := range kinds {
		rng := ranges[kind]
		mode := "stepped"
		if rng.Gradient {
			mode = "gradient"
		}
		if rng.AutoRange {
			mode += ", auto"
		}
		if _, err := fmt.Fprintf(w, "%s (%s)\n", title(kind), mode); err != nil {
			return err
		}
		rows := make([][]string, 0, len(rng.Stops))
		for _, stop := range rng.Stops {
			rows = append(rows, []string{strconv.Itoa(stop.Threshold), stop.Color})
		}
		for _, line := range formatTable(nil, rows, map[int]bool{0: true}) {
			if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderBreakdown prints a range summary and its drill-down breakdown.
func RenderBreakdown(w io.Writer, sum model.RangeSummary, d cook.Breakdown) error {
	sign := "+"
	if d.NetProgress < 0 {
		sign = ""
	}
	header := fmt.Sprintf("%s - %s: %d %s, SRS %s%d",
		sum.Start.Format("Jan 02 2006"), sum.End.Format("Jan 02 2006"),
		d.Items, string(d.Kind), sign, d.NetProgress)
	lines := []string{header, "Hours: [" + Sparkline(hoursToFloat(sum.Hours)) + "]"}

	levelRows := make([][]string, 0, len(d.LevelBlocks))
	for i, n := range d.LevelBlocks {
		levelRows = append(levelRows, []string{fmt.Sprintf("%d-%d", i*10+1, i*10+10), strconv.Itoa(n)})
	}
	lines = append(lines, "Levels")
	lines = append(lines, indent(formatTable(nil, levelRows, map[int]bool{0: true, 1: true}))...)

	stageRows := make([][]string, 0, len(d.Groups))
	for i, g := range cook.StageGroups {
		stageRows = append(stageRows, []string{g.Name, strconv.Itoa(d.Groups[i].Before), strconv.Itoa(d.Groups[i].After)})
	}
	lines = append(lines, "SRS")
	lines = append(lines, indent(formatTable([]string{"", "Before", "After"}, stageRows, map[int]bool{1: true, 2: true}))...)

	lines = append(lines, fmt.Sprintf("Types: %d radicals, %d kanji, %d vocabulary", d.Types.Radicals, d.Types.Kanji, d.Types.Vocabulary))
	if d.Kind == model.KindReviews {
		lines = append(lines,
			fmt.Sprintf("Summary: %d pass, %d fail, %d%%", d.Pass.Right, d.Pass.Wrong, d.Pass.Accuracy),
			fmt.Sprintf("Answers: %d right, %d wrong, %d%%", d.Answers.Right, d.Answers.Wrong, d.Answers.Accuracy),
		)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Sparkline renders a single-line ASCII sparkline scaled from zero to the
// largest value.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if maxVal > 0 {
			idx = int(math.Round(v / maxVal * float64(len(sparkChars)-1)))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func hoursToFloat(hours [24]int) []float64 {
	out := make([]float64, len(hours))
	for i, n := range hours {
		out[i] = float64(n)
	}
	return out
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "  " + line
	}
	return out
}

func title(kind model.Kind) string {
	s := string(kind)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsKind(kinds []model.Kind, kind model.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
