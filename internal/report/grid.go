package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/studyheat/internal/color"
	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/stats"
)

const (
	terminalWidthBackup = 80
	minGridWeeks        = 4
	cellWidth           = 2
)

// KanjiDays are the weekday labels, Sunday first.
var KanjiDays = [7]string{"日", "月", "火", "水", "木", "金", "土"}

var bandGlyphs = []string{"·", "░", "▒", "▓", "█"}

// GridCell is one day of a heatmap grid.
type GridCell struct {
	Day     time.Time
	Key     string
	Count   int
	Color   string
	InRange bool
}

// Grid is a calendar grid with one row per weekday and one column per week.
type Grid struct {
	Rows   [7][]GridCell
	Labels [7]string
	Weeks  int
}

// GridOptions configures BuildGrid.
type GridOptions struct {
	From, To  time.Time
	WeekStart int
	CountKey  string
	Range     model.ColorRange
	Buckets   map[string]model.DayBucket
	// Scale multiplies counts before picking a color.
	Scale float64
}

// BuildGrid lays out the days between From and To, both local midnights, in
// week columns whose first row is WeekStart.
func BuildGrid(opts GridOptions) Grid {
	from, to := opts.From, opts.To
	if to.Before(from) {
		from, to = to, from
	}
	weekStart := ((opts.WeekStart % 7) + 7) % 7
	back := (int(from.Weekday()) - weekStart + 7) % 7
	first := time.Date(from.Year(), from.Month(), from.Day()-back, 0, 0, 0, 0, from.Location())
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	var g Grid
	for r := 0; r < 7; r++ {
		g.Labels[r] = KanjiDays[(weekStart+r)%7]
	}
	for d, i := first, 0; !d.After(to); d, i = stats.NextDay(d), i+1 {
		key := d.Format(stats.DayKeyLayout)
		cell := GridCell{
			Day:     d,
			Key:     key,
			InRange: !d.Before(from),
		}
		if cell.InRange {
			cell.Count = opts.Buckets[key].Count(opts.CountKey)
			cell.Color = color.Pick(float64(cell.Count)*scale, opts.Range)
		}
		row := i % 7
		g.Rows[row] = append(g.Rows[row], cell)
		if row == 0 {
			g.Weeks++
		}
	}
	return g
}

// Glyph returns the plain text glyph of a cell.
func Glyph(cell GridCell, rng model.ColorRange, scale float64) string {
	if !cell.InRange {
		return " "
	}
	if cell.Count == 0 {
		return bandGlyphs[0]
	}
	if scale == 0 {
		scale = 1
	}
	idx := color.Band(float64(cell.Count)*scale, rng) + 1
	if idx >= len(bandGlyphs) {
		idx = len(bandGlyphs) - 1
	}
	return bandGlyphs[idx]
}

// RenderGrid prints the grid with weekday labels. With useColor cells are
// painted with their range color; otherwise band glyphs are used.
func RenderGrid(w io.Writer, g Grid, rng model.ColorRange, useColor bool) error {
	labelWidth := 0
	for _, l := range g.Labels {
		if n := runewidth.StringWidth(l); n > labelWidth {
			labelWidth = n
		}
	}
	for r := 0; r < 7; r++ {
		var b strings.Builder
		b.WriteString(runewidth.FillRight(g.Labels[r], labelWidth))
		b.WriteByte(' ')
		for _, cell := range g.Rows[r] {
			switch {
			case useColor && cell.InRange && cell.Color != "":
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(cell.Color)).Render("■"))
			case useColor && cell.InRange:
				b.WriteString("■")
			default:
				b.WriteString(Glyph(cell, rng, 1))
			}
			b.WriteByte(' ')
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

// GridWeeksFor computes how many week columns fit within the total width.
func GridWeeksFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minGridWeeks
	}
	weeks := (totalWidth - 3) / cellWidth
	if weeks < minGridWeeks {
		weeks = minGridWeeks
	}
	return weeks
}

// AutoGridWeeks sizes the grid to the terminal on stdout.
func AutoGridWeeks() int {
	return GridWeeksFor(terminalWidth())
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
