// Package statsui provides the Bubble Tea heatmap viewer.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/verte-zerg/studyheat/internal/color"
	"github.com/verte-zerg/studyheat/internal/cook"
	"github.com/verte-zerg/studyheat/internal/engine"
	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/report"
	"github.com/verte-zerg/studyheat/internal/stats"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#9CC069"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	yearStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true)
	emptyCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	detailStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#647939"))
)

const (
	cellGlyph    = "■"
	levelUpGlyph = "◆"
)

// Options wires the viewer to its data and persistence.
type Options struct {
	Engine *engine.Engine
	Source engine.Source
	// SaveRanges persists auto-ranged thresholds after every reload.
	SaveRanges func(map[model.Kind]model.ColorRange) error
	// SaveLastVisibleYear remembers the oldest year shown for a kind.
	SaveLastVisibleYear func(model.Kind, int) error
}

type reloadMsg struct {
	snap *engine.Snapshot
	err  error
}

// Model implements the Bubble Tea heatmap viewer.
type Model struct {
	opts Options
	snap *engine.Snapshot

	tabs      []model.Kind
	activeTab int
	viewport  viewport.Model
	keys      keyMap
	help      help.Model

	width  int
	height int

	cursor   time.Time
	mark     *time.Time
	lastYear map[model.Kind]int

	loading bool
	errMsg  string
}

// NewModel constructs the viewer. The first snapshot is loaded by Init.
func NewModel(opts Options) *Model {
	m := &Model{
		opts:     opts,
		tabs:     []model.Kind{model.KindReviews, model.KindLessons},
		viewport: viewport.New(0, 0),
		keys:     defaultKeyMap(),
		help:     help.New(),
		lastYear: make(map[model.Kind]int),
	}
	if opts.Engine != nil {
		m.snap = opts.Engine.Current()
		for kind, year := range opts.Engine.Settings().LastVisibleYear {
			m.lastYear[kind] = year
		}
	}
	m.resetCursor()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.snap != nil {
		return nil
	}
	return m.reload()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateLayout()
		m.renderContent()
		return m, nil
	case reloadMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.snap = msg.snap
		m.resetCursor()
		m.persistRanges()
		m.renderContent()
		return m, nil
	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.updateLayout()
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		if m.loading {
			return m, nil
		}
		return m, m.reload()
	case key.Matches(msg, m.keys.Tab):
		m.activeTab = (m.activeTab + 1) % len(m.tabs)
		m.mark = nil
	case key.Matches(msg, m.keys.PrevDay):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.NextDay):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PrevWeek):
		m.moveCursor(-7)
	case key.Matches(msg, m.keys.NextWeek):
		m.moveCursor(7)
	case key.Matches(msg, m.keys.Mark):
		if m.mark != nil {
			m.mark = nil
		} else {
			day := m.cursor
			m.mark = &day
		}
	case key.Matches(msg, m.keys.Clear):
		m.mark = nil
	case key.Matches(msg, m.keys.Older):
		m.shiftVisibleYears(-1)
	case key.Matches(msg, m.keys.Newer):
		m.shiftVisibleYears(1)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.renderContent()
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	body := fitLines(m.viewport.View(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	eng, src := m.opts.Engine, m.opts.Source
	return func() tea.Msg {
		if eng == nil || src == nil {
			return reloadMsg{err: fmt.Errorf("no data source configured")}
		}
		snap, err := eng.Reload(context.Background(), src)
		return reloadMsg{snap: snap, err: err}
	}
}

func (m *Model) persistRanges() {
	if m.opts.SaveRanges == nil || m.snap == nil {
		return
	}
	if err := m.opts.SaveRanges(m.snap.Ranges); err != nil {
		log.Warn().Err(err).Msg("failed to save color ranges")
		m.errMsg = fmt.Sprintf("failed to save ranges: %v", err)
	}
}

func (m *Model) kind() model.Kind {
	return m.tabs[m.activeTab]
}

func (m *Model) resetCursor() {
	if m.snap == nil {
		return
	}
	if m.cursor.IsZero() {
		m.cursor = m.snap.Clock.Day(m.snap.Now)
	}
}

func (m *Model) moveCursor(days int) {
	if m.snap == nil {
		return
	}
	next := time.Date(m.cursor.Year(), m.cursor.Month(), m.cursor.Day()+days, 0, 0, 0, 0, m.cursor.Location())
	years := m.visibleYears(m.kind())
	if len(years) > 0 {
		lo, hi := years[0], years[len(years)-1]
		if lo > hi {
			lo, hi = hi, lo
		}
		if next.Year() < lo || next.Year() > hi {
			return
		}
	}
	m.cursor = next
}

func (m *Model) shiftVisibleYears(delta int) {
	if m.snap == nil {
		return
	}
	kind := m.kind()
	first, last := m.yearSpan(kind)
	current := m.lastYear[kind]
	if current == 0 || current < first {
		current = first
	}
	next := current + delta
	if next < first {
		next = first
	}
	if next > last {
		next = last
	}
	if next == m.lastYear[kind] {
		return
	}
	m.lastYear[kind] = next
	if m.cursor.Year() < next {
		m.cursor = time.Date(next, time.January, 1, 0, 0, 0, 0, m.cursor.Location())
	}
	if m.opts.SaveLastVisibleYear != nil {
		if err := m.opts.SaveLastVisibleYear(kind, next); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("failed to save visible year")
		}
	}
}

// yearSpan returns the first year with data and the last year to draw.
func (m *Model) yearSpan(kind model.Kind) (int, int) {
	now := m.snap.Clock.Day(m.snap.Now)
	first, last := now.Year(), now.Year()
	if buckets := m.snap.Buckets[kind]; len(buckets) > 0 && buckets[0].Day.Year() < first {
		first = buckets[0].Day.Year()
	}
	if kind == model.KindReviews && len(m.snap.Buckets[model.KindForecast]) > 0 {
		if 12-int(now.Month()) < m.snap.Settings.ShowNextYear {
			last++
		}
	}
	return first, last
}

// visibleYears lists the drawn years in display order.
func (m *Model) visibleYears(kind model.Kind) []int {
	first, last := m.yearSpan(kind)
	if y := m.lastYear[kind]; y > first && y <= last {
		first = y
	}
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	if m.snap.Settings.General.ReverseYears {
		for i, j := 0, len(years)-1; i < j; i, j = i+1, j-1 {
			years[i], years[j] = years[j], years[i]
		}
	}
	return years
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = lipgloss.Height(activeNavStyle.Render("X"))
	if headerHeight < 1 {
		headerHeight = 1
	}
	footerHeight = lipgloss.Height(m.help.View(m.keys))
	if m.errMsg != "" || m.loading {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, kind := range m.tabs {
		label := strings.ToUpper(string(kind[:1])) + string(kind[1:])
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFooter() string {
	lines := []string{m.help.View(m.keys)}
	switch {
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render(m.errMsg))
	case m.loading:
		lines = append(lines, headerStyle.Render("Loading..."))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderContent() {
	m.viewport.SetContent(m.content())
}

func (m *Model) content() string {
	if m.snap == nil {
		return "Loading..."
	}
	kind := m.kind()
	sections := make([]string, 0, 8)
	rec, ok := m.snap.Stat(kind)
	if ok {
		sections = append(sections, renderCards(rec, m.width))
	} else if err := m.snap.Problems[kind]; err != nil {
		sections = append(sections, headerStyle.Render(fmt.Sprintf("No %s to show: %v", kind, err)))
	}
	for _, year := range m.visibleYears(kind) {
		sections = append(sections, m.renderYear(kind, year))
	}
	if ok {
		sections = append(sections, strings.Join(report.FootLines(rec), "\n"))
	}
	sections = append(sections, m.renderSelection(kind))
	return strings.Join(sections, "\n\n")
}

func renderCards(rec model.StatsRecord, width int) string {
	cards := []string{
		metricCard("Days studied", fmt.Sprintf("%d%%", rec.DaysStudied.Percent), fmt.Sprintf("%d / %d", rec.DaysStudied.Count, rec.Days)),
		metricCard("Done daily", fmt.Sprintf("%d / %d", rec.Average.PerDay, rec.Average.PerStudiedDay), fmt.Sprintf("±%.1f, max %d", rec.Average.StdDev, rec.MaxDone)),
		metricCard("Streak", fmt.Sprintf("%d / %d", rec.Streak.Longest, rec.Streak.Current), "longest / current"),
	}
	if width > 0 && width < 60 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value, note string) string {
	content := fmt.Sprintf("%s\n%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value), headerStyle.Render(note))
	return cardStyle.Render(content)
}

func (m *Model) renderYear(kind model.Kind, year int) string {
	loc := m.snap.Clock.Location
	if loc == nil {
		loc = time.Local
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)
	g := report.BuildGrid(report.GridOptions{
		From:      from,
		To:        to,
		WeekStart: m.snap.Settings.General.WeekStart,
		CountKey:  cook.CountKey(kind),
		Range:     m.snap.Ranges[kind],
		Buckets:   m.snap.Days[kind],
	})
	today := m.snap.Clock.Day(m.snap.Now)
	selFrom, selTo := m.selection()

	total := 0
	for _, row := range g.Rows {
		for _, cell := range row {
			total += cell.Count
		}
	}
	lines := []string{yearStyle.Render(fmt.Sprintf("%d", year)) + headerStyle.Render(fmt.Sprintf("  %d %s", total, kind))}
	lines = append(lines, "   "+monthLabels(g))
	for r := 0; r < 7; r++ {
		var b strings.Builder
		b.WriteString(headerStyle.Render(g.Labels[r]))
		b.WriteByte(' ')
		for _, cell := range g.Rows[r] {
			b.WriteString(m.renderCell(kind, cell, today, selFrom, selTo))
			b.WriteByte(' ')
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderCell(kind model.Kind, cell report.GridCell, today, selFrom, selTo time.Time) string {
	if !cell.InRange {
		return " "
	}
	count, hex := cell.Count, cell.Color
	if kind == model.KindReviews && cell.Day.After(today) {
		count = m.snap.Days[model.KindForecast][cell.Key].Count(cook.CountKey(model.KindForecast))
		hex = color.Pick(float64(count), m.snap.Ranges[model.KindForecast])
	}
	glyph := cellGlyph
	if kind == model.KindLessons && stats.LevelOn(m.snap.LevelUps, cell.Day) > 0 {
		glyph = levelUpGlyph
	}
	style := emptyCellStyle
	if count > 0 && hex != "" {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	if !selFrom.IsZero() && !cell.Day.Before(selFrom) && !cell.Day.After(selTo) {
		style = style.Underline(true)
	}
	if cell.Day.Equal(m.cursor) {
		style = style.Reverse(true)
	}
	return style.Render(glyph)
}

func monthLabels(g report.Grid) string {
	cols := make([]rune, g.Weeks*2)
	for i := range cols {
		cols[i] = ' '
	}
	for r := 0; r < 7; r++ {
		for w, cell := range g.Rows[r] {
			if !cell.InRange || cell.Day.Day() != 1 {
				continue
			}
			label := []rune(cell.Day.Format("Jan"))
			for i, ch := range label {
				if pos := w*2 + i; pos < len(cols) {
					cols[pos] = ch
				}
			}
		}
	}
	return strings.TrimRight(string(cols), " ")
}

// selection returns the marked day range in order, or zero times.
func (m *Model) selection() (time.Time, time.Time) {
	if m.mark == nil {
		return time.Time{}, time.Time{}
	}
	a, b := *m.mark, m.cursor
	if b.Before(a) {
		a, b = b, a
	}
	return a, b
}

// rangeKind is the kind drill-down reads for the selection; future review
// days show the forecast.
func (m *Model) rangeKind(kind model.Kind, from time.Time) model.Kind {
	if kind == model.KindReviews && from.After(m.snap.Clock.Day(m.snap.Now)) {
		return model.KindForecast
	}
	return kind
}

func (m *Model) renderSelection(kind model.Kind) string {
	from, to := m.selection()
	if from.IsZero() {
		from, to = m.cursor, m.cursor
	}
	rk := m.rangeKind(kind, from)
	sum, d := m.snap.Detail(rk, from, to)
	title := dayTitle(from)
	if !to.Equal(from) {
		title += " - " + dayTitle(to)
	}
	if d.Items == 0 {
		return detailStyle.Render(fmt.Sprintf("%s\nNo %s", title, rk))
	}
	var buf bytes.Buffer
	if err := report.RenderBreakdown(&buf, sum, d); err != nil {
		return errorStyle.Render(fmt.Sprintf("Failed to render selection: %v", err))
	}
	return detailStyle.Render(title + "\n" + strings.TrimRight(buf.String(), "\n"))
}

func dayTitle(day time.Time) string {
	return day.Format("Jan 02 2006") + " " + report.KanjiDays[day.Weekday()]
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
