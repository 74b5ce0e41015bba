package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/studyheat/internal/color"
	"github.com/verte-zerg/studyheat/internal/model"
)

// DateLayout is the layout of start_date.
const DateLayout = "2006-01-02"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	General  GeneralConfig `toml:"general"`
	Reviews  KindConfig    `toml:"reviews"`
	Lessons  KindConfig    `toml:"lessons"`
	Forecast KindConfig    `toml:"forecast"`
	Other    OtherConfig   `toml:"other"`
}

// GeneralConfig maps settings shared by every kind.
type GeneralConfig struct {
	StartDate    *string  `toml:"start_date"`
	WeekStart    *int     `toml:"week_start"`
	DayStart     *int     `toml:"day_start"`
	SessionLimit *float64 `toml:"session_limit"`
	Timezone     *string  `toml:"timezone"`
	ReverseYears *bool    `toml:"reverse_years"`
}

// KindConfig maps the color range settings of one kind.
type KindConfig struct {
	Gradient  *bool        `toml:"gradient"`
	AutoRange *bool        `toml:"auto_range"`
	Colors    []StopConfig `toml:"colors"`
	// CountZeros is read from [lessons] only.
	CountZeros *bool `toml:"count_zeros"`
	// ShowNextYear is read from [forecast] only.
	ShowNextYear *int `toml:"show_next_year"`
}

// StopConfig is one color stop.
type StopConfig struct {
	Threshold int    `toml:"threshold"`
	Color     string `toml:"color"`
}

// OtherConfig holds state remembered between runs.
type OtherConfig struct {
	ReviewsLastVisibleYear *int `toml:"reviews_last_visible_year"`
	LessonsLastVisibleYear *int `toml:"lessons_last_visible_year"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in settings.
func Default() model.Settings {
	green := []model.ColorStop{
		{Threshold: 0, Color: "#dae289"},
		{Threshold: 100, Color: "#9cc069"},
		{Threshold: 200, Color: "#669d45"},
		{Threshold: 300, Color: "#647939"},
		{Threshold: 400, Color: "#3b6427"},
	}
	grey := []model.ColorStop{
		{Threshold: 0, Color: "#808080"},
		{Threshold: 100, Color: "#a0a0a0"},
		{Threshold: 200, Color: "#c0c0c0"},
		{Threshold: 300, Color: "#dfdfdf"},
		{Threshold: 400, Color: "#ffffff"},
	}
	return model.Settings{
		General: model.GeneralSettings{
			SessionLimit: 10,
			Location:     time.Local,
		},
		Ranges: map[model.Kind]model.ColorRange{
			model.KindReviews:  {Kind: model.KindReviews, Stops: green, Gradient: true, AutoRange: true},
			model.KindLessons:  {Kind: model.KindLessons, Stops: append([]model.ColorStop(nil), green...), Gradient: true, AutoRange: true},
			model.KindForecast: {Kind: model.KindForecast, Stops: grey, Gradient: true, AutoRange: true},
		},
		CountIdleLessons: true,
		ShowNextYear:     12,
		LastVisibleYear:  map[model.Kind]int{},
	}
}

// Resolve overlays the file config onto the defaults and validates the result.
func Resolve(fc FileConfig) (model.Settings, error) {
	set := Default()
	g := fc.General
	if g.Timezone != nil && *g.Timezone != "" {
		loc, err := time.LoadLocation(*g.Timezone)
		if err != nil {
			return model.Settings{}, fmt.Errorf("invalid timezone %q: %w", *g.Timezone, err)
		}
		set.General.Location = loc
	}
	if g.StartDate != nil && *g.StartDate != "" {
		start, err := time.ParseInLocation(DateLayout, *g.StartDate, set.General.Location)
		if err != nil {
			return model.Settings{}, fmt.Errorf("invalid start_date %q (expected YYYY-MM-DD)", *g.StartDate)
		}
		set.General.StartDate = &start
	}
	if g.WeekStart != nil {
		set.General.WeekStart = *g.WeekStart
	}
	if g.DayStart != nil {
		set.General.DayStart = *g.DayStart
	}
	if g.SessionLimit != nil {
		set.General.SessionLimit = *g.SessionLimit
	}
	if g.ReverseYears != nil {
		set.General.ReverseYears = *g.ReverseYears
	}
	if err := ValidateGeneral(set.General); err != nil {
		return model.Settings{}, err
	}

	kinds := map[model.Kind]KindConfig{
		model.KindReviews:  fc.Reviews,
		model.KindLessons:  fc.Lessons,
		model.KindForecast: fc.Forecast,
	}
	for kind, kc := range kinds {
		rng, err := applyKindConfig(set.Ranges[kind], kc)
		if err != nil {
			return model.Settings{}, fmt.Errorf("invalid [%s] section: %w", kind, err)
		}
		set.Ranges[kind] = rng
	}
	if fc.Lessons.CountZeros != nil {
		set.CountIdleLessons = *fc.Lessons.CountZeros
	}
	if fc.Forecast.ShowNextYear != nil {
		if *fc.Forecast.ShowNextYear < 0 || *fc.Forecast.ShowNextYear > 12 {
			return model.Settings{}, fmt.Errorf("invalid show_next_year %d (use 0-12)", *fc.Forecast.ShowNextYear)
		}
		set.ShowNextYear = *fc.Forecast.ShowNextYear
	}
	if fc.Other.ReviewsLastVisibleYear != nil {
		set.LastVisibleYear[model.KindReviews] = *fc.Other.ReviewsLastVisibleYear
	}
	if fc.Other.LessonsLastVisibleYear != nil {
		set.LastVisibleYear[model.KindLessons] = *fc.Other.LessonsLastVisibleYear
	}
	return set, nil
}

// ValidateGeneral checks the ranges of the general settings.
func ValidateGeneral(g model.GeneralSettings) error {
	if g.DayStart < 0 || g.DayStart > 23 {
		return fmt.Errorf("invalid day_start %d (use 0-23)", g.DayStart)
	}
	if g.WeekStart < 0 || g.WeekStart > 6 {
		return fmt.Errorf("invalid week_start %d (use 0-6, 0 is Sunday)", g.WeekStart)
	}
	if g.SessionLimit <= 0 {
		return fmt.Errorf("invalid session_limit %v (use minutes > 0)", g.SessionLimit)
	}
	return nil
}

func applyKindConfig(rng model.ColorRange, kc KindConfig) (model.ColorRange, error) {
	if kc.Gradient != nil {
		rng.Gradient = *kc.Gradient
	}
	if kc.AutoRange != nil {
		rng.AutoRange = *kc.AutoRange
	}
	if len(kc.Colors) == 0 {
		return rng, nil
	}
	stops := make([]model.ColorStop, 0, len(kc.Colors))
	for i, c := range kc.Colors {
		if _, err := color.HexToRGB(c.Color); err != nil {
			return model.ColorRange{}, err
		}
		// The first threshold is always 0. Auto ranges may place the second
		// one below it, so ordering is checked from the second stop on.
		if i > 1 && c.Threshold < kc.Colors[i-1].Threshold {
			return model.ColorRange{}, fmt.Errorf("color thresholds must be ascending, got %d after %d", c.Threshold, kc.Colors[i-1].Threshold)
		}
		stops = append(stops, model.ColorStop{Threshold: c.Threshold, Color: c.Color})
	}
	stops[0].Threshold = 0
	rng.Stops = stops
	return rng, nil
}

// Update decodes the file at path, applies fn and writes it back atomically.
// A missing file starts out empty.
func Update(path string, fn func(*FileConfig)) error {
	fc, err := LoadConfig(path)
	if err != nil {
		return err
	}
	fn(&fc)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// SaveRanges persists the thresholds and colors of the given ranges.
func SaveRanges(path string, ranges map[model.Kind]model.ColorRange) error {
	return Update(path, func(fc *FileConfig) {
		for kind, rng := range ranges {
			kc := fc.kind(kind)
			if kc == nil {
				continue
			}
			kc.Colors = make([]StopConfig, 0, len(rng.Stops))
			for _, s := range rng.Stops {
				kc.Colors = append(kc.Colors, StopConfig{Threshold: s.Threshold, Color: s.Color})
			}
		}
	})
}

// SaveLastVisibleYear remembers the last year shown for kind.
func SaveLastVisibleYear(path string, kind model.Kind, year int) error {
	return Update(path, func(fc *FileConfig) {
		switch kind {
		case model.KindReviews:
			fc.Other.ReviewsLastVisibleYear = &year
		case model.KindLessons:
			fc.Other.LessonsLastVisibleYear = &year
		}
	})
}

func (fc *FileConfig) kind(kind model.Kind) *KindConfig {
	switch kind {
	case model.KindReviews:
		return &fc.Reviews
	case model.KindLessons:
		return &fc.Lessons
	case model.KindForecast:
		return &fc.Forecast
	}
	return nil
}
