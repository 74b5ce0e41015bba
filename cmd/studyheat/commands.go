package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studyheat/internal/config"
	"github.com/verte-zerg/studyheat/internal/cook"
	"github.com/verte-zerg/studyheat/internal/engine"
	"github.com/verte-zerg/studyheat/internal/ingest"
	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/report"
)

var (
	importReviews     string
	importAssignments string
	importVacation    string
	importNoVacation  bool

	statsKind string
	statsGrid bool

	rangesSave bool

	rangeFrom string
	rangeTo   string
	rangeKind string

	reloadClear   bool
	reloadReviews string
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import reviews and assignments from JSONL files",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importReviews, "reviews", "", "reviews JSONL file")
	cmd.Flags().StringVar(&importAssignments, "assignments", "", "assignments JSONL file")
	cmd.Flags().StringVar(&importVacation, "vacation", "", "vacation start (RFC3339)")
	cmd.Flags().BoolVar(&importNoVacation, "no-vacation", false, "clear the vacation start")
	return cmd
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	if importReviews == "" && importAssignments == "" && importVacation == "" && !importNoVacation {
		return fmt.Errorf("nothing to import: use --reviews, --assignments or --vacation")
	}
	if importVacation != "" && importNoVacation {
		return fmt.Errorf("--vacation and --no-vacation are mutually exclusive")
	}
	paths := resolvePaths(cmd)
	st, err := openStore(paths.DB)
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if importReviews != "" {
		reviews, res, err := ingest.ReadReviewsFile(importReviews)
		if err != nil {
			return err
		}
		added, err := st.InsertReviews(ctx, reviews)
		if err != nil {
			return err
		}
		log.Info().Str("file", importReviews).Int("lines", res.Lines).Int("skipped", res.Skipped).Int("added", added).Msg("reviews imported")
		if err := writef(out, "Reviews: %d read, %d new, %d skipped\n", len(reviews), added, res.Skipped); err != nil {
			return err
		}
	}
	if importAssignments != "" {
		assignments, res, err := ingest.ReadAssignmentsFile(importAssignments)
		if err != nil {
			return err
		}
		if err := st.UpsertAssignments(ctx, assignments); err != nil {
			return err
		}
		log.Info().Str("file", importAssignments).Int("lines", res.Lines).Int("skipped", res.Skipped).Msg("assignments imported")
		if err := writef(out, "Assignments: %d read, %d skipped\n", len(assignments), res.Skipped); err != nil {
			return err
		}
	}
	switch {
	case importVacation != "":
		at, err := time.Parse(time.RFC3339, importVacation)
		if err != nil {
			return fmt.Errorf("invalid --vacation value: %w", err)
		}
		if err := st.SetVacationStartedAt(ctx, &at); err != nil {
			return err
		}
	case importNoVacation:
		if err := st.SetVacationStartedAt(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsKind, "kind", "", "reviews or lessons (default: both)")
	cmd.Flags().BoolVar(&statsGrid, "grid", false, "print a heatmap of recent weeks")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	kinds := []model.Kind{model.KindReviews, model.KindLessons}
	if statsKind != "" {
		kind, err := parseKind(statsKind)
		if err != nil {
			return err
		}
		kinds = []model.Kind{kind}
	}
	snap, _, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, kind := range kinds {
		if i > 0 {
			if err := writef(out, "\n"); err != nil {
				return err
			}
		}
		rec, ok := snap.Stat(kind)
		if !ok {
			if err := writef(out, "No %s: %v\n", kind, snap.Problems[kind]); err != nil {
				return err
			}
			continue
		}
		if err := report.RenderStats(out, rec); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if statsGrid {
			if err := writeRecentGrid(out, snap, kind); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRecentGrid(w io.Writer, snap *engine.Snapshot, kind model.Kind) error {
	today := snap.Clock.Day(snap.Now)
	weeks := report.AutoGridWeeks()
	from := time.Date(today.Year(), today.Month(), today.Day()-weeks*7+1, 0, 0, 0, 0, today.Location())
	g := report.BuildGrid(report.GridOptions{
		From:      from,
		To:        today,
		WeekStart: snap.Settings.General.WeekStart,
		CountKey:  cook.CountKey(kind),
		Range:     snap.Ranges[kind],
		Buckets:   snap.Days[kind],
	})
	if err := writef(w, "\n"); err != nil {
		return err
	}
	if err := report.RenderGrid(w, g, snap.Ranges[kind], report.ShouldUseColor(w)); err != nil {
		return fmt.Errorf("failed to write grid: %w", err)
	}
	return nil
}

func newRangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ranges",
		Short: "Print computed color ranges",
		Args:  cobra.NoArgs,
		RunE:  runRangesCmd,
	}
	cmd.Flags().BoolVar(&rangesSave, "save", false, "write auto-ranged thresholds to the config file")
	return cmd
}

func runRangesCmd(cmd *cobra.Command, _ []string) error {
	snap, paths, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	for kind, problem := range snap.Problems {
		log.Debug().Str("kind", string(kind)).Err(problem).Msg("range kept as configured")
	}
	if err := report.RenderRanges(cmd.OutOrStdout(), snap.Ranges); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !rangesSave {
		return nil
	}
	if err := config.SaveRanges(paths.Config, snap.Ranges); err != nil {
		return fmt.Errorf("failed to save ranges: %w", err)
	}
	log.Info().Str("config", paths.Config).Msg("color ranges saved")
	return nil
}

func newRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Summarize activity between two days",
		Args:  cobra.NoArgs,
		RunE:  runRangeCmd,
	}
	cmd.Flags().StringVar(&rangeFrom, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&rangeTo, "to", "", "last day (YYYY-MM-DD, default: --from)")
	cmd.Flags().StringVar(&rangeKind, "kind", string(model.KindReviews), "reviews, lessons or forecast")
	return cmd
}

func runRangeCmd(cmd *cobra.Command, _ []string) error {
	if rangeFrom == "" {
		return fmt.Errorf("--from is required")
	}
	if rangeTo == "" {
		rangeTo = rangeFrom
	}
	kind, err := parseKind(rangeKind)
	if err != nil {
		return err
	}
	snap, _, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	loc := snap.Clock.Location
	if loc == nil {
		loc = time.Local
	}
	from, err := time.ParseInLocation(config.DateLayout, rangeFrom, loc)
	if err != nil {
		return fmt.Errorf("invalid --from value: %w", err)
	}
	to, err := time.ParseInLocation(config.DateLayout, rangeTo, loc)
	if err != nil {
		return fmt.Errorf("invalid --to value: %w", err)
	}
	sum, detail := snap.Detail(kind, from, to)
	if err := report.RenderBreakdown(cmd.OutOrStdout(), sum, detail); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newReloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Recompute from the cache, optionally replacing cached reviews",
		Args:  cobra.NoArgs,
		RunE:  runReloadCmd,
	}
	cmd.Flags().BoolVar(&reloadClear, "clear", false, "delete cached reviews before recomputing")
	cmd.Flags().StringVar(&reloadReviews, "reviews", "", "reviews JSONL file to import after clearing")
	return cmd
}

func runReloadCmd(cmd *cobra.Command, _ []string) error {
	settings, paths, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(paths.DB)
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if reloadClear {
		removed, err := st.ClearReviews(ctx)
		if err != nil {
			return err
		}
		log.Info().Int64("removed", removed).Msg("review cache cleared")
		if err := writef(out, "Removed %d cached reviews\n", removed); err != nil {
			return err
		}
	}
	if reloadReviews != "" {
		reviews, res, err := ingest.ReadReviewsFile(reloadReviews)
		if err != nil {
			return err
		}
		added, err := st.InsertReviews(ctx, reviews)
		if err != nil {
			return err
		}
		log.Info().Str("file", reloadReviews).Int("added", added).Int("skipped", res.Skipped).Msg("reviews reloaded")
		if err := writef(out, "Reviews: %d read, %d new, %d skipped\n", len(reviews), added, res.Skipped); err != nil {
			return err
		}
	}

	snap, err := engine.New(settings).Reload(ctx, st)
	if err != nil {
		return err
	}
	return writef(out, "%d reviews, %d lessons, %d forecast reviews\n",
		len(snap.Events[model.KindReviews]), len(snap.Lessons), len(snap.Events[model.KindForecast]))
}

func parseKind(value string) (model.Kind, error) {
	for _, kind := range model.Kinds {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q (use reviews, lessons or forecast)", value)
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
