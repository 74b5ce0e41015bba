// Package main provides the CLI entrypoint for studyheat.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studyheat/internal/config"
	"github.com/verte-zerg/studyheat/internal/engine"
	"github.com/verte-zerg/studyheat/internal/logging"
	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/statsui"
	"github.com/verte-zerg/studyheat/internal/store"
)

const (
	defaultSessionLimit = 10.0
	defaultShowNextYear = 12
)

var (
	rootVerbose      bool
	rootConfigPath   string
	rootDBPath       string
	rootDayStart     int
	rootWeekStart    int
	rootSessionLimit float64
	rootStartDate    string
	rootTimezone     string

	logCloser io.Closer
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if logCloser != nil {
		if cerr := logCloser.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "studyheat",
		Short:             "Study activity heatmaps and statistics",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupLogging,
		RunE:              runViewerCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&rootVerbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&rootConfigPath, "config", "", "config file path")
	flags.StringVar(&rootDBPath, "db", "", "database path")
	flags.IntVar(&rootDayStart, "day-start", 0, "hour at which a new day begins (0-23)")
	flags.IntVar(&rootWeekStart, "week-start", 0, "first weekday of the grid (0 is Sunday)")
	flags.Float64Var(&rootSessionLimit, "session-limit", defaultSessionLimit, "largest gap in minutes within a session")
	flags.StringVar(&rootStartDate, "start-date", "", "ignore activity before this date (YYYY-MM-DD)")
	flags.StringVar(&rootTimezone, "timezone", "", "IANA timezone for day boundaries (default: local)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRangesCmd())
	rootCmd.AddCommand(newRangeCmd())
	rootCmd.AddCommand(newReloadCmd())

	return rootCmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	loaded := config.LoadEnv()
	paths := resolvePaths(cmd)
	closer, err := logging.Init(logging.Options{
		Verbose: rootVerbose,
		Dir:     paths.LogDir,
		// The viewer owns the terminal.
		Console: cmd != cmd.Root(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logCloser = closer
	for _, path := range loaded {
		log.Debug().Str("path", path).Msg("loaded .env")
	}
	return nil
}

func resolvePaths(cmd *cobra.Command) config.Paths {
	paths := config.ResolvePaths()
	applyStringFlag(cmd, "config", &paths.Config, rootConfigPath)
	applyStringFlag(cmd, "db", &paths.DB, rootDBPath)
	return paths
}

// loadSettings reads the config file and overlays changed flags on top.
func loadSettings(cmd *cobra.Command) (model.Settings, config.Paths, error) {
	paths := resolvePaths(cmd)
	fc, err := config.LoadConfig(paths.Config)
	if err != nil {
		return model.Settings{}, paths, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "day-start", &fc.General.DayStart, rootDayStart)
	applyIntConfig(cmd, "week-start", &fc.General.WeekStart, rootWeekStart)
	applyFloatConfig(cmd, "session-limit", &fc.General.SessionLimit, rootSessionLimit)
	applyStringConfig(cmd, "start-date", &fc.General.StartDate, rootStartDate)
	applyStringConfig(cmd, "timezone", &fc.General.Timezone, rootTimezone)

	settings, err := config.Resolve(fc)
	if err != nil {
		return model.Settings{}, paths, err
	}
	log.Debug().
		Str("config", paths.Config).
		Str("db", paths.DB).
		Int("day_start", settings.General.DayStart).
		Int("week_start", settings.General.WeekStart).
		Msg("settings resolved")
	return settings, paths, nil
}

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// loadSnapshot opens the store and computes a snapshot from its records.
func loadSnapshot(cmd *cobra.Command) (*engine.Snapshot, config.Paths, error) {
	settings, paths, err := loadSettings(cmd)
	if err != nil {
		return nil, paths, err
	}
	st, err := openStore(paths.DB)
	if err != nil {
		return nil, paths, err
	}
	defer closeStore(st)

	eng := engine.New(settings)
	snap, err := eng.Reload(cmd.Context(), st)
	if err != nil {
		return nil, paths, err
	}
	return snap, paths, nil
}

func runViewerCmd(cmd *cobra.Command, _ []string) error {
	settings, paths, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(paths.DB)
	if err != nil {
		return err
	}
	defer closeStore(st)

	m := statsui.NewModel(statsui.Options{
		Engine: engine.New(settings),
		Source: st,
		SaveRanges: func(ranges map[model.Kind]model.ColorRange) error {
			return config.SaveRanges(paths.Config, ranges)
		},
		SaveLastVisibleYear: func(kind model.Kind, year int) error {
			return config.SaveLastVisibleYear(paths.Config, kind, year)
		},
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(contextOf(cmd)))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := resolvePaths(cmd).Config
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	edit := exec.Command(parts[0], append(parts[1:], path)...)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// applyStringFlag overrides target with value when the flag was set.
func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyStringConfig(cmd *cobra.Command, name string, target **string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = &value
}

func applyIntConfig(cmd *cobra.Command, name string, target **int, value int) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = &value
}

func applyFloatConfig(cmd *cobra.Command, name string, target **float64, value float64) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = &value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# studyheat configuration
# Uncomment a value to enable it. CLI flags override config values.
# Color thresholds of auto-ranged kinds are rewritten after every reload.

[general]
# start_date = "2024-01-01"   # Ignore activity before this date
# week_start = 0              # First weekday of the grid (0 is Sunday)
# day_start = 0               # Hour at which a new day begins (0-23)
# session_limit = %.0f          # Largest gap in minutes within a session
# timezone = "Europe/Berlin"  # IANA timezone (default: local)
# reverse_years = false       # Show the newest year first

[reviews]
# gradient = true
# auto_range = true
# colors = [
#   { threshold = 0, color = "#dae289" },
#   { threshold = 100, color = "#9cc069" },
#   { threshold = 200, color = "#669d45" },
#   { threshold = 300, color = "#647939" },
#   { threshold = 400, color = "#3b6427" },
# ]

[lessons]
# gradient = true
# auto_range = true
# count_zeros = true          # Days without waiting lessons keep the streak

[forecast]
# gradient = true
# auto_range = true
# show_next_year = %d         # Months before year end to show the next year
`,
		defaultSessionLimit,
		defaultShowNextYear,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
