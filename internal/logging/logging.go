// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file inside the log directory.
const FileName = "studyheat.log"

// Options configures Init.
type Options struct {
	Verbose bool
	// Dir holds the rotating log file; empty disables the file sink.
	Dir string
	// Console writes human readable lines to stderr. It is turned off while
	// the viewer owns the terminal.
	Console bool
}

// Init sets the global logger up with a console sink on stderr and a
// rotating file sink. The returned closer flushes the file sink.
func Init(opts Options) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	writers := make([]io.Writer, 0, 2)
	if opts.Console {
		isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal,
		})
	}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %q: %w", opts.Dir, err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    8, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	if len(writers) == 0 {
		log.Logger = zerolog.Nop()
		return closer, nil
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
