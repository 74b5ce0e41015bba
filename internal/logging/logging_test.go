package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWritesFile(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	dir := filepath.Join(t.TempDir(), "logs")
	closer, err := Init(Options{Verbose: true, Dir: dir})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	log.Debug().Str("kind", "reviews").Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello"`) || !strings.Contains(string(data), `"kind":"reviews"`) {
		t.Fatalf("unexpected log content: %s", data)
	}
}

func TestInitWithoutSinks(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	closer, err := Init(Options{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %v", zerolog.GlobalLevel())
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
