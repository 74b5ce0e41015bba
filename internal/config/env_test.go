package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePathsDefaults(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvDB, "")
	t.Setenv(EnvLogDir, "")

	p := ResolvePaths()
	if p.Config != filepath.Join(base, "config", "studyheat", "config.toml") {
		t.Fatalf("unexpected config path: %s", p.Config)
	}
	if p.DB != filepath.Join(base, "data", "studyheat", "studyheat.db") {
		t.Fatalf("unexpected db path: %s", p.DB)
	}
	if p.LogDir != filepath.Join(base, "state", "studyheat") {
		t.Fatalf("unexpected log dir: %s", p.LogDir)
	}
}

func TestResolvePathsEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/a.toml")
	t.Setenv(EnvDB, "/tmp/b.db")
	t.Setenv(EnvLogDir, "/tmp/logs")
	p := ResolvePaths()
	if p.Config != "/tmp/a.toml" || p.DB != "/tmp/b.db" || p.LogDir != "/tmp/logs" {
		t.Fatalf("unexpected paths: %+v", p)
	}
}

func TestLoadEnvFromConfigDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "studyheat")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STUDYHEAT_DB=/from/env.db\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvDB, "")
	os.Unsetenv(EnvDB)

	if loaded := LoadEnv(); len(loaded) != 1 {
		t.Fatalf("expected one .env file, got %v", loaded)
	}
	if got := os.Getenv(EnvDB); got != "/from/env.db" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}
