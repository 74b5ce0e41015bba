package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment overrides for the default paths.
const (
	EnvConfig = "STUDYHEAT_CONFIG"
	EnvDB     = "STUDYHEAT_DB"
	EnvLogDir = "STUDYHEAT_LOG_DIR"
)

// Paths are the files the application reads and writes.
type Paths struct {
	Config string
	DB     string
	LogDir string
}

// LoadEnv loads .env files from the working directory and the config
// directory and returns the files that were read. Variables already set in
// the environment win.
func LoadEnv() []string {
	var loaded []string
	for _, path := range []string{".env", filepath.Join(XDGConfigHome(), appName, ".env")} {
		if err := godotenv.Load(path); err == nil {
			loaded = append(loaded, path)
		}
	}
	return loaded
}

// ResolvePaths returns the default paths with environment overrides applied.
func ResolvePaths() Paths {
	return Paths{
		Config: getEnv(EnvConfig, DefaultConfigPath()),
		DB:     getEnv(EnvDB, DefaultDBPath()),
		LogDir: getEnv(EnvLogDir, DefaultLogDir()),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
