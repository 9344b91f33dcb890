// Package config resolves runtime settings from .env files and the
// environment. Command-line flags use these values as their defaults.
package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDB        = "SCOREKEEPER_DB"
	EnvAddr      = "SCOREKEEPER_ADDR"
	EnvExportDir = "SCOREKEEPER_EXPORT_DIR"
	EnvWebDist   = "SCOREKEEPER_WEB_DIST"
)

type Config struct {
	DBPath    string
	Addr      string
	ExportDir string
	WebDist   string
}

var envPaths = []string{".env", "../.env"}

// LoadEnv loads the first .env file found. Variables already set in the
// environment win over the file.
func LoadEnv() string {
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// FromEnv reads the settings from the environment, filling defaults.
func FromEnv() Config {
	return Config{
		DBPath:    envOr(EnvDB, "data/scorekeeper.db"),
		Addr:      envOr(EnvAddr, ":8080"),
		ExportDir: envOr(EnvExportDir, "."),
		WebDist:   strings.TrimSpace(os.Getenv(EnvWebDist)),
	}
}

// Load is LoadEnv followed by FromEnv.
func Load() Config {
	if path := LoadEnv(); path != "" {
		log.Printf("loaded env from %s", path)
	}
	return FromEnv()
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
