package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/companion/internal/logfields"
)

// envFiles are loaded in order; variables already set are never overridden,
// so .env wins over .env.local for keys defined in both.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the .env files present in the working directory.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
	}
}
