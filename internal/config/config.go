// Package config loads claimflow settings from defaults, an optional config.yaml,
// a .env file and CLAIMFLOW_ environment variables.
package config

import (
	"path/filepath"
	"strings"
	"sync"

	"fjacquet/claimflow/internal/fileutils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var envOnce sync.Once

// LoadEnv loads a .env file from the working directory or its parent, if one exists.
// Variables already set in the environment win.
func LoadEnv() {
	envOnce.Do(func() {
		for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
			if !fileutils.FileExists(candidate) {
				continue
			}
			_ = godotenv.Load(candidate)
			return
		}
	})
}

// ConfigureLoggingFromConfig builds a logrus logger from the log section.
func ConfigureLoggingFromConfig(cfg *Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
