package main

import (
	"log/slog"
	"os"

	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/interfaces/cli"
)

func main() {
	// Settings may replace this once loaded; until then errors during
	// startup still go through the structured logger.
	logLevel := slog.LevelInfo
	if os.Getenv("DNSSYNC_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}

	logger.Init(&logger.Config{
		Level:     logLevel,
		Format:    os.Getenv("DNSSYNC_LOG_FORMAT"),
		AddSource: os.Getenv("DNSSYNC_DEBUG") != "",
	})

	cli.Execute()
}
