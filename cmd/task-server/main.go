package main

import (
	"log/slog"
	"os"

	"go-task-manager/internal/app"
	"go-task-manager/internal/logger"
)

func main() {
	// replaced once config is loaded
	slog.SetDefault(logger.New(os.Stdout, "pretty", slog.LevelInfo, "task"))

	application, err := app.NewTask()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
