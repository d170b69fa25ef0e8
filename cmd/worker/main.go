package main

import (
	"log/slog"
	"os"

	"folder-explorer/internal/logger"
	"folder-explorer/internal/worker"
)

func main() {
	logHandler := logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(logHandler))

	w, err := worker.New()
	if err != nil {
		slog.Error("failed to initialize worker", "error", err)
		os.Exit(1)
	}

	if err := w.Run(); err != nil {
		slog.Error("worker run failed", "error", err)
		os.Exit(1)
	}
}
