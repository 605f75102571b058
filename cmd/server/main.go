package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/nfrund/gobychat/internal/app"
	"github.com/nfrund/gobychat/internal/config"
	"github.com/nfrund/gobychat/internal/logging"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	s, err := app.ResolveServer(app.NewInjector(cfg, slog.Default(), afero.NewOsFs()))
	if err != nil {
		slog.Error("Failed to build server", "error", err)
		os.Exit(1)
	}

	if err := s.Start(cfg.ServerAddr); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
