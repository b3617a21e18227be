package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hrsaas/internal/app/server"
	"hrsaas/internal/platform/config"
	"hrsaas/internal/platform/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if err := run(cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(ctx)
}
