package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ringops/ringstats/internal/config"
	"go.uber.org/zap"
)

var Version = "dev" // Overridden by release build script

func initLogger() {
	logger := zap.Must(zap.NewProduction())
	if config.Get().LogZapMode == "development" {
		logger = zap.Must(zap.NewDevelopment())
	}
	zap.ReplaceGlobals(logger)
}

func main() {
	config.LoadEnvFiles(".env")
	initLogger()
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		zap.L().Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}
