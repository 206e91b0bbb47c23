package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/baeci/biolink"
)

func main() {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := biolink.LoadConfig()
	if err != nil {
		logger.Fatal("configuration", zap.Error(err))
	}

	app := biolink.New(cfg, logger)
	ctx := context.Background()
	defer func() { _ = app.Close(ctx) }()

	if err := app.Start(ctx); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

// newLogger builds a production JSON logger, or a human-readable one
// when LOG_FORMAT=console.
func newLogger() *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("LOG_FORMAT") == "console" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
