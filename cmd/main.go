package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/hifi/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := configPathFromArgs(os.Args)
	config := shared.DefaultConfig()
	if loaded, err := shared.LoadConfig(configPath); err == nil {
		config = loaded
	} else if !errors.Is(err, shared.ErrMissingConfig) {
		logger.Fatalf("failed to load config: %v", err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}

	level, err := shared.ParseLogLevel(config.Log.Level)
	if err != nil {
		logger.Fatalf("invalid log level: %v", err)
	}
	shared.SetLogLevel(logger, level)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "hifi",
		Usage:    "Tidal catalog gateway and login bridge",
		Version:  "0.1.0",
		Flags:    []cli.Flag{configFlag()},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
