package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpattn/memberload/internal/app"
	"github.com/rpattn/memberload/internal/config"
	"github.com/rpattn/memberload/internal/db"
	"github.com/rpattn/memberload/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("MEMBERLOAD_CONFIG_DIR")
	if configPath == "" {
		configPath = "."
	}

	if err := run(configPath); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}

	if err := db.RunMigrations(cfg.Database, db.Up); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Serve(ctx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
