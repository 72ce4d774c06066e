// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/bot"
	"github.com/rovshanmuradov/flashloan-bot/internal/logger"
	"github.com/rovshanmuradov/flashloan-bot/internal/task"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	flag.Parse()

	cfg, err := task.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging

	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting flash loan arbitrage bot")

	runner, err := bot.NewRunner(cfg, log.WithComponent("bot"))
	if err != nil {
		log.Fatal("Failed to initialize bot", zap.Error(err))
	}
	defer runner.Shutdown()

	if err := runner.Run(context.Background()); err != nil {
		log.Fatal("Bot execution error", zap.Error(err))
	}
}
