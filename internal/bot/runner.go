// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/flashloan-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/flashloan-bot/internal/export"
	"github.com/rovshanmuradov/flashloan-bot/internal/license"
	"github.com/rovshanmuradov/flashloan-bot/internal/task"
	"github.com/rovshanmuradov/flashloan-bot/internal/wallet"
)

// Runner связывает конфигурацию, кошельки и сервис арбитража.
type Runner struct {
	logger  *zap.Logger
	config  *task.Config
	client  solbc.Client
	manager *task.Manager
	wallets map[string]*wallet.Wallet
	service *ArbitrageService
}

// NewRunner собирает runner из конфигурации.
func NewRunner(cfg *task.Config, logger *zap.Logger) (*Runner, error) {
	wallets, err := wallet.LoadWallets(cfg.WalletsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallets: %w", err)
	}

	client, err := solbc.NewClient(cfg.RPCList, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}

	return &Runner{
		logger:  logger,
		config:  cfg,
		client:  client,
		manager: task.NewManager(logger),
		wallets: wallets,
		service: NewArbitrageService(cfg, client, wallets, logger),
	}, nil
}

// Run загружает попытки и прогоняет их пулом воркеров до завершения
// или до сигнала остановки.
func (r *Runner) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Validate license first
	if err := r.validateLicense(ctx); err != nil {
		return fmt.Errorf("license validation failed: %w", err)
	}

	attempts, err := r.manager.LoadAttempts(r.config.AttemptsPath)
	if err != nil {
		return err
	}
	r.logger.Info(fmt.Sprintf("📋 Loaded %d arbitrage attempts", len(attempts)))

	attemptCh := make(chan task.Attempt, len(attempts))
	for _, a := range attempts {
		attemptCh <- a
	}
	close(attemptCh)

	numWorkers := r.config.Workers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	r.logger.Info(fmt.Sprintf("🚀 Starting execution with %d workers", numWorkers))

	var mu sync.Mutex
	var records []export.Record

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		workerID := i
		g.Go(func() error {
			for attempt := range attemptCh {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				outcome, err := r.service.RunAttempt(gctx, attempt)
				if err != nil {
					r.logger.Error("Attempt failed",
						zap.Int("worker", workerID),
						zap.String("attempt", attempt.Name),
						zap.Error(err))
					continue
				}
				if !outcome.Executed {
					r.logger.Info("Attempt skipped",
						zap.Int("worker", workerID),
						zap.String("attempt", attempt.Name),
						zap.String("reason", outcome.SkipReason))
				}

				mu.Lock()
				records = append(records, outcomeRecord(attempt, outcome))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	r.exportSession(records)

	r.logger.Info("✅ All workers finished")
	return nil
}

func outcomeRecord(attempt task.Attempt, outcome *AttemptOutcome) export.Record {
	record := export.Record{
		ID:         outcome.ID,
		Name:       outcome.Name,
		Token:      attempt.Token,
		Timestamp:  time.Now().UTC(),
		LoanAmount: attempt.LoanAmount,
		Executed:   outcome.Executed,
		Signature:  outcome.Signature,
		SkipReason: outcome.SkipReason,
	}
	if outcome.Simulation != nil {
		record.NetProfit = outcome.Simulation.NetProfit
	}
	return record
}

// exportSession пишет итоговый отчёт по сессии; ошибки экспорта не
// считаются фатальными.
func (r *Runner) exportSession(records []export.Record) {
	if len(records) == 0 {
		return
	}
	exporter := export.NewExporter(r.logger)
	if _, err := exporter.ExportRecords(records, export.Options{
		Format:    export.FormatJSON,
		OutputDir: "reports",
	}); err != nil {
		r.logger.Warn("Failed to export session report", zap.Error(err))
	}
}

// Shutdown сбрасывает буферы логгера при завершении.
func (r *Runner) Shutdown() {
	r.logger.Info("👋 Bot shutting down gracefully")

	if err := r.logger.Sync(); err != nil {
		if !os.IsNotExist(err) &&
			err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: inappropriate ioctl for device" {
			fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
		}
	}
}

// validateLicense validates the license using either Keygen or fallback validation
func (r *Runner) validateLicense(ctx context.Context) error {
	if r.config.KeygenAccountID != "" && r.config.KeygenProductToken != "" && r.config.KeygenProductID != "" {
		return r.validateWithKeygen(ctx)
	}
	return r.validateSimple()
}

// validateWithKeygen validates license using Keygen.sh
func (r *Runner) validateWithKeygen(ctx context.Context) error {
	r.logger.Info("🔑 Validating license with Keygen.sh")

	validator := license.NewKeygenValidator(
		r.config.KeygenAccountID,
		r.config.KeygenProductToken,
		r.config.KeygenProductID,
		r.logger,
	)

	if err := validator.ValidateLicense(ctx, r.config.License); err != nil {
		return fmt.Errorf("Keygen validation failed: %w", err)
	}

	r.logger.Info("✅ License validated with Keygen.sh")
	return nil
}

// validateSimple performs basic license validation (fallback)
func (r *Runner) validateSimple() error {
	if r.config.License == "" {
		return fmt.Errorf("license key is required")
	}
	if len(r.config.License) < 8 {
		return fmt.Errorf("license key is too short")
	}
	r.logger.Info("✅ License validated (basic mode)")
	return nil
}
