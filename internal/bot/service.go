// internal/bot/service.go
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/accounts"
	"github.com/rovshanmuradov/flashloan-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
	"github.com/rovshanmuradov/flashloan-bot/internal/flashloan"
	"github.com/rovshanmuradov/flashloan-bot/internal/gate"
	"github.com/rovshanmuradov/flashloan-bot/internal/task"
	"github.com/rovshanmuradov/flashloan-bot/internal/wallet"
)

// AttemptOutcome описывает результат одной арбитражной попытки.
type AttemptOutcome struct {
	ID         string
	Name       string
	Simulation *engine.SimulationResult
	Signature  string
	Executed   bool
	SkipReason string
}

// ArbitrageService прогоняет попытки через цикл «симуляция -> исполнение».
type ArbitrageService struct {
	config  *task.Config
	client  solbc.Client
	wallets map[string]*wallet.Wallet
	logger  *zap.Logger

	// фабрики подменяются в тестах
	newRemote    func(w *wallet.Wallet) gate.RemoteSimulator
	newSubmitter func(w *wallet.Wallet) gate.Submitter
}

// NewArbitrageService создаёт сервис поверх blockchain-клиента и кошельков.
func NewArbitrageService(cfg *task.Config, client solbc.Client, wallets map[string]*wallet.Wallet, logger *zap.Logger) *ArbitrageService {
	s := &ArbitrageService{
		config:  cfg,
		client:  client,
		wallets: wallets,
		logger:  logger.Named("arbitrage"),
	}
	s.newRemote = func(w *wallet.Wallet) gate.RemoteSimulator {
		builder := flashloan.NewInstructionBuilder(flashloan.ProgramID, logger)
		return flashloan.NewSimulator(client, builder, w, logger)
	}
	s.newSubmitter = func(w *wallet.Wallet) gate.Submitter {
		builder := flashloan.NewInstructionBuilder(flashloan.ProgramID, logger)
		return flashloan.NewExecutor(client, builder, w, uint(cfg.Retries), cfg.RetryDelay, logger)
	}
	return s
}

// RunAttempt выполняет одну попытку: собирает набор аккаунтов, симулирует
// сделку и при положительном исходе фиксирует её в сети. Попытка, не
// прошедшая порог прибыли, не считается ошибкой сервиса.
func (s *ArbitrageService) RunAttempt(ctx context.Context, attempt task.Attempt) (*AttemptOutcome, error) {
	outcome := &AttemptOutcome{
		ID:   uuid.NewString(),
		Name: attempt.Name,
	}
	log := s.logger.With(zap.String("attempt_id", outcome.ID), zap.String("attempt", attempt.Name))

	w, err := s.walletFor(attempt.WalletName)
	if err != nil {
		return nil, err
	}

	set, err := s.resolveAccounts(attempt, w)
	if err != nil {
		var validationErr *accounts.ValidationError
		if errors.As(err, &validationErr) {
			log.Warn("Account set rejected", zap.Strings("invalid_fields", validationErr.InvalidFields),
				zap.Bool("same_dex", validationErr.SameDex))
		}
		return nil, fmt.Errorf("failed to resolve account set: %w", err)
	}

	legA, legB := attempt.ToLegs()
	snap := gate.Snapshot{
		Accounts: *set,
		Loan:     attempt.ToLoanRequest(),
		LegA:     legA,
		LegB:     legB,
		FeeBps:   s.config.LoanFeeBps,
	}

	gateCfg := gate.Config{
		Logger:      log,
		Submitter:   s.newSubmitter(w),
		CallTimeout: s.config.SimulateTimeout,
	}
	if s.config.RemoteSimulation {
		gateCfg.Remote = s.newRemote(w)
		gateCfg.RemoteTolerance = s.config.RemoteTolerance
	}
	g := gate.New(gateCfg)

	result, err := g.Simulate(ctx, snap)
	if err != nil {
		var profitErr *gate.ProfitabilityError
		if errors.As(err, &profitErr) {
			log.Info("💤 Attempt not profitable, skipping",
				zap.Int64("net_profit", profitErr.NetProfit),
				zap.Uint64("shortfall", profitErr.Shortfall))
			outcome.Simulation = result
			outcome.SkipReason = profitErr.Error()
			return outcome, nil
		}
		return nil, fmt.Errorf("simulation failed: %w", err)
	}
	outcome.Simulation = result

	log.Info("📈 Simulation profitable",
		zap.Int64("net_profit", result.NetProfit),
		zap.Uint64("repayment", result.RepaymentAmount))

	execCtx, cancel := context.WithTimeout(ctx, s.config.ExecuteTimeout)
	defer cancel()

	sig, err := g.Execute(execCtx, snap)
	if err != nil {
		var transportErr *gate.TransportError
		if errors.As(err, &transportErr) && transportErr.Submitted {
			log.Error("⚠️ Transaction submitted but outcome unknown", zap.Error(err))
		}
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	outcome.Signature = sig
	outcome.Executed = true
	log.Info("✅ Arbitrage executed", zap.String("signature", sig))
	return outcome, nil
}

// resolveAccounts строит полный набор аккаунтов попытки: профиль токена
// по умолчанию, поверх — поля оператора и переопределения из попытки.
func (s *ArbitrageService) resolveAccounts(attempt task.Attempt, w *wallet.Wallet) (*accounts.AccountSet, error) {
	raw, err := accounts.DefaultsFor(attempt.Token)
	if err != nil {
		return nil, err
	}

	mintStr, err := accounts.MintFor(attempt.Token)
	if err != nil {
		return nil, err
	}
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return nil, fmt.Errorf("invalid mint for token %q: %w", attempt.Token, err)
	}
	ata, err := w.GetATA(mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive loan token account: %w", err)
	}

	raw[accounts.FieldLoanTokenAccount] = ata.String()
	raw[accounts.FieldDexAAuthority] = w.PublicKey.String()
	raw[accounts.FieldDexBAuthority] = w.PublicKey.String()

	if attempt.DexAProgram != "" {
		raw[accounts.FieldDexAProgram] = attempt.DexAProgram
	}
	if attempt.DexBProgram != "" {
		raw[accounts.FieldDexBProgram] = attempt.DexBProgram
	}

	return accounts.Resolve(raw)
}

func (s *ArbitrageService) walletFor(name string) (*wallet.Wallet, error) {
	if name != "" {
		if w, ok := s.wallets[name]; ok {
			return w, nil
		}
		return nil, fmt.Errorf("wallet %q not found", name)
	}
	// Без имени кошелёк выбирается только когда он единственный.
	if len(s.wallets) == 1 {
		for _, w := range s.wallets {
			return w, nil
		}
	}
	if len(s.wallets) == 0 {
		return nil, fmt.Errorf("no wallets loaded")
	}
	return nil, fmt.Errorf("attempt has no wallet name and %d wallets are loaded", len(s.wallets))
}
