// =============================
// File: internal/flashloan/executor.go
// =============================
package flashloan

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/accounts"
	"github.com/rovshanmuradov/flashloan-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
	"github.com/rovshanmuradov/flashloan-bot/internal/gate"
	"github.com/rovshanmuradov/flashloan-bot/internal/wallet"
)

// Executor отправляет фиксирующую транзакцию flash_loan_and_arbitrage
// и дожидается её подтверждения.
type Executor struct {
	client     solbc.Client
	builder    *InstructionBuilder
	wallet     *wallet.Wallet
	logger     *zap.Logger
	maxRetries uint
	retryDelay time.Duration
}

var _ gate.Submitter = (*Executor)(nil)

// NewExecutor создаёт executor поверх blockchain-клиента.
func NewExecutor(client solbc.Client, builder *InstructionBuilder, w *wallet.Wallet, maxRetries uint, retryDelay time.Duration, logger *zap.Logger) *Executor {
	if maxRetries == 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return &Executor{
		client:     client,
		builder:    builder,
		wallet:     w,
		logger:     logger.Named("executor"),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// ExecuteArbitrage собирает, подписывает и отправляет транзакцию,
// затем ждёт подтверждения. Повторы применяются только до отправки:
// после успешного sendTransaction результат в сети неизвестен, и
// любая последующая ошибка помечается как submitted.
func (e *Executor) ExecuteArbitrage(ctx context.Context, set *accounts.AccountSet, loan engine.LoanRequest) (string, error) {
	inst, err := e.builder.BuildArbitrage(e.wallet.PublicKey, set, loan)
	if err != nil {
		return "", fmt.Errorf("failed to build arbitrage instruction: %w", err)
	}

	operation := func() (solana.Signature, error) {
		blockhash, err := e.client.GetRecentBlockhash(ctx)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
		}

		tx, err := solana.NewTransaction(
			[]solana.Instruction{inst},
			blockhash,
			solana.TransactionPayer(e.wallet.PublicKey),
		)
		if err != nil {
			return solana.Signature{}, backoff.Permanent(fmt.Errorf("failed to create transaction: %w", err))
		}
		if err := e.wallet.SignTransaction(tx); err != nil {
			return solana.Signature{}, backoff.Permanent(fmt.Errorf("failed to sign transaction: %w", err))
		}

		sig, err := e.client.SendTransaction(ctx, tx)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
		}

		// Транзакция в сети: ошибка подтверждения не повторяется.
		if err := e.client.WaitForTransactionConfirmation(ctx, sig, rpc.CommitmentConfirmed); err != nil {
			return solana.Signature{}, backoff.Permanent(&gate.TransportError{
				Op:        "confirm",
				Submitted: true,
				Err:       err,
			})
		}
		return sig, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.retryDelay

	notify := func(err error, duration time.Duration) {
		e.logger.Warn("Arbitrage transaction attempt failed, retrying",
			zap.Error(err), zap.Duration("next_in", duration))
	}

	sig, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(e.maxRetries),
		backoff.WithNotify(notify))
	if err != nil {
		return "", err
	}

	e.logger.Info("Arbitrage transaction confirmed",
		zap.String("signature", sig.String()),
		zap.Uint64("loan_amount", loan.LoanAmount))

	return sig.String(), nil
}
