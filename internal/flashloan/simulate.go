// =============================
// File: internal/flashloan/simulate.go
// =============================
package flashloan

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/accounts"
	"github.com/rovshanmuradov/flashloan-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
	"github.com/rovshanmuradov/flashloan-bot/internal/gate"
	"github.com/rovshanmuradov/flashloan-bot/internal/wallet"
)

// Simulator выполняет инструкцию simulate_arbitrage против RPC-узла
// и декодирует оценку прибыли из return data программы.
type Simulator struct {
	client  solbc.Client
	builder *InstructionBuilder
	wallet  *wallet.Wallet
	logger  *zap.Logger
}

var _ gate.RemoteSimulator = (*Simulator)(nil)

// NewSimulator создаёт симулятор поверх blockchain-клиента.
func NewSimulator(client solbc.Client, builder *InstructionBuilder, w *wallet.Wallet, logger *zap.Logger) *Simulator {
	return &Simulator{
		client:  client,
		builder: builder,
		wallet:  w,
		logger:  logger.Named("simulator"),
	}
}

// SimulateArbitrage собирает транзакцию с инструкцией simulate_arbitrage,
// прогоняет её через simulateTransaction и возвращает оценку чистой
// прибыли в лампортах.
func (s *Simulator) SimulateArbitrage(ctx context.Context, set *accounts.AccountSet, loan engine.LoanRequest) (int64, error) {
	inst, err := s.builder.BuildSimulate(s.wallet.PublicKey, set, loan)
	if err != nil {
		return 0, fmt.Errorf("failed to build simulate instruction: %w", err)
	}

	blockhash, err := s.client.GetRecentBlockhash(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		blockhash,
		solana.TransactionPayer(s.wallet.PublicKey),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := s.wallet.SignTransaction(tx); err != nil {
		return 0, fmt.Errorf("failed to sign transaction: %w", err)
	}

	result, err := s.client.SimulateTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("simulation RPC failed: %w", err)
	}
	if result.Err != nil {
		return 0, fmt.Errorf("simulation failed on-chain: %v", result.Err)
	}

	profit, err := decodeProfitFromLogs(result.Logs)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Remote simulation completed",
		zap.Int64("estimated_profit", profit),
		zap.Uint64("units_consumed", result.UnitsConsumed))

	return profit, nil
}

// decodeProfitFromLogs извлекает return data из лога симуляции.
// Программа возвращает u64 little-endian; строка лога имеет вид
// "Program return: <programID> <base64>".
func decodeProfitFromLogs(logs []string) (int64, error) {
	for _, line := range logs {
		const prefix = "Program return: "
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		parts := strings.Fields(strings.TrimPrefix(line, prefix))
		if len(parts) != 2 {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return 0, fmt.Errorf("failed to decode return data: %w", err)
		}
		dec := bin.NewBinDecoder(raw)
		value, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return 0, fmt.Errorf("failed to parse return data: %w", err)
		}
		// TODO: сверить кодировку с развёрнутой программой — u64 не
		// представляет отрицательную прибыль, симуляция в этом случае
		// завершается ошибкой до return data.
		return int64(value), nil
	}
	return 0, fmt.Errorf("no return data in simulation logs")
}
