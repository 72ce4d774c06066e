// =============================
// File: internal/flashloan/instruction.go
// =============================
package flashloan

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/accounts"
	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
)

// ProgramID — адрес развёрнутой программы flash_loan_arbitrage.
var ProgramID = solana.MustPublicKeyFromBase58("9chwqr3q9XBJnCs8euyFpyqzHamXpZk4mCAEzsfXjWCC")

// InstructionType определяет тип инструкции программы.
type InstructionType uint8

const (
	// Типы инструкций
	InstructionFlashLoanAndArbitrage InstructionType = 0
	InstructionSimulateArbitrage     InstructionType = 1

	// Размер данных: 1 (тип) + 8 (loanAmount) + 8 (minProfitAmount)
	InstructionDataSize = 17
)

// Константы, зеркалирующие ончейн-программу.
const (
	// FlashLoanFeeBps — комиссия флеш-займа кредитного протокола.
	FlashLoanFeeBps uint16 = 30
	// MinProfitThreshold — нижний порог прибыли, зашитый в программу.
	MinProfitThreshold uint64 = 1000
)

// InstructionBuilder строит инструкции программы flash_loan_arbitrage.
type InstructionBuilder struct {
	programID solana.PublicKey
	logger    *zap.Logger
}

// NewInstructionBuilder создаёт builder для заданной программы.
func NewInstructionBuilder(programID solana.PublicKey, logger *zap.Logger) *InstructionBuilder {
	return &InstructionBuilder{
		programID: programID,
		logger:    logger.Named("flashloan-builder"),
	}
}

// BuildArbitrage создаёт фиксирующую инструкцию flash_loan_and_arbitrage.
func (b *InstructionBuilder) BuildArbitrage(authority solana.PublicKey, set *accounts.AccountSet, loan engine.LoanRequest) (solana.Instruction, error) {
	return b.build(InstructionFlashLoanAndArbitrage, authority, set, loan)
}

// BuildSimulate создаёт инструкцию simulate_arbitrage: тот же набор
// аккаунтов, но без записи в сеть — результат читается из return data.
func (b *InstructionBuilder) BuildSimulate(authority solana.PublicKey, set *accounts.AccountSet, loan engine.LoanRequest) (solana.Instruction, error) {
	return b.build(InstructionSimulateArbitrage, authority, set, loan)
}

func (b *InstructionBuilder) build(op InstructionType, authority solana.PublicKey, set *accounts.AccountSet, loan engine.LoanRequest) (solana.Instruction, error) {
	if set == nil {
		return nil, fmt.Errorf("account set cannot be nil")
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	data, err := serializeInstructionData(op, loan)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize instruction data: %w", err)
	}

	metas := buildAccountMetas(authority, set)

	b.logger.Debug("Flash loan instruction built",
		zap.Uint8("op", uint8(op)),
		zap.Uint64("loan_amount", loan.LoanAmount),
		zap.Uint64("min_profit", loan.MinProfitAmount),
		zap.Int("accounts", len(metas)))

	return solana.NewInstruction(b.programID, metas, data), nil
}

// buildAccountMetas перечисляет аккаунты в порядке, объявленном программой:
// базовые аккаунты, кредитный протокол, DEX A, DEX B, clock sysvar.
func buildAccountMetas(authority solana.PublicKey, set *accounts.AccountSet) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(authority).WRITE().SIGNER(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),

		solana.Meta(set.LendingProgram),
		solana.Meta(set.LoanTokenAccount).WRITE(),
		solana.Meta(set.LoanReserveAccount).WRITE(),
		solana.Meta(set.LendingFeeAccount).WRITE(),

		solana.Meta(set.DexAProgram),
		solana.Meta(set.DexAPool).WRITE(),
		solana.Meta(set.DexAAuthority),
		solana.Meta(set.DexAInputTokenAccount).WRITE(),
		solana.Meta(set.DexAOutputTokenAccount).WRITE(),
		solana.Meta(set.DexATokenAAccount).WRITE(),
		solana.Meta(set.DexATokenBAccount).WRITE(),

		solana.Meta(set.DexBProgram),
		solana.Meta(set.DexBPool).WRITE(),
		solana.Meta(set.DexBAuthority),
		solana.Meta(set.DexBInputTokenAccount).WRITE(),
		solana.Meta(set.DexBOutputTokenAccount).WRITE(),
		solana.Meta(set.DexBTokenAAccount).WRITE(),
		solana.Meta(set.DexBTokenBAccount).WRITE(),

		solana.Meta(solana.SysVarClockPubkey),
	}
}

// serializeInstructionData кодирует данные инструкции: 1 байт кода операции
// и два u64 little-endian, как того ожидает программа.
func serializeInstructionData(op InstructionType, loan engine.LoanRequest) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)

	if err := enc.WriteByte(byte(op)); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(loan.LoanAmount, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(loan.MinProfitAmount, binary.LittleEndian); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	if len(data) != InstructionDataSize {
		return nil, fmt.Errorf("unexpected instruction data size: %d", len(data))
	}
	return data, nil
}
