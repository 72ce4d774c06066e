package flashloan

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/accounts"
	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
)

func testAccountSet(t *testing.T) *accounts.AccountSet {
	t.Helper()

	raw, err := accounts.DefaultsFor("SOL")
	require.NoError(t, err)

	operator := solana.NewWallet().PublicKey().String()
	raw[accounts.FieldLoanTokenAccount] = operator
	raw[accounts.FieldDexAAuthority] = operator
	raw[accounts.FieldDexBAuthority] = operator
	raw[accounts.FieldDexBProgram] = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

	set, err := accounts.Resolve(raw)
	require.NoError(t, err)
	return set
}

func TestSerializeInstructionData(t *testing.T) {
	loan := engine.LoanRequest{LoanAmount: 1_000_000_000, MinProfitAmount: 5_000}

	data, err := serializeInstructionData(InstructionFlashLoanAndArbitrage, loan)
	require.NoError(t, err)
	require.Len(t, data, InstructionDataSize)

	assert.Equal(t, byte(0), data[0])
	assert.Equal(t, uint64(1_000_000_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(5_000), binary.LittleEndian.Uint64(data[9:17]))
}

func TestSerializeInstructionData_SimulateOpcode(t *testing.T) {
	data, err := serializeInstructionData(InstructionSimulateArbitrage, engine.LoanRequest{LoanAmount: 1, MinProfitAmount: 0})
	require.NoError(t, err)
	assert.Equal(t, byte(1), data[0])
}

func TestInstructionBuilder_AccountOrder(t *testing.T) {
	set := testAccountSet(t)
	authority := solana.NewWallet().PublicKey()

	builder := NewInstructionBuilder(ProgramID, zap.NewNop())
	inst, err := builder.BuildArbitrage(authority, set, engine.LoanRequest{LoanAmount: 1_000_000, MinProfitAmount: 100})
	require.NoError(t, err)

	assert.Equal(t, ProgramID, inst.ProgramID())

	metas := inst.Accounts()
	require.Len(t, metas, 22)

	// Authority открывает список и единственный подписант.
	assert.Equal(t, authority, metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
	assert.True(t, metas[0].IsWritable)
	for _, meta := range metas[1:] {
		assert.False(t, meta.IsSigner, "only authority may sign: %s", meta.PublicKey)
	}

	assert.Equal(t, solana.TokenProgramID, metas[1].PublicKey)
	assert.Equal(t, solana.SystemProgramID, metas[2].PublicKey)
	assert.Equal(t, set.LendingProgram, metas[3].PublicKey)
	assert.Equal(t, set.DexAProgram, metas[7].PublicKey)
	assert.Equal(t, set.DexBProgram, metas[14].PublicKey)
	assert.Equal(t, solana.SysVarClockPubkey, metas[21].PublicKey)

	// Программы и authority пулов только читаются.
	assert.False(t, metas[3].IsWritable)
	assert.False(t, metas[7].IsWritable)
	assert.False(t, metas[9].IsWritable)
	assert.False(t, metas[14].IsWritable)
	assert.False(t, metas[16].IsWritable)

	// Токен-аккаунты и пулы изменяемы.
	for _, idx := range []int{4, 5, 6, 8, 10, 11, 12, 13, 15, 17, 18, 19, 20} {
		assert.True(t, metas[idx].IsWritable, "account %d must be writable", idx)
	}
}

func TestInstructionBuilder_RejectsInvalidLoan(t *testing.T) {
	set := testAccountSet(t)
	builder := NewInstructionBuilder(ProgramID, zap.NewNop())

	_, err := builder.BuildArbitrage(solana.NewWallet().PublicKey(), set, engine.LoanRequest{LoanAmount: 0})
	assert.ErrorIs(t, err, engine.ErrInvalidLoanAmount)
}

func TestInstructionBuilder_RejectsNilAccountSet(t *testing.T) {
	builder := NewInstructionBuilder(ProgramID, zap.NewNop())

	_, err := builder.BuildSimulate(solana.NewWallet().PublicKey(), nil, engine.LoanRequest{LoanAmount: 1})
	assert.Error(t, err)
}
