package flashloan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
	"github.com/rovshanmuradov/flashloan-bot/internal/gate"
)

func TestExecutor_ExecuteArbitrage(t *testing.T) {
	client := new(MockClient)
	sig := solana.Signature{7}

	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)
	client.On("SendTransaction", mock.Anything, mock.Anything).Return(sig, nil)
	client.On("WaitForTransactionConfirmation", mock.Anything, sig, mock.Anything).Return(nil)

	exec := NewExecutor(client, NewInstructionBuilder(ProgramID, zap.NewNop()), testWallet(t), 3, time.Millisecond, zap.NewNop())
	got, err := exec.ExecuteArbitrage(context.Background(), testAccountSet(t), engine.LoanRequest{LoanAmount: 1_000_000, MinProfitAmount: 100})
	require.NoError(t, err)
	assert.Equal(t, sig.String(), got)
	client.AssertExpectations(t)
}

func TestExecutor_RetriesTransientSendFailure(t *testing.T) {
	client := new(MockClient)
	sig := solana.Signature{7}

	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)
	client.On("SendTransaction", mock.Anything, mock.Anything).
		Return(solana.Signature{}, fmt.Errorf("rate limited")).Once()
	client.On("SendTransaction", mock.Anything, mock.Anything).Return(sig, nil).Once()
	client.On("WaitForTransactionConfirmation", mock.Anything, sig, mock.Anything).Return(nil)

	exec := NewExecutor(client, NewInstructionBuilder(ProgramID, zap.NewNop()), testWallet(t), 3, time.Millisecond, zap.NewNop())
	got, err := exec.ExecuteArbitrage(context.Background(), testAccountSet(t), engine.LoanRequest{LoanAmount: 1_000_000, MinProfitAmount: 100})
	require.NoError(t, err)
	assert.Equal(t, sig.String(), got)
	client.AssertNumberOfCalls(t, "SendTransaction", 2)
}

func TestExecutor_ConfirmationFailureIsSubmitted(t *testing.T) {
	client := new(MockClient)
	sig := solana.Signature{7}

	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)
	client.On("SendTransaction", mock.Anything, mock.Anything).Return(sig, nil)
	client.On("WaitForTransactionConfirmation", mock.Anything, sig, mock.Anything).
		Return(fmt.Errorf("transaction confirmation failed: InstructionError"))

	exec := NewExecutor(client, NewInstructionBuilder(ProgramID, zap.NewNop()), testWallet(t), 3, time.Millisecond, zap.NewNop())
	_, err := exec.ExecuteArbitrage(context.Background(), testAccountSet(t), engine.LoanRequest{LoanAmount: 1_000_000, MinProfitAmount: 100})
	require.Error(t, err)

	var transportErr *gate.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Submitted)
	assert.Equal(t, "confirm", transportErr.Op)

	// Отправка не повторяется после попадания транзакции в сеть.
	client.AssertNumberOfCalls(t, "SendTransaction", 1)
}

func TestExecutor_ExhaustsRetries(t *testing.T) {
	client := new(MockClient)

	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)
	client.On("SendTransaction", mock.Anything, mock.Anything).
		Return(solana.Signature{}, fmt.Errorf("node unavailable"))

	exec := NewExecutor(client, NewInstructionBuilder(ProgramID, zap.NewNop()), testWallet(t), 2, time.Millisecond, zap.NewNop())
	_, err := exec.ExecuteArbitrage(context.Background(), testAccountSet(t), engine.LoanRequest{LoanAmount: 1_000_000, MinProfitAmount: 100})
	require.Error(t, err)
	assert.ErrorContains(t, err, "node unavailable")
	client.AssertNumberOfCalls(t, "SendTransaction", 2)
}

func TestExecutor_InvalidLoanRejectedBeforeNetwork(t *testing.T) {
	client := new(MockClient)

	exec := NewExecutor(client, NewInstructionBuilder(ProgramID, zap.NewNop()), testWallet(t), 3, time.Millisecond, zap.NewNop())
	_, err := exec.ExecuteArbitrage(context.Background(), testAccountSet(t), engine.LoanRequest{LoanAmount: 0})
	assert.ErrorIs(t, err, engine.ErrInvalidLoanAmount)
	client.AssertNotCalled(t, "SendTransaction")
}
