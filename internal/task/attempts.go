// =============================================
// File: internal/task/attempts.go
// =============================================
// Package task provides configuration and attempt loading.
package task

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
)

// Attempt describes a single arbitrage attempt from CSV configuration.
type Attempt struct {
	Name            string
	WalletName      string
	Token           string
	LoanAmount      uint64
	MinProfitAmount uint64

	RateANum     uint64
	RateADen     uint64
	SlippageABps uint16

	RateBNum     uint64
	RateBDen     uint64
	SlippageBBps uint16

	// Опциональные переопределения адресов из базового набора
	DexAProgram string
	DexBProgram string
}

// ToLoanRequest converts the attempt into loan parameters.
func (a *Attempt) ToLoanRequest() engine.LoanRequest {
	return engine.LoanRequest{
		LoanAmount:      a.LoanAmount,
		MinProfitAmount: a.MinProfitAmount,
	}
}

// ToLegs converts the attempt into the two swap legs.
func (a *Attempt) ToLegs() (engine.SwapLeg, engine.SwapLeg) {
	legA := engine.SwapLeg{RateNum: a.RateANum, RateDen: a.RateADen, SlippageBps: a.SlippageABps}
	legB := engine.SwapLeg{RateNum: a.RateBNum, RateDen: a.RateBDen, SlippageBps: a.SlippageBBps}
	return legA, legB
}

// Manager handles attempt loading and processing.
type Manager struct {
	logger *zap.Logger
}

// NewManager creates a new attempt manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// LoadAttempts reads arbitrage attempts from CSV file.
// CSV format: name,wallet,token,loan_amount,min_profit,rate_a_num,rate_a_den,slippage_a_bps,rate_b_num,rate_b_den,slippage_b_bps[,dex_a_program,dex_b_program]
// Amounts are in lamports of the loan token; rates are integer fractions.
func (m *Manager) LoadAttempts(path string) ([]Attempt, error) {
	m.logger.Debug("Loading attempts", zap.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file error: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV error: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("no attempts found (need header + at least one attempt)")
	}

	// Process records (skip header)
	attempts := make([]Attempt, 0, len(records)-1)

	for i, row := range records[1:] {
		if len(row) < 11 {
			m.logger.Warn("Skipping row with insufficient columns",
				zap.Int("row", i+2),
				zap.Int("columns", len(row)))
			continue
		}

		attempt := Attempt{
			Name:       row[0],
			WalletName: row[1],
			Token:      row[2],
		}

		fields := []struct {
			name  string
			value string
			dst   *uint64
		}{
			{"loan_amount", row[3], &attempt.LoanAmount},
			{"min_profit", row[4], &attempt.MinProfitAmount},
			{"rate_a_num", row[5], &attempt.RateANum},
			{"rate_a_den", row[6], &attempt.RateADen},
			{"rate_b_num", row[8], &attempt.RateBNum},
			{"rate_b_den", row[9], &attempt.RateBDen},
		}

		valid := true
		for _, f := range fields {
			parsed, err := strconv.ParseUint(f.value, 10, 64)
			if err != nil {
				m.logger.Warn("Invalid numeric value, skipping attempt",
					zap.String("field", f.name),
					zap.String("value", f.value),
					zap.Int("row", i+2))
				valid = false
				break
			}
			*f.dst = parsed
		}
		if !valid {
			continue
		}

		slipA, err := parseSlippageBps(row[7])
		if err != nil {
			m.logger.Warn("Invalid slippage_a_bps, skipping attempt", zap.String("value", row[7]), zap.Error(err))
			continue
		}
		slipB, err := parseSlippageBps(row[10])
		if err != nil {
			m.logger.Warn("Invalid slippage_b_bps, skipping attempt", zap.String("value", row[10]), zap.Error(err))
			continue
		}
		attempt.SlippageABps = slipA
		attempt.SlippageBBps = slipB

		if len(row) > 11 {
			attempt.DexAProgram = row[11]
		}
		if len(row) > 12 {
			attempt.DexBProgram = row[12]
		}

		attempts = append(attempts, attempt)
	}

	m.logger.Info("Attempts loaded successfully", zap.Int("count", len(attempts)))
	return attempts, nil
}

func parseSlippageBps(value string) (uint16, error) {
	parsed, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return 0, err
	}
	if parsed > 10_000 {
		return 0, fmt.Errorf("slippage bps out of range: %d", parsed)
	}
	return uint16(parsed), nil
}
