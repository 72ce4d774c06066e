// =============================
// File: internal/engine/engine.go
// =============================
package engine

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// Константы движка. MaxLoanAmount — потолок займа, выше которого симуляция
// не запускается: выходные суммы обязаны помещаться в uint64, а чистая
// прибыль — в int64.
const (
	BpsDenominator uint64 = 10_000
	LamportsPerSOL uint64 = 1_000_000_000

	// MinLoanAmount и MaxLoanAmount ограничивают размер флеш-займа в базовых
	// единицах токена.
	MinLoanAmount uint64 = 1
	MaxLoanAmount uint64 = 100_000 * 1_000_000_000
)

var (
	ErrInvalidLoanAmount  = errors.New("loan amount out of bounds")
	ErrInvalidMinProfit   = errors.New("min profit amount must be positive")
	ErrInvalidRate        = errors.New("rate must be positive")
	ErrInvalidSlippage    = errors.New("slippage exceeds 10000 bps")
	ErrInvalidFee         = errors.New("loan fee exceeds 10000 bps")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

// LoanRequest описывает параметры флеш-займа в базовых единицах токена.
type LoanRequest struct {
	LoanAmount      uint64
	MinProfitAmount uint64
}

// Validate проверяет границы займа до запуска симуляции.
func (r LoanRequest) Validate() error {
	if r.LoanAmount < MinLoanAmount || r.LoanAmount > MaxLoanAmount {
		return fmt.Errorf("%w: %d (allowed %d..%d)", ErrInvalidLoanAmount, r.LoanAmount, MinLoanAmount, MaxLoanAmount)
	}
	if r.MinProfitAmount == 0 {
		return ErrInvalidMinProfit
	}
	return nil
}

// SwapLeg описывает одно плечо маршрута: ожидаемый курс выхода к входу в виде
// рациональной дроби и допустимое проскальзывание в базисных пунктах.
type SwapLeg struct {
	RateNum     uint64
	RateDen     uint64
	SlippageBps uint16
}

// Validate проверяет курс и проскальзывание плеча.
func (l SwapLeg) Validate() error {
	if l.RateNum == 0 || l.RateDen == 0 {
		return ErrInvalidRate
	}
	if uint64(l.SlippageBps) > BpsDenominator {
		return ErrInvalidSlippage
	}
	return nil
}

// SimulationResult — результат одной симуляции. Все суммы в базовых единицах
// токена займа (выход плеча A — в единицах промежуточного токена).
type SimulationResult struct {
	InputAmount     uint64
	LegAOutput      uint64
	LegBOutput      uint64
	LoanFee         uint64
	RepaymentAmount uint64
	NetProfit       int64
	IsProfitable    bool
}

// Simulate вычисляет исход двухплечевого арбитража для заданного займа.
//
// Порядок вычислений фиксирован и совместим с ончейн-расчётом: на каждом
// шаге деления используется усечение вниз (floor), никогда округление к
// ближайшему — иначе симуляция завысит достижимую прибыль. Эффективный курс
// плеча: rate * (10000 - slippageBps) / 10000.
//
// Функция чистая: одинаковые входы всегда дают побитово одинаковый результат.
func Simulate(loan LoanRequest, legA, legB SwapLeg, loanFeeBps uint16) (*SimulationResult, error) {
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	if err := legA.Validate(); err != nil {
		return nil, fmt.Errorf("leg A: %w", err)
	}
	if err := legB.Validate(); err != nil {
		return nil, fmt.Errorf("leg B: %w", err)
	}
	if uint64(loanFeeBps) > BpsDenominator {
		return nil, ErrInvalidFee
	}

	legAOutput, err := applyLeg(loan.LoanAmount, legA)
	if err != nil {
		return nil, fmt.Errorf("leg A: %w", err)
	}

	legBOutput, err := applyLeg(legAOutput, legB)
	if err != nil {
		return nil, fmt.Errorf("leg B: %w", err)
	}

	// loanFee = floor(loanAmount * feeBps / 10000)
	loanFee := mulDivFloor(loan.LoanAmount, uint64(loanFeeBps), BpsDenominator)

	repayment := loan.LoanAmount + loanFee

	netProfit := new(big.Int).SetUint64(legBOutput)
	netProfit.Sub(netProfit, new(big.Int).SetUint64(repayment))
	if !netProfit.IsInt64() {
		return nil, fmt.Errorf("net profit: %w", ErrArithmeticOverflow)
	}
	profit := netProfit.Int64()

	return &SimulationResult{
		InputAmount:     loan.LoanAmount,
		LegAOutput:      legAOutput,
		LegBOutput:      legBOutput,
		LoanFee:         loanFee,
		RepaymentAmount: repayment,
		NetProfit:       profit,
		IsProfitable:    profit >= 0 && uint64(profit) >= loan.MinProfitAmount,
	}, nil
}

// applyLeg возвращает floor(amount * rate * (10000 - slippageBps) / 10000).
// Промежуточные произведения считаются в math/big и не переполняются;
// ошибка возвращается, если итоговая сумма не помещается в uint64.
func applyLeg(amount uint64, leg SwapLeg) (uint64, error) {
	out := new(big.Int).SetUint64(amount)
	out.Mul(out, new(big.Int).SetUint64(leg.RateNum))
	out.Mul(out, new(big.Int).SetUint64(BpsDenominator-uint64(leg.SlippageBps)))

	den := new(big.Int).SetUint64(leg.RateDen)
	den.Mul(den, new(big.Int).SetUint64(BpsDenominator))

	out.Quo(out, den)
	if !out.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return out.Uint64(), nil
}

// mulDivFloor возвращает floor(a * b / den) без переполнения промежуточного
// произведения.
func mulDivFloor(a, b, den uint64) uint64 {
	res := new(big.Int).SetUint64(a)
	res.Mul(res, new(big.Int).SetUint64(b))
	res.Quo(res, new(big.Int).SetUint64(den))
	if !res.IsUint64() {
		return math.MaxUint64
	}
	return res.Uint64()
}
