// =============================
// File: internal/gate/gate.go
// =============================
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/flashloan-bot/internal/accounts"
	"github.com/rovshanmuradov/flashloan-bot/internal/engine"
)

// State — состояние шлюза исполнения.
type State int

const (
	StateIdle State = iota
	StateSimulating
	StateSimulated
	StateExecuting
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSimulating:
		return "simulating"
	case StateSimulated:
		return "simulated"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot фиксирует параметры попытки в момент симуляции. Структура
// сравнима оператором ==: исполнение разрешено только против побайтово
// идентичного снапшота, недавность не считается.
type Snapshot struct {
	Accounts accounts.AccountSet
	Loan     engine.LoanRequest
	LegA     engine.SwapLeg
	LegB     engine.SwapLeg
	FeeBps   uint16
}

// RemoteSimulator запускает симуляцию на ончейн-рантайме и возвращает
// оценку чистой прибыли в базовых единицах токена займа.
type RemoteSimulator interface {
	SimulateArbitrage(ctx context.Context, set *accounts.AccountSet, loan engine.LoanRequest) (int64, error)
}

// Submitter строит, подписывает и отправляет фиксирующую инструкцию,
// дожидаясь подтверждения. Ошибки после отправки обязан оборачивать в
// *TransportError с Submitted=true.
type Submitter interface {
	ExecuteArbitrage(ctx context.Context, set *accounts.AccountSet, loan engine.LoanRequest) (string, error)
}

// Config задаёт зависимости и политику шлюза.
type Config struct {
	Logger *zap.Logger
	// Remote — опциональная кросс-проверка локального движка на ончейн
	// рантайме; nil отключает её.
	Remote    RemoteSimulator
	Submitter Submitter
	// RemoteTolerance — допустимое расхождение локальной и удалённой
	// оценки прибыли (в базовых единицах); при большем расхождении
	// удалённая цифра считается авторитетной, так как отражает реальное
	// состояние сети.
	RemoteTolerance uint64
	// CallTimeout ограничивает удалённый вызов симуляции; дедлайн
	// исполнения задаёт контекст вызывающей стороны. В обоих случаях
	// истечение срока завершает попытку как Aborted, никогда не висит.
	CallTimeout time.Duration
}

// Gate — шлюз «симулируй, проверь свежесть, потом отправляй» для одной
// арбитражной попытки. Экземпляр обслуживает одну логическую сессию;
// параллельные попытки обязаны использовать независимые экземпляры, поэтому
// внутренних блокировок нет. Шлюз никогда не мутирует значения вызывающей
// стороны: он читает снапшот при симуляции и перепроверяет идентичность при
// исполнении.
type Gate struct {
	logger *zap.Logger
	cfg    Config

	state       State
	snapshot    *Snapshot
	result      *engine.SimulationResult
	abortReason string
}

// New создаёт шлюз в состоянии Idle.
func New(cfg Config) *Gate {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		logger: logger.Named("gate"),
		cfg:    cfg,
		state:  StateIdle,
	}
}

// State возвращает текущее состояние шлюза.
func (g *Gate) State() State { return g.state }

// Result возвращает результат последней симуляции, если шлюз в Simulated.
func (g *Gate) Result() *engine.SimulationResult {
	if g.state != StateSimulated {
		return nil
	}
	return g.result
}

// AbortReason возвращает человекочитаемую причину для состояния Aborted.
func (g *Gate) AbortReason() string { return g.abortReason }

// Invalidate сбрасывает сессию в Idle, отбрасывая связанный результат.
// Вызывается при любом изменении параметров после симуляции.
func (g *Gate) Invalidate() {
	if g.state == StateSimulated || g.state == StateAborted {
		g.logger.Debug("Discarding bound simulation result", zap.Stringer("from_state", g.state))
	}
	g.state = StateIdle
	g.snapshot = nil
	g.result = nil
	g.abortReason = ""
}

// Simulate связывает снапшот параметров и вычисляет экономику сделки.
// При включённой кросс-проверке удалённая оценка прибыли сверяется с
// локальной; расхождение сверх допуска решается в пользу удалённой.
//
// Переходы: Idle -> Simulating -> Simulated при проходе порога прибыли,
// иначе -> Aborted с величиной недостачи. Таймаут внешнего вызова также
// ведёт в Aborted; прочие транспортные сбои возвращают шлюз в Idle —
// их можно повторить после исправления.
func (g *Gate) Simulate(ctx context.Context, snap Snapshot) (*engine.SimulationResult, error) {
	if g.state != StateIdle && g.state != StateSimulated {
		return nil, fmt.Errorf("%w: simulate from %s", ErrInvalidState, g.state)
	}
	g.Invalidate()
	g.state = StateSimulating

	result, err := engine.Simulate(snap.Loan, snap.LegA, snap.LegB, snap.FeeBps)
	if err != nil {
		g.state = StateIdle
		return nil, err
	}

	if g.cfg.Remote != nil {
		remote, err := g.remoteNetProfit(ctx, &snap)
		if err != nil {
			if isTimeout(err) {
				g.abort(fmt.Sprintf("remote simulation timed out after %s", g.cfg.CallTimeout))
				return nil, &TransportError{Op: "simulate", Err: err}
			}
			g.state = StateIdle
			return nil, &TransportError{Op: "simulate", Err: err}
		}

		if diff := absDiff(remote, result.NetProfit); diff > g.cfg.RemoteTolerance {
			g.logger.Warn("Remote profit estimate outside tolerance, trusting on-chain figure",
				zap.Int64("local_net_profit", result.NetProfit),
				zap.Int64("remote_net_profit", remote),
				zap.Uint64("tolerance", g.cfg.RemoteTolerance))
			result.NetProfit = remote
			result.IsProfitable = remote >= 0 && uint64(remote) >= snap.Loan.MinProfitAmount
		}
	}

	if !result.IsProfitable {
		shortfall := shortfallOf(result.NetProfit, snap.Loan.MinProfitAmount)
		g.abort(fmt.Sprintf("unprofitable: shortfall %d", shortfall))
		return result, &ProfitabilityError{
			NetProfit: result.NetProfit,
			MinProfit: snap.Loan.MinProfitAmount,
			Shortfall: shortfall,
		}
	}

	g.snapshot = &snap
	g.result = result
	g.state = StateSimulated
	g.logger.Info("Simulation bound",
		zap.Uint64("loan_amount", snap.Loan.LoanAmount),
		zap.Int64("net_profit", result.NetProfit))
	return result, nil
}

// Execute отправляет фиксирующую инструкцию. Разрешено только из Simulated,
// только для прибыльного результата и только против снапшота, идентичного
// связанному — иначе StaleSnapshotError и возврат в Idle.
//
// Отмена до входа в Executing безопасна: побочных эффектов ещё нет. После
// отправки транзакцию отозвать нельзя — шлюз лишь дожидается исхода;
// атомарность заём/возврат обеспечивает сама ончейн-программа.
func (g *Gate) Execute(ctx context.Context, snap Snapshot) (string, error) {
	if g.state != StateSimulated {
		return "", fmt.Errorf("%w: execute from %s", ErrInvalidState, g.state)
	}
	if g.snapshot == nil || *g.snapshot != snap {
		g.Invalidate()
		return "", &StaleSnapshotError{Detail: "parameters changed since simulation"}
	}
	if !g.result.IsProfitable {
		// Сюда попасть нельзя: неприбыльный результат не достигает Simulated.
		g.Invalidate()
		return "", &StaleSnapshotError{Detail: "bound result is not profitable"}
	}

	g.state = StateExecuting

	txID, err := g.cfg.Submitter.ExecuteArbitrage(ctx, &snap.Accounts, snap.Loan)
	if err != nil {
		var terr *TransportError
		if !errors.As(err, &terr) {
			// Отправитель не классифицировал сбой: считаем его
			// до-отправочным, повтор безопасен.
			err = &TransportError{Op: "execute", Err: err}
		}
		if isTimeout(err) {
			g.abort("execution timed out")
		} else {
			g.abort("execution failed: " + err.Error())
		}
		return "", err
	}

	g.state = StateCompleted
	g.logger.Info("Execution confirmed", zap.String("tx", txID))
	return txID, nil
}

func (g *Gate) remoteNetProfit(ctx context.Context, snap *Snapshot) (int64, error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if g.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}
	return g.cfg.Remote.SimulateArbitrage(callCtx, &snap.Accounts, snap.Loan)
}

func (g *Gate) abort(reason string) {
	g.state = StateAborted
	g.abortReason = reason
	g.logger.Warn("Gate aborted", zap.String("reason", reason))
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func shortfallOf(netProfit int64, minProfit uint64) uint64 {
	if netProfit < 0 {
		return minProfit + uint64(-netProfit)
	}
	if uint64(netProfit) >= minProfit {
		return 0
	}
	return minProfit - uint64(netProfit)
}

func absDiff(a, b int64) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}
