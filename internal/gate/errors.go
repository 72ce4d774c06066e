// internal/gate/errors.go
package gate

import (
	"errors"
	"fmt"
)

// ErrInvalidState возвращается при вызове операции из несовместимого
// состояния шлюза.
var ErrInvalidState = errors.New("operation not allowed in current gate state")

// ProfitabilityError — ожидаемый, частый исход: симуляция прошла, но сделка
// не проходит порог прибыли. Это решение, а не сбой системы; в лог уходит
// предупреждением, не ошибкой.
type ProfitabilityError struct {
	NetProfit int64
	MinProfit uint64
	// Shortfall = minProfit - netProfit, сколько не хватило до порога.
	Shortfall uint64
}

func (e *ProfitabilityError) Error() string {
	return fmt.Sprintf("trade not profitable: net profit %d below threshold %d (shortfall %d)",
		e.NetProfit, e.MinProfit, e.Shortfall)
}

// StaleSnapshotError — попытка исполнить результат, посчитанный для других
// параметров. Всегда фатальна для текущей сессии шлюза: состояние
// сбрасывается в Idle, переопределение не допускается.
type StaleSnapshotError struct {
	Detail string
}

func (e *StaleSnapshotError) Error() string {
	return "stale simulation snapshot: " + e.Detail
}

// TransportError — сбой удалённого вызова (симуляция или отправка).
// Submitted различает неоднозначный сбой после отправки транзакции (она
// могла пройти, вызывающая сторона должна проверить её статус, а не
// повторять вслепую) от сбоя до отправки, который безопасно повторить.
type TransportError struct {
	Op        string // "simulate" или "execute"
	Submitted bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Submitted {
		return fmt.Sprintf("%s failed after submission (status unknown): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed before submission: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
