// internal/accounts/accounts.go
package accounts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Имена полей набора аккаунтов. Порядок и состав соответствуют аккаунтам
// инструкции flash_loan_and_arbitrage ончейн-программы.
const (
	FieldLendingProgram     = "lendingProgram"
	FieldLoanTokenAccount   = "loanTokenAccount"
	FieldLoanReserveAccount = "loanReserveAccount"
	FieldLendingFeeAccount  = "lendingFeeAccount"

	FieldDexAProgram            = "dexAProgram"
	FieldDexAPool               = "dexAPool"
	FieldDexAAuthority          = "dexAAuthority"
	FieldDexAInputTokenAccount  = "dexAInputTokenAccount"
	FieldDexAOutputTokenAccount = "dexAOutputTokenAccount"
	FieldDexATokenAAccount      = "dexATokenAAccount"
	FieldDexATokenBAccount      = "dexATokenBAccount"

	FieldDexBProgram            = "dexBProgram"
	FieldDexBPool               = "dexBPool"
	FieldDexBAuthority          = "dexBAuthority"
	FieldDexBInputTokenAccount  = "dexBInputTokenAccount"
	FieldDexBOutputTokenAccount = "dexBOutputTokenAccount"
	FieldDexBTokenAAccount      = "dexBTokenAAccount"
	FieldDexBTokenBAccount      = "dexBTokenBAccount"
)

// requiredFields — полный список обязательных полей.
var requiredFields = []string{
	FieldLendingProgram,
	FieldLoanTokenAccount,
	FieldLoanReserveAccount,
	FieldLendingFeeAccount,
	FieldDexAProgram,
	FieldDexAPool,
	FieldDexAAuthority,
	FieldDexAInputTokenAccount,
	FieldDexAOutputTokenAccount,
	FieldDexATokenAAccount,
	FieldDexATokenBAccount,
	FieldDexBProgram,
	FieldDexBPool,
	FieldDexBAuthority,
	FieldDexBInputTokenAccount,
	FieldDexBOutputTokenAccount,
	FieldDexBTokenAAccount,
	FieldDexBTokenBAccount,
}

// AccountSet — неизменяемый набор адресов для одной арбитражной попытки.
// Изменение любого поля означает новый AccountSet; структура сравнима
// оператором ==, что используется шлюзом исполнения для проверки
// актуальности снапшота.
type AccountSet struct {
	LendingProgram     solana.PublicKey
	LoanTokenAccount   solana.PublicKey
	LoanReserveAccount solana.PublicKey
	LendingFeeAccount  solana.PublicKey

	DexAProgram            solana.PublicKey
	DexAPool               solana.PublicKey
	DexAAuthority          solana.PublicKey
	DexAInputTokenAccount  solana.PublicKey
	DexAOutputTokenAccount solana.PublicKey
	DexATokenAAccount      solana.PublicKey
	DexATokenBAccount      solana.PublicKey

	DexBProgram            solana.PublicKey
	DexBPool               solana.PublicKey
	DexBAuthority          solana.PublicKey
	DexBInputTokenAccount  solana.PublicKey
	DexBOutputTokenAccount solana.PublicKey
	DexBTokenAAccount      solana.PublicKey
	DexBTokenBAccount      solana.PublicKey
}

// ValidationError агрегирует все проблемы набора аккаунтов за один проход,
// чтобы оператор мог исправить весь ввод сразу, а не по одному полю.
type ValidationError struct {
	// InvalidFields — имена пустых или синтаксически некорректных полей.
	InvalidFields []string
	// SameDex выставляется, когда программа DEX A совпадает с программой
	// DEX B: такой маршрут вырождается в no-op и отклоняется.
	SameDex bool
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.InvalidFields) > 0 {
		parts = append(parts, fmt.Sprintf("invalid account fields: %s", strings.Join(e.InvalidFields, ", ")))
	}
	if e.SameDex {
		parts = append(parts, "dex A and dex B programs must differ")
	}
	if len(parts) == 0 {
		return "invalid account set"
	}
	return strings.Join(parts, "; ")
}

// Resolve валидирует и собирает AccountSet из сырого ввода оператора.
// Валидация чисто синтаксическая, без обращений к сети. Все некорректные
// поля возвращаются одной ошибкой (не fail-fast).
func Resolve(raw map[string]string) (*AccountSet, error) {
	parsed := make(map[string]solana.PublicKey, len(requiredFields))
	var invalid []string

	for _, field := range requiredFields {
		value, ok := raw[field]
		if !ok || value == "" {
			invalid = append(invalid, field)
			continue
		}
		key, err := solana.PublicKeyFromBase58(value)
		if err != nil {
			invalid = append(invalid, field)
			continue
		}
		parsed[field] = key
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, &ValidationError{InvalidFields: invalid}
	}

	if parsed[FieldDexAProgram].Equals(parsed[FieldDexBProgram]) {
		return nil, &ValidationError{SameDex: true}
	}

	return &AccountSet{
		LendingProgram:     parsed[FieldLendingProgram],
		LoanTokenAccount:   parsed[FieldLoanTokenAccount],
		LoanReserveAccount: parsed[FieldLoanReserveAccount],
		LendingFeeAccount:  parsed[FieldLendingFeeAccount],

		DexAProgram:            parsed[FieldDexAProgram],
		DexAPool:               parsed[FieldDexAPool],
		DexAAuthority:          parsed[FieldDexAAuthority],
		DexAInputTokenAccount:  parsed[FieldDexAInputTokenAccount],
		DexAOutputTokenAccount: parsed[FieldDexAOutputTokenAccount],
		DexATokenAAccount:      parsed[FieldDexATokenAAccount],
		DexATokenBAccount:      parsed[FieldDexATokenBAccount],

		DexBProgram:            parsed[FieldDexBProgram],
		DexBPool:               parsed[FieldDexBPool],
		DexBAuthority:          parsed[FieldDexBAuthority],
		DexBInputTokenAccount:  parsed[FieldDexBInputTokenAccount],
		DexBOutputTokenAccount: parsed[FieldDexBOutputTokenAccount],
		DexBTokenAAccount:      parsed[FieldDexBTokenAAccount],
		DexBTokenBAccount:      parsed[FieldDexBTokenBAccount],
	}, nil
}

// Equal сравнивает два набора поле в поле.
func (s *AccountSet) Equal(other *AccountSet) bool {
	if s == nil || other == nil {
		return s == other
	}
	return *s == *other
}
