package accounts

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRawFields собирает полный корректный набор: профиль SOL плюс поля
// оператора и отличная от DEX A программа для DEX B.
func validRawFields(t *testing.T) map[string]string {
	t.Helper()

	raw, err := DefaultsFor("SOL")
	require.NoError(t, err)

	operator := solana.NewWallet().PublicKey().String()
	raw[FieldLoanTokenAccount] = operator
	raw[FieldDexAAuthority] = operator
	raw[FieldDexBAuthority] = operator
	raw[FieldDexBProgram] = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	return raw
}

func TestResolve_Valid(t *testing.T) {
	raw := validRawFields(t)

	set, err := Resolve(raw)
	require.NoError(t, err)
	require.NotNil(t, set)

	assert.Equal(t, raw[FieldLendingProgram], set.LendingProgram.String())
	assert.Equal(t, raw[FieldDexBProgram], set.DexBProgram.String())
	assert.False(t, set.DexAProgram.Equals(set.DexBProgram))
}

// Все некорректные поля должны попасть в одну ошибку, а не обрываться на
// первом.
func TestResolve_CollectsAllInvalidFields(t *testing.T) {
	raw := validRawFields(t)
	raw[FieldLendingProgram] = "not-base58-!!!"
	raw[FieldDexAPool] = ""
	delete(raw, FieldDexBTokenBAccount)

	_, err := Resolve(raw)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t,
		[]string{FieldLendingProgram, FieldDexAPool, FieldDexBTokenBAccount},
		verr.InvalidFields)
	assert.False(t, verr.SameDex)
}

func TestResolve_SameDexRejected(t *testing.T) {
	raw := validRawFields(t)
	raw[FieldDexBProgram] = raw[FieldDexAProgram]

	_, err := Resolve(raw)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.SameDex)
	assert.Empty(t, verr.InvalidFields)
}

func TestResolve_EmptyInput(t *testing.T) {
	_, err := Resolve(map[string]string{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.InvalidFields, len(requiredFields))
}

func TestAccountSet_Equal(t *testing.T) {
	raw := validRawFields(t)

	first, err := Resolve(raw)
	require.NoError(t, err)
	second, err := Resolve(raw)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))

	raw[FieldDexAPool] = solana.NewWallet().PublicKey().String()
	third, err := Resolve(raw)
	require.NoError(t, err)
	assert.False(t, first.Equal(third))
}

func TestDefaultsFor_UnknownToken(t *testing.T) {
	_, err := DefaultsFor("DOGE")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestDefaultsFor_AllSupportedTokens(t *testing.T) {
	for _, token := range SupportedTokens() {
		raw, err := DefaultsFor(token)
		require.NoError(t, err, token)

		// Адреса профиля должны быть синтаксически корректны
		for field, value := range raw {
			if value == "" {
				continue
			}
			_, err := solana.PublicKeyFromBase58(value)
			assert.NoError(t, err, "%s/%s", token, field)
		}
		// Маршрут не должен замыкаться сам на себя
		assert.NotEqual(t, raw[FieldDexAInputTokenAccount], raw[FieldDexAOutputTokenAccount], token)
	}
}
