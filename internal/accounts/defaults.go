// internal/accounts/defaults.go
package accounts

import (
	"errors"
	"fmt"
)

// ErrUnknownToken возвращается для токена без преднастроенного профиля.
var ErrUnknownToken = errors.New("no default profile for token")

// Адресная книга Port Finance (devnet). Профиль по умолчанию строит маршрут
// «токен -> USDC -> токен» через резервы протокола.
const (
	portLendingProgram = "pdQ2rQQU5zH2rDgZ7xH2azMBJegUzUyunJ5Jd637hC4"
	portLendingMarket  = "H27Quk3DSbu55T4dCr1NddTTSAezXwHU67FPCZVKLhSW"
)

type tokenProfile struct {
	reserve string
	mint    string
	supply  string
}

var portProfiles = map[string]tokenProfile{
	"SOL": {
		reserve: "6FeVStQAGPWvfWijDHF7cTWRCi7He6vTT3ubfNhe9SPt",
		mint:    "So11111111111111111111111111111111111111112",
		supply:  "AbKeR7nQdHPDddiDQ71YUsz1F138a7cJMfJVtpdYUSvE",
	},
	"USDC": {
		reserve: "G1CcAWGhfxhHQaivC1Sh5CWVta6P4dc7a5BDSg9ERjV1",
		mint:    "G6YKv19AeGZ6pUYUwY9D7n4Ry9ESNFa376YqwEkUkhbi",
		supply:  "GAPyFes3o7S7coY9nsuhaRZBEA7DdQPHBfVdY2DdgNua",
	},
	"USDT": {
		reserve: "B4dnCXcWXSXy1g3fGAmF6P2XgsLTFYaQxYpsU3VCB33Q",
		mint:    "9NGDi2tZtNmCCp8SVLKNuGjuWAVwNF3Vap5tT8km5er9",
		supply:  "AeGbAqYZUURTykyCsgAUfopBMqQ3eAwrDxYhXoRhiw8q",
	},
	"BTC": {
		reserve: "A8krqNC1WpWYhqUe2Y5WbLd1Zy4y2rRN5wJC8o9Scbyk",
		mint:    "EbwEYuUQHxcSHszxPBhA2nT2JxhiNwJedwjsctJnLmsC",
		supply:  "75iyCxiPoj3MaUVo3SynmhaN3cbLDEhd4d9VHik6Kkvr",
	},
	"MER": {
		reserve: "FdPnmYS7Ma8jfSy7UHAN5QM6teoqwd3vLQtoU6r2Umwy",
		mint:    "Tm9LcR74uJHPw3zY3j3nSh5xfcyaLbvXgAtTJwbqnnp",
		supply:  "AMjhzse1TtTcKBFw5tQPLGtVoEsL4gt9YowNnzMKEGUr",
	},
}

// Через USDC строится встречный маршрут для всех токенов; для самого USDC —
// через SOL.
const counterToken = "USDC"

// DefaultsFor возвращает сырые поля профиля по умолчанию для заданного
// токена. Поля, зависящие от оператора (authority, его токен-аккаунты),
// остаются пустыми и должны быть заполнены вызывающей стороной до Resolve.
func DefaultsFor(token string) (map[string]string, error) {
	profile, ok := portProfiles[token]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}

	counter := portProfiles[counterToken]
	if token == counterToken {
		counter = portProfiles["SOL"]
	}

	return map[string]string{
		FieldLendingProgram:     portLendingProgram,
		FieldLoanReserveAccount: profile.reserve,
		FieldLendingFeeAccount:  profile.supply,

		// Плечо A: токен займа -> встречный токен
		FieldDexAProgram:            portLendingProgram,
		FieldDexAPool:               portLendingMarket,
		FieldDexAInputTokenAccount:  profile.supply,
		FieldDexAOutputTokenAccount: counter.supply,
		FieldDexATokenAAccount:      profile.mint,
		FieldDexATokenBAccount:      counter.mint,

		// Плечо B: встречный токен -> токен займа
		FieldDexBPool:               portLendingMarket,
		FieldDexBInputTokenAccount:  counter.supply,
		FieldDexBOutputTokenAccount: profile.supply,
		FieldDexBTokenAAccount:      counter.mint,
		FieldDexBTokenBAccount:      profile.mint,
	}, nil
}

// MintFor возвращает mint токена из преднастроенного профиля.
func MintFor(token string) (string, error) {
	profile, ok := portProfiles[token]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	return profile.mint, nil
}

// SupportedTokens перечисляет токены с преднастроенными профилями.
func SupportedTokens() []string {
	return []string{"SOL", "USDC", "USDT", "BTC", "MER"}
}
