package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	generated := solana.NewWallet()

	w, err := NewWallet(generated.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, generated.PublicKey(), w.PublicKey)
	assert.Equal(t, w.PublicKey.String(), w.String())
}

func TestNewWallet_InvalidKey(t *testing.T) {
	_, err := NewWallet("not-base58!!")
	assert.ErrorContains(t, err, "failed to decode private key")

	_, err = NewWallet("3yZe7d") // слишком короткий ключ
	assert.ErrorContains(t, err, "invalid private key length")
}

func TestLoadWallets(t *testing.T) {
	w1 := solana.NewWallet()
	w2 := solana.NewWallet()

	path := filepath.Join(t.TempDir(), "wallets.csv")
	content := "Name,PrivateKey\nmain," + w1.PrivateKey.String() + "\nbackup," + w2.PrivateKey.String() + "\nbroken,xxx\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	wallets, err := LoadWallets(path)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, w1.PublicKey(), wallets["main"].PublicKey)
	assert.Equal(t, w2.PublicKey(), wallets["backup"].PublicKey)
}

func TestLoadWallets_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,PrivateKey\n"), 0o600))

	_, err := LoadWallets(path)
	assert.ErrorContains(t, err, "empty or missing data")
}

func TestGetATA_Cached(t *testing.T) {
	w, err := NewWallet(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	first, err := w.GetATA(mint)
	require.NoError(t, err)

	second, err := w.GetATA(mint)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
}

func TestSignTransaction(t *testing.T) {
	w, err := NewWallet(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
				solana.Meta(w.PublicKey).WRITE().SIGNER(),
			}, []byte{0}),
		},
		solana.Hash{1},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransaction(tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}
