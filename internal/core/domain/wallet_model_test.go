package domain_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"github.com/veilcash/veild/internal/core/domain"
)

func newDerivedWallet(index uint32) domain.DerivedWallet {
	w := solana.NewWallet()
	return domain.DerivedWallet{
		Index:      index,
		PublicKey:  w.PublicKey(),
		PrivateKey: w.PrivateKey,
	}
}

func TestNewWalletSet(t *testing.T) {
	wallets := []domain.DerivedWallet{
		newDerivedWallet(1), newDerivedWallet(2), newDerivedWallet(3),
	}

	set, err := domain.NewWalletSet("abandon ability able", wallets)
	require.NoError(t, err)
	require.Len(t, set.Wallets, 3)
	require.Equal(t, "abandon ability able", set.Mnemonic())
	require.Equal(t, wallets[0].PublicKey.String(), set.Wallets[0].Address())
}

func TestFailingNewWalletSet(t *testing.T) {
	tests := []struct {
		name          string
		mnemonic      string
		wallets       []domain.DerivedWallet
		expectedError error
	}{
		{
			"empty_mnemonic",
			"",
			[]domain.DerivedWallet{newDerivedWallet(1)},
			domain.ErrNullMnemonic,
		},
		{
			"duplicate_index",
			"abandon ability able",
			[]domain.DerivedWallet{newDerivedWallet(1), newDerivedWallet(1)},
			domain.ErrDuplicateWalletIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewWalletSet(tt.mnemonic, tt.wallets)
			require.EqualError(t, err, tt.expectedError.Error())
		})
	}
}

func TestShieldedCredential(t *testing.T) {
	owner := solana.NewWallet().PublicKey().String()
	credential := domain.NewShieldedCredential(owner, []byte("signature bytes"))

	require.Len(t, credential.Secret(), 32)
	require.True(t, credential.Matches(owner))
	require.False(t, credential.Matches(solana.NewWallet().PublicKey().String()))

	// same signature, same secret: the credential is deterministic.
	again := domain.NewShieldedCredential(owner, []byte("signature bytes"))
	require.Equal(t, credential.Secret(), again.Secret())

	other := domain.NewShieldedCredential(owner, []byte("other signature"))
	require.NotEqual(t, credential.Secret(), other.Secret())
}
