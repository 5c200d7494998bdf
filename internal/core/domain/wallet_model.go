package domain

import (
	"github.com/gagliardetto/solana-go"
)

// DerivedWallet is a keypair deterministically derived from a seed phrase at
// a fixed path. Never mutated after creation.
type DerivedWallet struct {
	Index      uint32
	PublicKey  solana.PublicKey
	PrivateKey solana.PrivateKey
}

// Address returns the base58 encoding of the wallet public key.
func (w DerivedWallet) Address() string {
	return w.PublicKey.String()
}

// WalletSet holds the ordered wallets derived from a single mnemonic. The
// mnemonic is kept private to the set and must never cross the trust
// boundary of the holder.
type WalletSet struct {
	mnemonic string
	Wallets  []DerivedWallet
}

// NewWalletSet returns a wallet set after checking index uniqueness.
func NewWalletSet(mnemonic string, wallets []DerivedWallet) (*WalletSet, error) {
	if len(mnemonic) == 0 {
		return nil, ErrNullMnemonic
	}
	seen := make(map[uint32]struct{}, len(wallets))
	for _, w := range wallets {
		if _, ok := seen[w.Index]; ok {
			return nil, ErrDuplicateWalletIndex
		}
		seen[w.Index] = struct{}{}
	}
	return &WalletSet{mnemonic: mnemonic, Wallets: wallets}, nil
}

// Mnemonic returns the seed phrase backing the set.
func (ws *WalletSet) Mnemonic() string {
	return ws.mnemonic
}
