// Package hdwallet derives deterministic Solana keypairs from a BIP39
// mnemonic at the standard m/44'/501'/index'/0' path, using SLIP-0010
// derivation for the ed25519 curve.
package hdwallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"
)

var (
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")

	// ed25519 can only use hardened derivation.
	hardenedOffset = uint32(0x80000000)

	masterKeySalt = []byte("ed25519 seed")
)

// NewMnemonic returns a fresh mnemonic generated from entropy of the given
// size in bits.
func NewMnemonic(entropySize int) ([]string, error) {
	if entropySize < 128 || entropySize > 256 || entropySize%32 != 0 {
		return nil, ErrInvalidEntropySize
	}
	entropy, err := bip39.NewEntropy(entropySize)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return strings.Split(mnemonic, " "), nil
}

// IsMnemonicValid returns whether the given mnemonic passes the BIP39
// checksum.
func IsMnemonicValid(mnemonic []string) bool {
	return bip39.IsMnemonicValid(strings.Join(mnemonic, " "))
}

// DeriveKey derives the keypair of the wallet with the given index from the
// mnemonic at m/44'/501'/index'/0'.
func DeriveKey(mnemonic []string, index uint32) (solana.PrivateKey, error) {
	if !IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(strings.Join(mnemonic, " "), "")
	key, chainCode := masterKeyFromSeed(seed)
	for _, step := range []uint32{44, 501, index, 0} {
		key, chainCode = deriveHardenedChild(key, chainCode, step+hardenedOffset)
	}

	priv := ed25519.NewKeyFromSeed(key)
	return solana.PrivateKey(priv), nil
}

// DeriveKeys derives the keypairs of the first num wallets in index order.
func DeriveKeys(mnemonic []string, num int) ([]solana.PrivateKey, error) {
	keys := make([]solana.PrivateKey, 0, num)
	for i := 0; i < num; i++ {
		key, err := DeriveKey(mnemonic, uint32(i))
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func masterKeyFromSeed(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, masterKeySalt)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func deriveHardenedChild(key, chainCode []byte, index uint32) (childKey, childChainCode []byte) {
	data := make([]byte, 0, 1+len(key)+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
