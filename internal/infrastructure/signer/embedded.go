// Package signer provides the two signing variants the daemon supports: an
// embedded signer holding an in-process private key, and an external signer
// delegating to a caller-supplied provider. The variant is selected once at
// session start, callers only see the ports interfaces.
package signer

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// EmbeddedSigner signs silently with an in-process private key.
type EmbeddedSigner struct {
	key solana.PrivateKey
}

// NewEmbeddedSigner returns a signer over the given 64-byte private key.
func NewEmbeddedSigner(key solana.PrivateKey) (*EmbeddedSigner, error) {
	if len(key) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes")
	}
	return &EmbeddedSigner{key}, nil
}

func (s *EmbeddedSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *EmbeddedSigner) SignTransaction(
	ctx context.Context, tx *solana.Transaction,
) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if s.key.PublicKey().Equals(key) {
			return &s.key
		}
		return nil
	})
	return err
}

func (s *EmbeddedSigner) SignMessage(
	ctx context.Context, message []byte,
) ([]byte, error) {
	sig, err := s.key.Sign(message)
	if err != nil {
		return nil, err
	}
	return sig[:], nil
}
