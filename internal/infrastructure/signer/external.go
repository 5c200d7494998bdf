package signer

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrMissingProvider ...
	ErrMissingProvider = errors.New("external signer requires both signing callbacks")
)

// SignTransactionFunc prompts the external provider to sign the transaction
// in place. It may block on human interaction.
type SignTransactionFunc func(ctx context.Context, tx *solana.Transaction) error

// SignMessageFunc prompts the external provider to sign an arbitrary
// payload.
type SignMessageFunc func(ctx context.Context, message []byte) ([]byte, error)

// ExternalSigner delegates signing to an external wallet provider probed
// once at session start.
type ExternalSigner struct {
	pubkey  solana.PublicKey
	signTx  SignTransactionFunc
	signMsg SignMessageFunc
}

// NewExternalSigner returns a signer that forwards every signing request to
// the given callbacks.
func NewExternalSigner(
	pubkey solana.PublicKey,
	signTx SignTransactionFunc, signMsg SignMessageFunc,
) (*ExternalSigner, error) {
	if signTx == nil || signMsg == nil {
		return nil, ErrMissingProvider
	}
	return &ExternalSigner{pubkey, signTx, signMsg}, nil
}

func (s *ExternalSigner) PublicKey() solana.PublicKey {
	return s.pubkey
}

func (s *ExternalSigner) SignTransaction(
	ctx context.Context, tx *solana.Transaction,
) error {
	return s.signTx(ctx, tx)
}

func (s *ExternalSigner) SignMessage(
	ctx context.Context, message []byte,
) ([]byte, error) {
	return s.signMsg(ctx, message)
}
