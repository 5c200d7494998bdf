package ports

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// TransactionSigner signs transactions on behalf of the funding account. The
// funding service is signer-agnostic: the implementation may sign silently
// with an in-process key or prompt a human through an external provider.
type TransactionSigner interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// MessageSigner signs arbitrary payloads, used once per account to derive
// the shielded credential.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}
