package ports

import "context"

// ChainService submits plain on-chain transactions and reads public
// balances.
type ChainService interface {
	// Transfer sends lamports from the signer account to the given address,
	// awaits confirmation up to a bounded number of retries and returns the
	// transaction signature.
	Transfer(
		ctx context.Context, signer TransactionSigner,
		toAddress string, lamports uint64,
	) (string, error)
	// GetBalance returns the public balance of the given address in
	// lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)
}
