package ports

import "context"

// PrivacyPool is the client-side contract of the external private-balance
// service. The funding service treats it as a black box around the
// deposit/withdraw/balance operations.
type PrivacyPool interface {
	// EnsureInitialized derives and caches the shielded credential for the
	// owner account by signing the fixed credential message. It is a no-op
	// when a credential for the current owner is already cached.
	EnsureInitialized(ctx context.Context) error
	// GetBalance returns the current private balance in lamports. An empty
	// or uninitialized account yields zero, not an error.
	GetBalance(ctx context.Context) (uint64, error)
	// Deposit moves amount from the public balance into the private pool
	// and returns the transaction signature. Proof generation makes this a
	// long call, it must be awaited to completion.
	Deposit(ctx context.Context, amount uint64) (string, error)
	// Withdraw moves amount out of the private pool to the recipient public
	// address. The pool deducts its own fee and rent from the requested
	// amount, callers compensate by requesting the gross amount.
	Withdraw(ctx context.Context, amount uint64, recipient string) (string, error)
}
