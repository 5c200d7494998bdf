package domain

import "crypto/sha256"

// ShieldedCredential is the secret that authorizes private-balance operations
// for one account. It is derived once from the signature of a fixed message
// and cached by the pool client, re-signing on every operation is avoided on
// purpose.
type ShieldedCredential struct {
	OwnerAddress string
	secret       [sha256.Size]byte
}

// NewShieldedCredential derives the credential for the given owner address
// from the signature over the fixed credential message.
func NewShieldedCredential(ownerAddress string, signedMessage []byte) ShieldedCredential {
	return ShieldedCredential{
		OwnerAddress: ownerAddress,
		secret:       sha256.Sum256(signedMessage),
	}
}

// Secret returns the raw credential bytes.
func (c ShieldedCredential) Secret() []byte {
	return c.secret[:]
}

// Matches returns whether the credential belongs to the given address. A
// credential must be invalidated whenever the owner address changes.
func (c ShieldedCredential) Matches(ownerAddress string) bool {
	return c.OwnerAddress == ownerAddress
}
