package application_test

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"
	"github.com/veilcash/veild/internal/core/ports"
)

// **** PrivacyPool ****

type mockPrivacyPool struct {
	mock.Mock
}

func (m *mockPrivacyPool) EnsureInitialized(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockPrivacyPool) GetBalance(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockPrivacyPool) Deposit(ctx context.Context, amount uint64) (string, error) {
	args := m.Called(ctx, amount)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockPrivacyPool) Withdraw(
	ctx context.Context, amount uint64, recipient string,
) (string, error) {
	args := m.Called(ctx, amount, recipient)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

// **** ChainService ****

type mockChainService struct {
	mock.Mock
}

func (m *mockChainService) Transfer(
	ctx context.Context, signer ports.TransactionSigner,
	toAddress string, lamports uint64,
) (string, error) {
	args := m.Called(ctx, signer, toAddress, lamports)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockChainService) GetBalance(
	ctx context.Context, address string,
) (uint64, error) {
	args := m.Called(ctx, address)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

// **** TransactionSigner ****

type mockSigner struct {
	mock.Mock
	pubkey solana.PublicKey
}

func (m *mockSigner) PublicKey() solana.PublicKey {
	return m.pubkey
}

func (m *mockSigner) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// **** BalancePoller ****

type mockPoller struct {
	mock.Mock
}

func (m *mockPoller) Pause() {
	m.Called()
}

func (m *mockPoller) Resume() {
	m.Called()
}

func (m *mockPoller) TriggerRefresh() {
	m.Called()
}
