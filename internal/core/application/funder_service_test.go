package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/veilcash/veild/internal/core/application"
	"github.com/veilcash/veild/internal/core/domain"
	"github.com/veilcash/veild/internal/core/ports"
	"github.com/veilcash/veild/internal/infrastructure/storage/db/inmemory"
	"go.uber.org/ratelimit"
)

const (
	oneSol        = uint64(1000000000)
	grossPerSol   = uint64(1009500000) // 1 SOL + 0.35% fee + 0.006 SOL rent
	withdrawFeeBP = uint64(35)
	rentLamports  = uint64(6000000)
	protocolFeeBP = uint64(50)
)

var treasuryAddress = solana.NewWallet().PublicKey().String()

type testEnv struct {
	pool   *mockPrivacyPool
	chain  *mockChainService
	poller *mockPoller
	repo   domain.TaskRepository
	svc    *application.FunderService
}

func newTestEnv(t *testing.T) *testEnv {
	pool := &mockPrivacyPool{}
	chain := &mockChainService{}
	poller := &mockPoller{}
	poller.On("Pause").Return()
	poller.On("Resume").Return()
	poller.On("TriggerRefresh").Return()

	signer := &mockSigner{pubkey: solana.NewWallet().PublicKey()}
	repo := inmemory.NewTaskRepositoryImpl()

	svc, err := application.NewFunderService(application.FunderServiceOpts{
		PrivacyPool:           pool,
		ChainService:          chain,
		TxSigner:              signer,
		TaskRepository:        repo,
		BalancePoller:         poller,
		TreasuryAddress:       treasuryAddress,
		ProtocolFeeBasisPoint: protocolFeeBP,
		WithdrawFeeBasisPoint: withdrawFeeBP,
		WithdrawRentLamports:  rentLamports,
		Pacer:                 ratelimit.NewUnlimited(),
	})
	require.NoError(t, err)

	return &testEnv{pool, chain, poller, repo, svc}
}

func newRecipients(num int) []domain.DerivedWallet {
	recipients := make([]domain.DerivedWallet, 0, num)
	for i := 0; i < num; i++ {
		wallet := solana.NewWallet()
		recipients = append(recipients, domain.DerivedWallet{
			Index:      uint32(i),
			PublicKey:  wallet.PublicKey(),
			PrivateKey: wallet.PrivateKey,
		})
	}
	return recipients
}

func TestFundWithShielding(t *testing.T) {
	env := newTestEnv(t)
	recipients := newRecipients(3)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(0), nil).Once()
	env.pool.On("GetBalance", mock.Anything).Return(uint64(3028500000), nil)
	env.chain.On(
		"Transfer", mock.Anything, mock.Anything, treasuryAddress, uint64(15142500),
	).Return("feesig", nil)
	env.pool.On("Deposit", mock.Anything, uint64(3028500000)).Return("depositsig", nil)
	for i, recipient := range recipients {
		env.pool.On(
			"Withdraw", mock.Anything, grossPerSol, recipient.Address(),
		).Return(fmt.Sprintf("withdrawsig%d", i), nil)
	}

	report, err := env.svc.Fund(context.Background(), recipients, oneSol, nil)
	require.NoError(t, err)
	require.Equal(t, domain.FundingRunStatusCompleted, report.Status)
	require.Equal(t, 3, report.SuccessCount)
	require.Equal(t, 3, report.Total)

	env.chain.AssertNumberOfCalls(t, "Transfer", 1)
	env.pool.AssertNumberOfCalls(t, "Deposit", 1)
	env.pool.AssertNumberOfCalls(t, "Withdraw", 3)

	for i, task := range report.Tasks {
		require.Equal(t, recipients[i].Address(), task.RecipientAddress)
		require.Equal(t, domain.FundingTaskStatusSucceeded, task.Status)
		require.Equal(t, fmt.Sprintf("withdrawsig%d", i), task.TxSignature)
	}
}

func TestFundSkipsShieldingWhenBalanceSuffices(t *testing.T) {
	env := newTestEnv(t)
	recipients := newRecipients(2)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(5000000000), nil)
	env.pool.On("Withdraw", mock.Anything, grossPerSol, mock.Anything).
		Return("withdrawsig", nil)

	report, err := env.svc.Fund(context.Background(), recipients, oneSol, nil)
	require.NoError(t, err)
	require.Equal(t, domain.FundingRunStatusCompleted, report.Status)
	require.Equal(t, 2, report.SuccessCount)

	env.chain.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	env.pool.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything)
}

func TestFundTolerantOfSingleWithdrawalFailure(t *testing.T) {
	env := newTestEnv(t)
	recipients := newRecipients(5)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(10000000000), nil)
	for i, recipient := range recipients {
		if i == 1 {
			env.pool.On(
				"Withdraw", mock.Anything, grossPerSol, recipient.Address(),
			).Return("", errors.New("relay timeout"))
			continue
		}
		env.pool.On(
			"Withdraw", mock.Anything, grossPerSol, recipient.Address(),
		).Return(fmt.Sprintf("withdrawsig%d", i), nil)
	}

	report, err := env.svc.Fund(context.Background(), recipients, oneSol, nil)
	require.NoError(t, err)

	// a per-task failure does not fail the run, later recipients are still
	// attempted in order.
	require.Equal(t, domain.FundingRunStatusCompleted, report.Status)
	require.Equal(t, 4, report.SuccessCount)
	require.Equal(t, 5, report.Total)
	env.pool.AssertNumberOfCalls(t, "Withdraw", 5)

	require.Equal(t, domain.FundingTaskStatusFailed, report.Tasks[1].Status)
	require.Contains(t, report.Tasks[1].ErrorDetail, "relay timeout")
	for _, i := range []int{0, 2, 3, 4} {
		require.Equal(t, domain.FundingTaskStatusSucceeded, report.Tasks[i].Status)
	}
}

func TestFundRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Fund(context.Background(), nil, oneSol, nil)
	require.EqualError(t, err, domain.ErrEmptyRecipients.Error())

	_, err = env.svc.Fund(context.Background(), newRecipients(1), 0, nil)
	require.EqualError(t, err, domain.ErrZeroAmount.Error())

	// preconditions are checked before any state transition.
	require.Equal(t, domain.FundingRunStatusIdle, env.svc.CurrentRun().Status)
	env.pool.AssertNotCalled(t, "EnsureInitialized", mock.Anything)
}

func TestFundFatalOnCredentialRejection(t *testing.T) {
	env := newTestEnv(t)

	env.pool.On("EnsureInitialized", mock.Anything).
		Return(errors.New("user rejected signature"))

	_, err := env.svc.Fund(context.Background(), newRecipients(2), oneSol, nil)
	require.Error(t, err)
	require.Equal(t, domain.FundingRunStatusFailed, env.svc.CurrentRun().Status)
	env.pool.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything, mock.Anything)
}

func TestFundFatalOnProtocolFeeTransferFailure(t *testing.T) {
	env := newTestEnv(t)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(0), nil)
	env.chain.On(
		"Transfer", mock.Anything, mock.Anything, treasuryAddress, mock.Anything,
	).Return("", errors.New("blockhash not found"))

	report, err := env.svc.Fund(context.Background(), newRecipients(2), oneSol, nil)
	require.Error(t, err)
	require.Equal(t, domain.FundingRunStatusFailed, report.Status)
	require.Contains(t, report.FatalError, "protocol fee transfer failed")

	env.pool.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything)
	env.pool.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything, mock.Anything)
}

func TestFundFatalOnDepositFailure(t *testing.T) {
	env := newTestEnv(t)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(0), nil)
	env.chain.On(
		"Transfer", mock.Anything, mock.Anything, treasuryAddress, mock.Anything,
	).Return("feesig", nil)
	env.pool.On("Deposit", mock.Anything, mock.Anything).
		Return("", errors.New("proof generation failed"))

	report, err := env.svc.Fund(context.Background(), newRecipients(2), oneSol, nil)
	require.Error(t, err)
	require.Equal(t, domain.FundingRunStatusFailed, report.Status)
	env.pool.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything, mock.Anything)
}

func TestFundAbortSkipsRemainingTasks(t *testing.T) {
	env := newTestEnv(t)
	recipients := newRecipients(3)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(10000000000), nil)
	env.pool.On("Withdraw", mock.Anything, grossPerSol, recipients[0].Address()).
		Run(func(args mock.Arguments) {
			env.svc.Abort()
		}).
		Return("withdrawsig0", nil)

	report, err := env.svc.Fund(context.Background(), recipients, oneSol, nil)
	require.NoError(t, err)

	// only the next task's start is skippable, the in-flight withdrawal ran
	// to completion.
	env.pool.AssertNumberOfCalls(t, "Withdraw", 1)
	require.Equal(t, 1, report.SuccessCount)
	require.Equal(t, domain.FundingTaskStatusPending, report.Tasks[1].Status)
	require.Equal(t, domain.FundingTaskStatusPending, report.Tasks[2].Status)
}

func TestFundStreamsProgress(t *testing.T) {
	env := newTestEnv(t)
	recipients := newRecipients(1)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(5000000000), nil)
	env.pool.On("Withdraw", mock.Anything, grossPerSol, mock.Anything).
		Return("withdrawsig", nil)

	chRes := make(chan ports.FundingReply, 32)
	_, err := env.svc.Fund(context.Background(), recipients, oneSol, chRes)
	require.NoError(t, err)

	messages := make([]string, 0)
	for reply := range chRes {
		require.NoError(t, reply.GetError())
		messages = append(messages, reply.GetMessage())
	}
	require.NotEmpty(t, messages)
	require.Contains(t, messages[len(messages)-1], "funding run completed: 1/1")
}

func TestFundReusableAfterCompletedRun(t *testing.T) {
	env := newTestEnv(t)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(10000000000), nil)
	env.pool.On("Withdraw", mock.Anything, grossPerSol, mock.Anything).
		Return("withdrawsig", nil)

	for i := 0; i < 2; i++ {
		report, err := env.svc.Fund(context.Background(), newRecipients(2), oneSol, nil)
		require.NoError(t, err)
		require.Equal(t, domain.FundingRunStatusCompleted, report.Status)
	}
}

func TestPollerPausedForRunDuration(t *testing.T) {
	env := newTestEnv(t)

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("GetBalance", mock.Anything).Return(uint64(5000000000), nil)
	env.pool.On("Withdraw", mock.Anything, grossPerSol, mock.Anything).
		Return("withdrawsig", nil)

	_, err := env.svc.Fund(context.Background(), newRecipients(1), oneSol, nil)
	require.NoError(t, err)

	env.poller.AssertCalled(t, "Pause")
	env.poller.AssertCalled(t, "Resume")
	env.poller.AssertCalled(t, "TriggerRefresh")
}

func TestUnshield(t *testing.T) {
	env := newTestEnv(t)
	recipient := solana.NewWallet().PublicKey().String()

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("Withdraw", mock.Anything, grossPerSol, recipient).
		Return("withdrawsig", nil)

	sig, err := env.svc.Unshield(context.Background(), recipient, oneSol)
	require.NoError(t, err)
	require.Equal(t, "withdrawsig", sig)
}

func TestFailingUnshield(t *testing.T) {
	env := newTestEnv(t)
	recipient := solana.NewWallet().PublicKey().String()

	_, err := env.svc.Unshield(context.Background(), recipient, 0)
	require.EqualError(t, err, domain.ErrZeroAmount.Error())

	env.pool.On("EnsureInitialized", mock.Anything).Return(nil)
	env.pool.On("Withdraw", mock.Anything, grossPerSol, recipient).
		Return("", errors.New("insufficient shielded balance"))

	_, err = env.svc.Unshield(context.Background(), recipient, oneSol)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient shielded balance")
}

func TestFailingNewFunderService(t *testing.T) {
	pool := &mockPrivacyPool{}
	chain := &mockChainService{}
	poller := &mockPoller{}
	signer := &mockSigner{pubkey: solana.NewWallet().PublicKey()}
	repo := inmemory.NewTaskRepositoryImpl()

	tests := []struct {
		name          string
		opts          application.FunderServiceOpts
		expectedError error
	}{
		{
			"missing_pool",
			application.FunderServiceOpts{
				ChainService: chain, TxSigner: signer,
				TaskRepository: repo, BalancePoller: poller,
				TreasuryAddress: treasuryAddress,
			},
			application.ErrMissingPrivacyPool,
		},
		{
			"missing_chain",
			application.FunderServiceOpts{
				PrivacyPool: pool, TxSigner: signer,
				TaskRepository: repo, BalancePoller: poller,
				TreasuryAddress: treasuryAddress,
			},
			application.ErrMissingChainService,
		},
		{
			"invalid_treasury",
			application.FunderServiceOpts{
				PrivacyPool: pool, ChainService: chain, TxSigner: signer,
				TaskRepository: repo, BalancePoller: poller,
				TreasuryAddress: "not-an-address",
			},
			application.ErrInvalidTreasuryAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := application.NewFunderService(tt.opts)
			require.EqualError(t, err, tt.expectedError.Error())
		})
	}
}
