// Package solanachain submits plain transfers to the Solana network and
// awaits their confirmation.
package solanachain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
	"github.com/veilcash/veild/internal/core/ports"
)

const (
	confirmationMaxRetries  = 10
	confirmationBaseBackoff = 500 * time.Millisecond
)

type service struct {
	rpcClient *rpc.Client
}

// NewService returns a ports.ChainService talking to the RPC node at the
// given URL.
func NewService(rpcURL string) ports.ChainService {
	return &service{rpcClient: rpc.New(rpcURL)}
}

func (s *service) Transfer(
	ctx context.Context, signer ports.TransactionSigner,
	toAddress string, lamports uint64,
) (string, error) {
	toPubkey, err := solana.PublicKeyFromBase58(toAddress)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}

	recent, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(
				lamports, signer.PublicKey(), toPubkey,
			).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := signer.SignTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	if err := s.awaitConfirmation(ctx, sig); err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (s *service) GetBalance(ctx context.Context, address string) (uint64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %w", err)
	}

	balance, err := s.rpcClient.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance.Value, nil
}

// awaitConfirmation polls the signature status with a doubling backoff until
// the transaction is confirmed or the retry budget is spent.
func (s *service) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	backoff := confirmationBaseBackoff

	for attempt := 0; attempt < confirmationMaxRetries; attempt++ {
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2

		res, err := s.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			log.WithError(err).Debug("failed to fetch signature status")
			continue
		}
		if len(res.Value) == 0 || res.Value[0] == nil {
			continue
		}

		status := res.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err)
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return nil
		}
	}

	return fmt.Errorf("transaction %s not confirmed in time", sig)
}
