package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"github.com/veilcash/veild/internal/config"
	solanachain "github.com/veilcash/veild/internal/infrastructure/chain/solana"
	"github.com/veilcash/veild/internal/infrastructure/privacypool"
)

const lamportsPerSol = 1000000000

var balance = cli.Command{
	Name:   "balance",
	Usage:  "show the public and shielded balance of the funding account",
	Action: balanceAction,
}

func balanceAction(ctx *cli.Context) error {
	fundingSigner, err := getFundingSigner(ctx)
	if err != nil {
		return err
	}
	owner := fundingSigner.PublicKey().String()

	chainSvc := solanachain.NewService(config.GetString(config.RPCURLKey))
	publicBalance, err := chainSvc.GetBalance(context.Background(), owner)
	if err != nil {
		return err
	}

	pool, err := privacypool.NewClient(privacypool.Opts{
		BaseURL:       config.GetString(config.PoolURLKey),
		OwnerAddress:  owner,
		MessageSigner: fundingSigner,
	})
	if err != nil {
		return err
	}
	shieldedBalance, err := pool.GetBalance(context.Background())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Funding account: %s\n", owner)
	fmt.Printf("Public balance:   %s SOL\n", formatSol(publicBalance))
	fmt.Printf("Shielded balance: %s SOL\n", formatSol(shieldedBalance))
	return nil
}

func formatSol(lamports uint64) string {
	return decimal.NewFromInt(int64(lamports)).
		Div(decimal.NewFromInt(lamportsPerSol)).String()
}

func parseSol(amount string) (uint64, error) {
	sol, err := decimal.NewFromString(amount)
	if err != nil || !sol.IsPositive() {
		return 0, fmt.Errorf("amount must be a positive number of SOL")
	}
	lamports := sol.Mul(decimal.NewFromInt(lamportsPerSol))
	if !lamports.IsInteger() {
		return 0, fmt.Errorf("amount has a sub-lamport fraction")
	}
	return uint64(lamports.IntPart()), nil
}
