package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

var unshield = cli.Command{
	Name:  "unshield",
	Usage: "withdraw shielded funds to a public address",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "net amount of SOL the recipient receives",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "recipient",
			Usage:    "base58 address receiving the funds",
			Required: true,
		},
	},
	Action: unshieldAction,
}

func unshieldAction(ctx *cli.Context) error {
	netAmount, err := parseSol(ctx.String("amount"))
	if err != nil {
		return err
	}

	svc, balancePoller, err := getFunderService(ctx)
	if err != nil {
		return err
	}
	defer balancePoller.Stop()

	sig, err := svc.Unshield(
		context.Background(), ctx.String("recipient"), netAmount,
	)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Withdrawal submitted: %s\n", sig)
	return nil
}
