package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/veilcash/veild/pkg/hdwallet"
)

var wallets = cli.Command{
	Name:  "wallets",
	Usage: "derive and list the recipient wallet addresses",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "num",
			Usage: "how many recipient wallets to derive",
			Value: 10,
		},
	},
	Action: walletsAction,
}

func walletsAction(ctx *cli.Context) error {
	mnemonic, err := getMnemonic(ctx)
	if err != nil {
		return err
	}

	num := ctx.Int("num")
	if num <= 0 {
		return fmt.Errorf("num must be a positive number")
	}

	fmt.Println()
	// index 0 is the funding account, recipients start right after it.
	for i := 1; i <= num; i++ {
		key, err := hdwallet.DeriveKey(mnemonic, uint32(i))
		if err != nil {
			return err
		}
		fmt.Printf("%4d  %s\n", i, key.PublicKey().String())
	}
	return nil
}
