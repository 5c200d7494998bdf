package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/veilcash/veild/pkg/hdwallet"
)

var initvault = cli.Command{
	Name:  "init",
	Usage: "generate a mnemonic seed and store it in the encrypted vault",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mnemonic",
			Usage: "restore from an existing mnemonic instead of generating one",
		},
	},
	Action: initVaultAction,
}

func initVaultAction(ctx *cli.Context) error {
	passphrase := ctx.String("passphrase")
	if len(passphrase) == 0 {
		return fmt.Errorf("missing passphrase: use the --passphrase flag")
	}

	vault := getVault()
	if vault.Exists() {
		return fmt.Errorf("vault already initialized")
	}

	var mnemonic []string
	if restored := ctx.String("mnemonic"); len(restored) > 0 {
		mnemonic = strings.Fields(restored)
		if !hdwallet.IsMnemonicValid(mnemonic) {
			return fmt.Errorf("the given mnemonic is not valid")
		}
	} else {
		var err error
		mnemonic, err = hdwallet.NewMnemonic(256)
		if err != nil {
			return err
		}
	}

	if err := vault.Store(strings.Join(mnemonic, " "), passphrase); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Write down the mnemonic, it is the only backup of all wallets:")
	fmt.Println()
	fmt.Println(strings.Join(mnemonic, " "))
	return nil
}
