package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/veilcash/veild/internal/core/domain"
	"github.com/veilcash/veild/internal/core/ports"
	"github.com/veilcash/veild/pkg/hdwallet"
)

var fund = cli.Command{
	Name:  "fund",
	Usage: "shield funds and distribute them across fresh wallets",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "amount of SOL each recipient wallet receives",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "num",
			Usage: "how many recipient wallets to fund",
			Value: 10,
		},
	},
	Action: fundAction,
}

func fundAction(ctx *cli.Context) error {
	amountPerWallet, err := parseSol(ctx.String("amount"))
	if err != nil {
		return err
	}
	num := ctx.Int("num")
	if num <= 0 {
		return fmt.Errorf("num must be a positive number")
	}

	mnemonic, err := getMnemonic(ctx)
	if err != nil {
		return err
	}
	wallets := make([]domain.DerivedWallet, 0, num)
	for i := 1; i <= num; i++ {
		key, err := hdwallet.DeriveKey(mnemonic, uint32(i))
		if err != nil {
			return err
		}
		wallets = append(wallets, domain.DerivedWallet{
			Index:      uint32(i),
			PublicKey:  key.PublicKey(),
			PrivateKey: key,
		})
	}
	walletSet, err := domain.NewWalletSet(strings.Join(mnemonic, " "), wallets)
	if err != nil {
		return err
	}
	recipients := walletSet.Wallets

	svc, balancePoller, err := getFunderService(ctx)
	if err != nil {
		return err
	}
	defer balancePoller.Stop()

	// ctrl-c aborts the run cooperatively, the withdrawal in flight still
	// completes.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		fmt.Println("\naborting after the current withdrawal...")
		svc.Abort()
	}()

	chRes := make(chan ports.FundingReply, 32)
	go func() {
		for reply := range chRes {
			if err := reply.GetError(); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println(reply.GetMessage())
		}
	}()

	report, err := svc.Fund(
		context.Background(), recipients, amountPerWallet, chRes,
	)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Run %s %s\n", report.RunId, report.Status)
	for _, task := range report.Tasks {
		line := fmt.Sprintf("%4d  %s  %s", task.RecipientIndex, task.RecipientAddress, task.Status)
		if task.Status == domain.FundingTaskStatusFailed {
			line += "  " + task.ErrorDetail
		}
		fmt.Println(line)
	}
	fmt.Printf("%d/%d recipients funded\n", report.SuccessCount, report.Total)
	return nil
}
