package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/veilcash/veild/internal/config"
	"github.com/veilcash/veild/internal/core/application"
	"github.com/veilcash/veild/internal/core/domain"
	solanachain "github.com/veilcash/veild/internal/infrastructure/chain/solana"
	"github.com/veilcash/veild/internal/infrastructure/privacypool"
	"github.com/veilcash/veild/internal/infrastructure/signer"
	dbbadger "github.com/veilcash/veild/internal/infrastructure/storage/db/badger"
	"github.com/veilcash/veild/internal/infrastructure/storage/db/inmemory"
	"github.com/veilcash/veild/pkg/hdwallet"
	"github.com/veilcash/veild/pkg/poller"
	"github.com/veilcash/veild/pkg/seedvault"
)

func main() {
	if err := config.InitConfig(); err != nil {
		fatal(err)
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	app := cli.NewApp()
	app.Version = "0.1.0"
	app.Name = "veild"
	app.Usage = "private fan-out funding of Solana wallets"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "passphrase",
			Usage: "the passphrase protecting the seed vault",
		},
	}
	app.Commands = append(
		app.Commands,
		&initvault,
		&wallets,
		&balance,
		&fund,
		&unshield,
		&status,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[veild] %v\n", err)
	os.Exit(1)
}

func getVault() *seedvault.Vault {
	return seedvault.NewVault(
		filepath.Join(config.GetVaultPath(), "seed.vault"),
	)
}

func getMnemonic(ctx *cli.Context) ([]string, error) {
	passphrase := ctx.String("passphrase")
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("missing passphrase: use the --passphrase flag")
	}

	mnemonic, err := getVault().Retrieve(passphrase)
	if err != nil {
		return nil, err
	}
	return strings.Split(mnemonic, " "), nil
}

// getFundingSigner returns the signer of the funding account, the wallet at
// derivation index 0. Recipient wallets start at index 1.
func getFundingSigner(ctx *cli.Context) (*signer.EmbeddedSigner, error) {
	mnemonic, err := getMnemonic(ctx)
	if err != nil {
		return nil, err
	}
	key, err := hdwallet.DeriveKey(mnemonic, 0)
	if err != nil {
		return nil, err
	}
	return signer.NewEmbeddedSigner(key)
}

func getTaskRepository() (domain.TaskRepository, error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewTaskRepositoryImpl(), nil
	}
	return dbbadger.NewTaskRepositoryImpl(
		filepath.Join(config.GetDatadir(), config.DbLocation), nil,
	)
}

func getFunderService(ctx *cli.Context) (
	*application.FunderService, poller.Service, error,
) {
	fundingSigner, err := getFundingSigner(ctx)
	if err != nil {
		return nil, nil, err
	}

	chainSvc := solanachain.NewService(config.GetString(config.RPCURLKey))

	pool, err := privacypool.NewClient(privacypool.Opts{
		BaseURL:       config.GetString(config.PoolURLKey),
		OwnerAddress:  fundingSigner.PublicKey().String(),
		MessageSigner: fundingSigner,
	})
	if err != nil {
		return nil, nil, err
	}

	taskRepo, err := getTaskRepository()
	if err != nil {
		return nil, nil, err
	}

	balancePoller := poller.NewService(poller.Opts{
		Source:                 chainSvc,
		IntervalInMilliseconds: config.GetInt(config.PollIntervalKey),
		RequestsPerSecond:      2,
		ErrorHandler: func(err error) {
			log.WithError(err).Debug("balance refresh failed")
		},
	})
	balancePoller.AddAddress(fundingSigner.PublicKey().String())
	balancePoller.Start()

	svc, err := application.NewFunderService(application.FunderServiceOpts{
		PrivacyPool:           pool,
		ChainService:          chainSvc,
		TxSigner:              fundingSigner,
		TaskRepository:        taskRepo,
		BalancePoller:         balancePoller,
		TreasuryAddress:       config.GetString(config.TreasuryAddressKey),
		ProtocolFeeBasisPoint: config.GetUint64(config.ProtocolFeeBasisPointKey),
		WithdrawFeeBasisPoint: config.GetUint64(config.WithdrawFeeBasisPointKey),
		WithdrawRentLamports:  config.GetUint64(config.WithdrawRentLamportsKey),
		TasksPerMinute:        config.GetInt(config.TasksPerMinuteKey),
	})
	if err != nil {
		balancePoller.Stop()
		return nil, nil, err
	}

	return svc, balancePoller, nil
}
