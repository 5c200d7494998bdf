package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

const (
	// RPCURLKey is the url of the Solana RPC node used for public transfers
	// and balance lookups.
	RPCURLKey = "RPC_URL"
	// PoolURLKey is the base url of the privacy pool relay.
	PoolURLKey = "POOL_URL"
	// TreasuryAddressKey is the base58 address receiving the protocol fee on
	// every shielding.
	TreasuryAddressKey = "TREASURY_ADDRESS"
	// ProtocolFeeBasisPointKey is the protocol fee charged on shielded
	// amounts, in basis points.
	ProtocolFeeBasisPointKey = "PROTOCOL_FEE_BASIS_POINT"
	// WithdrawFeeBasisPointKey is the pool relay fee applied to every
	// withdrawal, in basis points.
	WithdrawFeeBasisPointKey = "WITHDRAW_FEE_BASIS_POINT"
	// WithdrawRentLamportsKey is the flat rent surcharge added to every
	// withdrawal so the recipient account becomes rent exempt.
	WithdrawRentLamportsKey = "WITHDRAW_RENT_LAMPORTS"
	// TasksPerMinuteKey caps how many withdrawals a funding run submits per
	// minute.
	TasksPerMinuteKey = "TASKS_PER_MINUTE"
	// PollIntervalKey is the interval in milliseconds between two balance
	// refreshes of the watched addresses.
	PollIntervalKey = "POLL_INTERVAL"
	// DatadirKey is the local data directory to store the internal state of
	// the daemon.
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported.
	DBTypeKey = "DB_TYPE"

	// DBBadger ...
	DBBadger = "badger"
	// DBInMemory ...
	DBInMemory = "inmemory"

	DbLocation    = "db"
	VaultLocation = "vault"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("veild", false)

// InitConfig loads the configuration from the environment, applies defaults
// and validates the result.
func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("VEIL")
	vip.AutomaticEnv()

	vip.SetDefault(RPCURLKey, "https://api.mainnet-beta.solana.com")
	vip.SetDefault(ProtocolFeeBasisPointKey, 50)
	vip.SetDefault(WithdrawFeeBasisPointKey, 35)
	vip.SetDefault(WithdrawRentLamportsKey, 6000000)
	vip.SetDefault(TasksPerMinuteKey, 30)
	vip.SetDefault(PollIntervalKey, 30000)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetVaultPath() string {
	return filepath.Join(GetDatadir(), VaultLocation)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if !vip.IsSet(PoolURLKey) {
		return fmt.Errorf("missing privacy pool url")
	}
	poolURL, err := url.Parse(GetString(PoolURLKey))
	if err != nil || poolURL.Scheme == "" || poolURL.Host == "" {
		return fmt.Errorf("%s must be a valid absolute url", PoolURLKey)
	}

	if treasury := GetString(TreasuryAddressKey); treasury != "" {
		if _, err := solana.PublicKeyFromBase58(treasury); err != nil {
			return fmt.Errorf("%s is not a valid base58 public key", TreasuryAddressKey)
		}
	}

	for _, key := range []string{ProtocolFeeBasisPointKey, WithdrawFeeBasisPointKey} {
		if bp := GetUint64(key); bp >= 10000 {
			return fmt.Errorf("%s must be lower than 10000", key)
		}
	}

	if tasksPerMinute := GetInt(TasksPerMinuteKey); tasksPerMinute <= 0 {
		return fmt.Errorf("%s must be a positive number", TasksPerMinuteKey)
	}

	switch dbType := GetString(DBTypeKey); dbType {
	case DBBadger, DBInMemory:
	default:
		return fmt.Errorf("unsupported database type %s", dbType)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, VaultLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
