package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/muun/cosigner/internal/core/application"
	"github.com/muun/cosigner/pkg/wallet"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store keys and PSTs
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the bitcoin network, one of mainnet, testnet, regtest or signet
	NetworkKey = "NETWORK"
	// ShadowEnabledKey enables the reference engine cross-checking every
	// derivation, digest and finalized transaction
	ShadowEnabledKey = "SHADOW_ENABLED"
	// EsploraURLKey is the endpoint of the esplora REST API used to broadcast
	// transactions. Broadcasting is disabled if empty
	EsploraURLKey = "ESPLORA_URL"
	// BroadcastTimeoutKey is the timeout in seconds of a broadcast request
	BroadcastTimeoutKey = "BROADCAST_TIMEOUT"
	// DBDirKey overrides the location of the database, by default under datadir
	DBDirKey = "DB_DIR"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// ScryptNKey is the cost parameter of the key derivation protecting the
	// party keys at rest
	ScryptNKey = "SCRYPT_N"
	// MetricsEnabledKey enables periodic dumps of the prometheus registry
	MetricsEnabledKey = "METRICS_ENABLED"
	// StatsIntervalKey defines the interval in seconds between metrics dumps
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation      = "db"
	MetricsLocation = "stats"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("cosigner", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("COSIGNER")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, "mainnet")
	vip.SetDefault(ShadowEnabledKey, true)
	vip.SetDefault(BroadcastTimeoutKey, 15)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(ScryptNKey, 1<<18)
	vip.SetDefault(MetricsEnabledKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	log.SetLevel(log.Level(GetInt(LogLevelKey)))
	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDBDir returns the database directory.
func GetDBDir() string {
	if dir := GetString(DBDirKey); dir != "" {
		return dir
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetMetricsDir ...
func GetMetricsDir() string {
	return filepath.Join(GetDatadir(), MetricsLocation)
}

// ApplicationConfig returns the config of the application services.
func ApplicationConfig() *application.Config {
	return &application.Config{
		DBType:           GetString(DBTypeKey),
		DBConfig:         GetDBDir(),
		Network:          GetString(NetworkKey),
		ScryptN:          GetInt(ScryptNKey),
		ShadowEnabled:    GetBool(ShadowEnabledKey),
		EsploraURL:       GetString(EsploraURLKey),
		BroadcastTimeout: time.Duration(GetInt(BroadcastTimeoutKey)) * time.Second,
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, err := wallet.NetworkByName(GetString(NetworkKey)); err != nil {
		return err
	}

	if _, ok := application.SupportedDBType[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf("%s not supported", GetString(DBTypeKey))
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf("log level must be in range [0, 6]")
	}

	if GetInt(BroadcastTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", BroadcastTimeoutKey)
	}
	return nil
}

func initDatadir() error {
	if err := makeDirectoryIfNotExists(GetDBDir()); err != nil {
		return err
	}
	if GetBool(MetricsEnabledKey) {
		if err := makeDirectoryIfNotExists(GetMetricsDir()); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
