package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime parameters of the wallet process. The password is
// never part of it; that is prompted for at startup.
type Config struct {
	WalletPath    string `envconfig:"WALLET_PATH" default:"wallet.json"`
	DatabasePath  string `envconfig:"DATABASE_PATH" default:"walletdb"`
	RPCURL        string `envconfig:"RPC_URL" default:"http://localhost:8545"`
	ChainID       uint64 `envconfig:"CHAIN_ID" default:"1"`
	ScanChunkSize int    `envconfig:"SCAN_CHUNK_SIZE" default:"512"`
}

var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the loaded configuration. Panics if Init was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}
