// Package config handles stake-accounts runtime configuration.
//
// Settings are resolved in order: built-in defaults for the network, the
// config file, then global command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// ConfigFileName is the name of the config file inside the data directory.
const ConfigFileName = "stake-accounts.conf"

// Config holds the tool's runtime configuration.
type Config struct {
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Ledger node
	RPC RPCConfig

	// Transaction submission
	Submit SubmitConfig

	// Default signers
	Keys KeysConfig

	// Logging
	Log LogConfig

	// Address derivation cache
	Cache CacheConfig
}

// RPCConfig holds ledger RPC client settings.
type RPCConfig struct {
	URL     string        `conf:"rpc.url"`
	Timeout time.Duration `conf:"rpc.timeout"`
}

// SubmitConfig controls how long a submitted transaction is awaited.
type SubmitConfig struct {
	ConfirmTimeout time.Duration `conf:"submit.confirm_timeout"`
	PollInterval   time.Duration `conf:"submit.poll_interval"`
}

// KeysConfig holds default key specs.
type KeysConfig struct {
	FeePayer string `conf:"keys.fee_payer"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// CacheConfig sizes the derived address cache. Zero disables it.
type CacheConfig struct {
	DeriveSize int `conf:"cache.derive_size"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet
//	macOS:   ~/Library/Application Support/Klingnet
//	Windows: %APPDATA%\Klingnet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingnet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingnet")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingnet")
	default:
		return filepath.Join(home, ".klingnet")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the keystore directory, shared with klingnet-cli.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// ConfigFile returns the default config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, ConfigFileName)
}
