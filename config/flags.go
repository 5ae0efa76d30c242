package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Flags holds parsed global command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// RPC
	RPCURL     string
	RPCTimeout time.Duration

	// Submission
	ConfirmTimeout time.Duration

	// Keys
	FeePayer string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Subcommand and its arguments
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetLogJSON bool
}

// ParseFlags parses the global flags that precede the subcommand. Parsing
// stops at the first non-flag argument, which is left in Flags.Args.
func ParseFlags(args []string, output io.Writer) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("stake-accounts", flag.ContinueOnError)
	fs.SetOutput(output)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	testnet := fs.Bool("testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// RPC
	fs.StringVar(&f.RPCURL, "rpc", "", "Ledger JSON-RPC endpoint")
	fs.StringVar(&f.RPCURL, "url", "", "Ledger JSON-RPC endpoint (alias of --rpc)")
	fs.DurationVar(&f.RPCTimeout, "rpc-timeout", 0, "Timeout of a single RPC call")

	// Submission
	fs.DurationVar(&f.ConfirmTimeout, "confirm-timeout", 0, "How long to wait for each transaction to confirm")

	// Keys
	fs.StringVar(&f.FeePayer, "fee-payer", "", "Fee payer key spec")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *testnet {
		f.Network = string(Testnet)
	}
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// RPC
	if f.RPCURL != "" {
		cfg.RPC.URL = f.RPCURL
	}
	if f.RPCTimeout != 0 {
		cfg.RPC.Timeout = f.RPCTimeout
	}

	// Submission
	if f.ConfirmTimeout != 0 {
		cfg.Submit.ConfirmTimeout = f.ConfirmTimeout
	}

	// Keys
	if f.FeePayer != "" {
		cfg.Keys.FeePayer = f.FeePayer
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// Load resolves configuration with the following precedence:
// 1. Default values for the network
// 2. Config file (--config, or <datadir>/stake-accounts.conf)
// 3. Command-line flags
func Load(args []string, output io.Writer) (*Config, *Flags, error) {
	flags, err := ParseFlags(args, output)
	if err != nil {
		return nil, nil, err
	}

	// Network first; it selects the defaults. A network set in the config
	// file is applied after, so the file cannot select different defaults.
	network := Mainnet
	if strings.ToLower(flags.Network) == string(Testnet) {
		network = Testnet
	}
	cfg := Default(network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, nil, fmt.Errorf("config file: %w", err)
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the keystore directory and a default config file
// if they don't exist yet.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.ChainDataDir(), cfg.KeystoreDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
