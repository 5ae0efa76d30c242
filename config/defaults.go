package config

import "time"

// DefaultDeriveCacheSize is the default number of memoized derived
// addresses.
const DefaultDeriveCacheSize = 4096

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			URL:     "http://127.0.0.1:8545",
			Timeout: 10 * time.Second,
		},
		Submit: SubmitConfig{
			ConfirmTimeout: 60 * time.Second,
			PollInterval:   500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
		Cache: CacheConfig{
			DeriveSize: DefaultDeriveCacheSize,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.RPC.URL = "http://127.0.0.1:8645"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
