package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/log"
)

// Validate checks the config for operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir is empty")
	}

	u, err := url.Parse(cfg.RPC.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rpc.url must be an http(s) URL, got %q", cfg.RPC.URL)
	}
	if cfg.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive")
	}

	if cfg.Submit.ConfirmTimeout <= 0 {
		return fmt.Errorf("submit.confirm_timeout must be positive")
	}
	if cfg.Submit.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("submit.poll_interval must be at least 10ms")
	}
	if cfg.Submit.PollInterval > cfg.Submit.ConfirmTimeout {
		return fmt.Errorf("submit.poll_interval must not exceed submit.confirm_timeout")
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Cache.DeriveSize < 0 {
		return fmt.Errorf("cache.derive_size must not be negative")
	}
	return nil
}
