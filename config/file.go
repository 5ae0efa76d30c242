package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments). A missing file
// yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNum)
		}

		// Strip matching quotes.
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file values to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	// RPC
	case "rpc.url", "url":
		cfg.RPC.URL = value
	case "rpc.timeout":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.RPC.Timeout = d

	// Submission
	case "submit.confirm_timeout":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.Submit.ConfirmTimeout = d
	case "submit.poll_interval":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.Submit.PollInterval = d

	// Keys
	case "keys.fee_payer", "fee_payer":
		cfg.Keys.FeePayer = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	// Cache
	case "cache.derive_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Cache.DeriveSize = n

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseDuration accepts Go durations ("30s") or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// WriteDefaultConfig writes a commented default config file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# Klingnet stake-accounts configuration
#
# Global command-line flags override these values.

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.klingnet)
# datadir = ~/.klingnet

# ============================================================================
# Ledger RPC
# ============================================================================

rpc.url = ` + cfg.RPC.URL + `
rpc.timeout = ` + cfg.RPC.Timeout.String() + `

# ============================================================================
# Submission
# ============================================================================

# How long to wait for each transaction to confirm
submit.confirm_timeout = ` + cfg.Submit.ConfirmTimeout.String() + `
submit.poll_interval = ` + cfg.Submit.PollInterval.String() + `

# ============================================================================
# Keys
# ============================================================================

# Default fee payer: key file path or wallet:<name>[/<index>]
# keys.fee_payer = wallet:default

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false

# Derived address cache entries (0 disables)
# cache.derive_size = ` + strconv.Itoa(DefaultDeriveCacheSize) + `
`
	return os.WriteFile(path, []byte(content), 0644)
}
