// stake-accounts manages families of derived stake accounts on a klingnet
// ledger: creating and funding them, inspecting balances and authorities,
// rotating authorities, relocating them to a new base and withdrawing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Klingon-tech/klingnet-stake-accounts/config"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/keys"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/log"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/stakeaccounts"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/wallet"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

const version = "0.1.0"

// env is what every subcommand runs against.
type env struct {
	cfg     *config.Config
	ctx     context.Context
	loader  *keys.Loader
	ks      *wallet.Keystore
	manager *stakeaccounts.Manager
}

func main() {
	cfg, flags, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(1)
	}
	if flags.Help {
		usage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Printf("stake-accounts version %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	args := flags.Args
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	e, err := newEnv(cfg)
	if err != nil {
		fatal("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	e.ctx = ctx

	cmd := args[0]
	cmdArgs := args[1:]
	log.CLI.Debug().
		Str("command", cmd).
		Str("network", string(cfg.Network)).
		Str("rpc", cfg.RPC.URL).
		Msg("Running command")

	switch cmd {
	case "new":
		cmdNew(e, cmdArgs)
	case "deposit":
		cmdDeposit(e, cmdArgs)
	case "balance":
		cmdBalance(e, cmdArgs)
	case "pubkeys":
		cmdPubkeys(e, cmdArgs)
	case "show":
		cmdShow(e, cmdArgs)
	case "withdraw":
		cmdWithdraw(e, cmdArgs)
	case "rebase":
		cmdRebase(e, cmdArgs)
	case "authorize":
		cmdAuthorize(e, cmdArgs)
	case "move":
		cmdMove(e, cmdArgs)
	case "wallet":
		cmdWallet(e, cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func newEnv(cfg *config.Config) (*env, error) {
	if err := config.EnsureDataDirs(cfg); err != nil {
		return nil, err
	}
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	deriver, err := stakeaccounts.NewDeriver(stake.ProgramID, cfg.Cache.DeriveSize)
	if err != nil {
		return nil, fmt.Errorf("create deriver: %w", err)
	}
	client := rpcclient.NewWithTimeout(cfg.RPC.URL, cfg.RPC.Timeout)
	ledger := rpcclient.NewLedger(client, cfg.Submit.ConfirmTimeout, cfg.Submit.PollInterval)

	return &env{
		cfg:     cfg,
		loader:  keys.NewLoader(ks, keys.TerminalPassword),
		ks:      ks,
		manager: stakeaccounts.NewManager(deriver, ledger),
	}, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: stake-accounts [global flags] <command> [flags]

Global flags:
  --rpc, --url <url>      Ledger JSON-RPC endpoint (mainnet: http://127.0.0.1:8545)
  --datadir <path>        Data directory (default: ~/.klingnet)
  --network <net>         mainnet (default) or testnet
  --testnet               Shorthand for --network=testnet
  --config, -c <path>     Config file (default: <datadir>/stake-accounts.conf)
  --fee-payer <key>       Default fee payer key
  --rpc-timeout <dur>     Timeout of a single RPC call (default: 10s)
  --confirm-timeout <dur> Wait for each transaction to confirm (default: 60s)
  --log-level <lvl>       debug, info (default), warn, error
  --log-json              Output logs as JSON
  --log-file <path>       Also write JSON logs to a file
  --version               Show version

Keys are a path to a hex private key file or wallet:<name>[/<index>].
Identities are an address, or a key whose address is used.
Amounts are in KGX with up to 12 decimal places.

Commands:
  new --from <key> --base <id> --amount <amt>
      --stake-authority <id> --withdraw-authority <id> [--custodian <id>]
      [--cliff-fraction <f> --cliff-years <y> --unlock-years <y> --unlocks <n>]
                                  Create and fund derived stake accounts
  deposit --from <key> --base <id> --amount <amt> [schedule flags]
                                  Add funds to existing derived accounts
  balance --base <id> [--num-accounts <n>]
                                  Show balances of derived accounts
  pubkeys --base <id> [--num-accounts <n>]
                                  Show addresses of derived accounts
  show --base <id> [--num-accounts <n>] [--json]
                                  Show authorities and lockups
  withdraw --base <id> --index <i> --withdraw-authority <key>
      --recipient <id> --amount <amt>
                                  Withdraw from one derived account
  authorize --base <id> --stake-authority <key> --withdraw-authority <key>
      --new-stake-authority <id> --new-withdraw-authority <id> [--num-accounts <n>]
                                  Rotate authorities of every derived account
  rebase --base <id> --new-base <id> --stake-authority <key>
      --withdraw-authority <key> [--num-accounts <n>]
                                  Relocate derived accounts to a new base
  move --base <id> --new-base <id> --stake-authority <key> --withdraw-authority <key>
      --new-stake-authority <id> --new-withdraw-authority <id> [--num-accounts <n>]
                                  Rebase and rotate authorities

  wallet create --name <n>        Create a new keystore wallet
  wallet import --name <n> --mnemonic "..."
                                  Import a wallet from a mnemonic
  wallet list                     List wallets
  wallet delete --name <n> [--yes]
                                  Delete a keystore wallet
  wallet address --wallet <w> [--index <i>] [--label <l>]
                                  Show (and record) an authority key address

Write commands accept --fee-payer to override the global fee payer.
`)
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
