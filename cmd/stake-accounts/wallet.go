package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/keys"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/wallet"
)

const walletUsage = "Usage: stake-accounts wallet <create|import|list|address|delete> [flags]"

func cmdWallet(e *env, args []string) {
	if len(args) < 1 {
		fatal(walletUsage)
	}

	switch args[0] {
	case "create":
		cmdWalletCreate(e, args[1:])
	case "import":
		cmdWalletImport(e, args[1:])
	case "list":
		cmdWalletList(e)
	case "address":
		cmdWalletAddress(e, args[1:])
	case "delete":
		cmdWalletDelete(e, args[1:])
	default:
		fatal("Unknown wallet command: %s\n%s", args[0], walletUsage)
	}
}

func cmdWalletCreate(e *env, args []string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	parseFlags(fs, args)

	if *name == "" {
		fatal("Usage: stake-accounts wallet create --name <name>")
	}
	if e.ks.Exists(*name) {
		fatal("wallet %q already exists", *name)
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	storeWallet(e, *name, mnemonic)
	fmt.Printf("\nWallet created: %s\n", *name)
}

func cmdWalletImport(e *env, args []string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	parseFlags(fs, args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: stake-accounts wallet import --name <name> --mnemonic \"word1 word2 ...\"")
	}
	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}

	storeWallet(e, *name, *mnemonic)
	fmt.Printf("Wallet imported: %s\n", *name)
}

// storeWallet encrypts the seed of mnemonic under a new password and
// records authority key 0.
func storeWallet(e *env, name, mnemonic string) {
	password, err := keys.ReadPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := keys.ReadPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	key, err := master.AuthorityKey(0)
	if err != nil {
		fatal("derive authority key: %v", err)
	}
	addr := key.Address()

	if err := e.ks.Create(name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}
	for i := range seed {
		seed[i] = 0
	}

	if err := e.ks.AddKey(name, wallet.KeyEntry{Index: 0, Label: "default", Address: addr}); err != nil {
		fatal("record key: %v", err)
	}
	fmt.Printf("Key spec: wallet:%s/0\n", name)
	fmt.Printf("Address:  %s\n", addr)
}

func cmdWalletList(e *env) {
	names, err := e.ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Printf("No wallets found in %s\n", e.ks.Dir())
		return
	}
	fmt.Printf("Keystore: %s\n", e.ks.Dir())
	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdWalletAddress(e *env, args []string) {
	fs := flag.NewFlagSet("wallet address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	index := fs.Int64("index", -1, "Authority key index to derive and record")
	label := fs.String("label", "", "Label for the recorded key")
	parseFlags(fs, args)

	if *walletName == "" {
		fatal("Usage: stake-accounts wallet address --wallet <name> [--index <i>] [--label <l>]")
	}

	if *index >= 0 {
		if *index > int64(^uint32(0)) {
			fatal("--index out of range")
		}
		idx := uint32(*index)
		spec := fmt.Sprintf("%s%s/%d", keys.WalletPrefix, *walletName, idx)
		signer, err := e.loader.Signer(spec)
		if err != nil {
			fatal("unlock %s: %v", spec, err)
		}
		entry := wallet.KeyEntry{Index: idx, Label: *label, Address: signer.Address()}
		if err := e.ks.AddKey(*walletName, entry); err != nil {
			fatal("record key: %v", err)
		}
		fmt.Printf("Path:     %s\n", wallet.AuthorityPath(idx))
		fmt.Printf("Key spec: %s\n", spec)
		fmt.Printf("Address:  %s\n", signer.Address())
		return
	}

	entries, err := e.ks.Keys(*walletName)
	if err != nil {
		fatal("list keys: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No keys recorded.")
		return
	}
	for _, k := range entries {
		if k.Label != "" {
			fmt.Printf("  [%d] %s  (%s)\n", k.Index, k.Address, k.Label)
		} else {
			fmt.Printf("  [%d] %s\n", k.Index, k.Address)
		}
	}
}

func cmdWalletDelete(e *env, args []string) {
	fs := flag.NewFlagSet("wallet delete", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	parseFlags(fs, args)

	if *name == "" {
		fatal("Usage: stake-accounts wallet delete --name <name> [--yes]")
	}
	if !e.ks.Exists(*name) {
		fatal("wallet %q not found", *name)
	}
	if !*yes {
		fmt.Fprintf(os.Stderr, "Deleting %q cannot be undone without its mnemonic.\nType the wallet name to confirm: ", *name)
		if !confirmName(os.Stdin, *name) {
			fatal("aborted")
		}
	}
	if err := e.ks.Delete(*name); err != nil {
		fatal("delete wallet: %v", err)
	}
	fmt.Printf("Wallet deleted: %s\n", *name)
}

// confirmName reports whether the first line read from r is name.
func confirmName(r io.Reader, name string) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	return strings.TrimSpace(line) == name
}
