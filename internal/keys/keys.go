// Package keys resolves operator key specs into signers and identities.
//
// A key spec is either a path to a file holding a hex-encoded private key,
// or a keystore reference of the form wallet:<name>[/<index>], which
// selects authority key <index> (default 0) of an encrypted wallet.
package keys

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/wallet"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
	"golang.org/x/term"
)

// WalletPrefix marks a keystore key spec.
const WalletPrefix = "wallet:"

// ErrEmptySpec is returned for a blank key spec.
var ErrEmptySpec = errors.New("empty key spec")

// Kind distinguishes key sources.
type Kind int

const (
	KindFile Kind = iota
	KindWallet
)

// Spec is a parsed key spec.
type Spec struct {
	Kind   Kind
	Path   string // KindFile
	Wallet string // KindWallet
	Index  uint32 // KindWallet
}

func (s Spec) String() string {
	if s.Kind == KindWallet {
		return fmt.Sprintf("%s%s/%d", WalletPrefix, s.Wallet, s.Index)
	}
	return s.Path
}

// ParseSpec parses a key spec.
func ParseSpec(spec string) (Spec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Spec{}, ErrEmptySpec
	}
	rest, ok := strings.CutPrefix(spec, WalletPrefix)
	if !ok {
		return Spec{Kind: KindFile, Path: spec}, nil
	}

	name, idx, hasIdx := strings.Cut(rest, "/")
	if name == "" {
		return Spec{}, fmt.Errorf("key spec %q: missing wallet name", spec)
	}
	s := Spec{Kind: KindWallet, Wallet: name}
	if hasIdx {
		n, err := strconv.ParseUint(idx, 10, 32)
		if err != nil {
			return Spec{}, fmt.Errorf("key spec %q: invalid index: %w", spec, err)
		}
		s.Index = uint32(n)
	}
	return s, nil
}

// ReadKeyFile loads a hex-encoded private key from path.
func ReadKeyFile(path string) (*crypto.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, err := crypto.PrivateKeyFromHex(string(data))
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	return key, nil
}

// PasswordFunc returns the password for a keystore wallet.
type PasswordFunc func(walletName string) ([]byte, error)

// TerminalPassword prompts on stderr and reads the password from the
// terminal without echo.
func TerminalPassword(walletName string) ([]byte, error) {
	return ReadPassword(fmt.Sprintf("Password for wallet %q: ", walletName))
}

// ReadPassword prints prompt to stderr and reads a line from the terminal
// without echo.
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return password, nil
}

// Loader resolves key specs. Each spec is loaded at most once, so a key
// used for several roles is only unlocked once.
type Loader struct {
	keystore *wallet.Keystore
	password PasswordFunc
	signers  map[Spec]*crypto.PrivateKey
}

// NewLoader returns a loader reading wallets from ks. password is asked
// for each wallet that has to be unlocked.
func NewLoader(ks *wallet.Keystore, password PasswordFunc) *Loader {
	return &Loader{
		keystore: ks,
		password: password,
		signers:  make(map[Spec]*crypto.PrivateKey),
	}
}

// Signer resolves spec into a signer.
func (l *Loader) Signer(spec string) (*crypto.PrivateKey, error) {
	s, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	if key, ok := l.signers[s]; ok {
		return key, nil
	}

	var key *crypto.PrivateKey
	switch s.Kind {
	case KindWallet:
		key, err = l.unlock(s)
	default:
		key, err = ReadKeyFile(s.Path)
	}
	if err != nil {
		return nil, err
	}
	l.signers[s] = key
	return key, nil
}

func (l *Loader) unlock(s Spec) (*crypto.PrivateKey, error) {
	if l.keystore == nil {
		return nil, fmt.Errorf("key spec %s: no keystore configured", s)
	}
	if l.password == nil {
		return nil, fmt.Errorf("key spec %s: no password source", s)
	}
	password, err := l.password(s.Wallet)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return l.keystore.Signer(s.Wallet, password, s.Index)
}

// Identity resolves an address, or the identity of a key spec. Keystore
// keys whose address was recorded in the wallet resolve without unlocking.
func (l *Loader) Identity(s string) (types.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Address{}, ErrEmptySpec
	}
	if addr, err := types.ParseAddress(s); err == nil {
		return addr, nil
	}

	spec, err := ParseSpec(s)
	if err != nil {
		return types.Address{}, err
	}
	if spec.Kind == KindWallet && l.keystore != nil {
		if entries, err := l.keystore.Keys(spec.Wallet); err == nil {
			for _, e := range entries {
				if e.Index == spec.Index {
					return e.Address, nil
				}
			}
		}
	}
	if spec.Kind == KindFile {
		if _, err := os.Stat(spec.Path); err != nil {
			return types.Address{}, fmt.Errorf("%q is neither an address nor a key file", s)
		}
	}

	key, err := l.Signer(s)
	if err != nil {
		return types.Address{}, err
	}
	return key.Address(), nil
}

// Optional resolves s like Identity, but returns fallback when s is empty.
func (l *Loader) Optional(s string, fallback types.Address) (types.Address, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return l.Identity(s)
}
