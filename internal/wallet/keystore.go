package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/log"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

const (
	walletExt       = ".wallet"
	keystoreVersion = 1
)

// Keystore errors.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
)

// keystoreFile is the on-disk JSON format of a wallet.
type keystoreFile struct {
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	EncryptedSeed []byte     `json:"encrypted_seed"`
	Keys          []KeyEntry `json:"keys"`
}

// KeyEntry records an authority key that has been handed out, so it can
// be listed without the password.
type KeyEntry struct {
	Index   uint32        `json:"index"`
	Label   string        `json:"label,omitempty"`
	Address types.Address `json:"address"`
}

// Keystore is a directory of encrypted wallet files.
type Keystore struct {
	path string
}

// NewKeystore opens the keystore at path, creating the directory if needed.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

// Dir returns the keystore directory.
func (ks *Keystore) Dir() string {
	return ks.path
}

func (ks *Keystore) walletPath(name string) string {
	return filepath.Join(ks.path, name+walletExt)
}

// Exists reports whether a wallet called name exists.
func (ks *Keystore) Exists(name string) bool {
	_, err := os.Stat(ks.walletPath(name))
	return err == nil
}

// Create writes a new wallet holding seed encrypted under password.
func (ks *Keystore) Create(name string, seed, password []byte, params EncryptionParams) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid wallet name %q", name)
	}
	if ks.Exists(name) {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}

	kf := keystoreFile{
		Version:       keystoreVersion,
		CreatedAt:     time.Now().UTC(),
		EncryptedSeed: encrypted,
		Keys:          []KeyEntry{},
	}
	if err := ks.writeFile(ks.walletPath(name), &kf); err != nil {
		return err
	}
	log.Wallet.Info().Str("wallet", name).Msg("Wallet created")
	return nil
}

// Load decrypts a wallet and returns its seed.
func (ks *Keystore) Load(name string, password []byte) ([]byte, error) {
	kf, err := ks.readFile(name)
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet %q: %w", name, err)
	}
	return seed, nil
}

// AuthorityKey decrypts a wallet and derives authority key index from it.
func (ks *Keystore) AuthorityKey(name string, password []byte, index uint32) (*HDKey, error) {
	seed, err := ks.Load(name, password)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)

	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	return master.AuthorityKey(index)
}

// Signer decrypts a wallet and returns authority key index as a signer.
func (ks *Keystore) Signer(name string, password []byte, index uint32) (*crypto.PrivateKey, error) {
	key, err := ks.AuthorityKey(name, password, index)
	if err != nil {
		return nil, err
	}
	log.Wallet.Debug().
		Str("wallet", name).
		Str("path", AuthorityPath(index)).
		Msg("Authority key unlocked")
	return key.Signer()
}

// AddKey records an authority key in the wallet's metadata. Re-adding the
// same index with the same address is a no-op.
func (ks *Keystore) AddKey(name string, entry KeyEntry) error {
	kf, err := ks.readFile(name)
	if err != nil {
		return err
	}

	for i, existing := range kf.Keys {
		if existing.Index != entry.Index {
			continue
		}
		if existing.Address != entry.Address {
			return fmt.Errorf("key index %d already recorded with address %s", entry.Index, existing.Address)
		}
		if entry.Label == "" || entry.Label == existing.Label {
			return nil
		}
		kf.Keys[i].Label = entry.Label
		return ks.writeFile(ks.walletPath(name), kf)
	}

	kf.Keys = append(kf.Keys, entry)
	sort.Slice(kf.Keys, func(i, j int) bool { return kf.Keys[i].Index < kf.Keys[j].Index })
	return ks.writeFile(ks.walletPath(name), kf)
}

// Keys returns the recorded authority keys of a wallet, ordered by index.
func (ks *Keystore) Keys(name string) ([]KeyEntry, error) {
	kf, err := ks.readFile(name)
	if err != nil {
		return nil, err
	}
	return kf.Keys, nil
}

// List returns the names of all wallets, sorted.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == walletExt {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	if !ks.Exists(name) {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err := os.Remove(ks.walletPath(name)); err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	log.Wallet.Info().Str("wallet", name).Msg("Wallet deleted")
	return nil
}

func (ks *Keystore) writeFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func (ks *Keystore) readFile(name string) (*keystoreFile, error) {
	data, err := os.ReadFile(ks.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, nil
}
