package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// Authority keys live at m/44'/8888'/0'/0/index.
const (
	PurposeBIP44     = bip32.FirstHardenedChild + 44
	CoinTypeKlingnet = bip32.FirstHardenedChild + 8888
	AuthorityAccount = bip32.FirstHardenedChild + 0
	AuthorityChain   = 0
)

// AuthorityPath renders the derivation path of authority key index.
func AuthorityPath(index uint32) string {
	return fmt.Sprintf("m/44'/8888'/0'/%d/%d", AuthorityChain, index)
}

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master key from a 64-byte BIP-39 seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives the child at index. Add bip32.FirstHardenedChild for
// hardened derivation.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives along a sequence of child indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// AuthorityKey derives the authority key at AuthorityPath(index) from a
// master key.
func (k *HDKey) AuthorityKey(index uint32) (*HDKey, error) {
	if k.key.Depth != 0 {
		return nil, fmt.Errorf("authority keys derive from the master key, got depth %d", k.key.Depth)
	}
	return k.DerivePath(PurposeBIP44, CoinTypeKlingnet, AuthorityAccount, AuthorityChain, index)
}

// PrivateKeyBytes returns the raw 32-byte private key, or nil for a
// public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 pads private keys to 33 bytes with a leading zero.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Signer returns the private key as a transaction signer.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create signer from public key")
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// Address is the identity of this key.
func (k *HDKey) Address() types.Address {
	return crypto.AddressFromPubKey(k.PublicKeyBytes())
}
