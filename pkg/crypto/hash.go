// Package crypto provides the hashing, key and address primitives used to
// sign ledger transactions and derive stake account addresses.
package crypto

import (
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashParts hashes the concatenation of parts without separators or
// length prefixes.
func HashParts(parts ...[]byte) types.Hash {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	return truncate(h)
}

// SignerAddress returns the ledger identity controlled by s.
func SignerAddress(s Signer) types.Address {
	return AddressFromPubKey(s.PublicKey())
}

// NamedAddress derives a fixed well-known address from a label, as used for
// built-in program ids.
func NamedAddress(label string) types.Address {
	return truncate(Hash([]byte(label)))
}

func truncate(h types.Hash) types.Address {
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
