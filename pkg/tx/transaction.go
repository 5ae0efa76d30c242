// Package tx defines the account-model transaction, its canonical signing
// bytes and structural validation.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// Account meta flag bits in the signing encoding.
const (
	flagSigner   = 1 << 0
	flagWritable = 1 << 1
)

// Transaction is an ordered list of instructions paid for by FeePayer and
// anchored to a recent ledger hash.
type Transaction struct {
	Version      uint32        `json:"version"`
	FeePayer     types.Address `json:"fee_payer"`
	RecentHash   types.Hash    `json:"recent_hash"`
	Instructions []Instruction `json:"instructions"`
	Signatures   []Signature   `json:"signatures"`
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID types.Address `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      []byte        `json:"data"`
}

// AccountMeta names an account an instruction touches.
type AccountMeta struct {
	Address    types.Address `json:"address"`
	IsSigner   bool          `json:"is_signer"`
	IsWritable bool          `json:"is_writable"`
}

// Signature is one signer's Schnorr signature over the transaction hash.
type Signature struct {
	PubKey    []byte `json:"pubkey"`
	Signature []byte `json:"signature"`
}

// Writable returns a writable, non-signer account meta.
func Writable(addr types.Address) AccountMeta {
	return AccountMeta{Address: addr, IsWritable: true}
}

// ReadOnly returns a read-only, non-signer account meta.
func ReadOnly(addr types.Address) AccountMeta {
	return AccountMeta{Address: addr}
}

// SignerMeta returns a signer account meta.
func SignerMeta(addr types.Address, writable bool) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: true, IsWritable: writable}
}

func (m AccountMeta) flags() byte {
	var f byte
	if m.IsSigner {
		f |= flagSigner
	}
	if m.IsWritable {
		f |= flagWritable
	}
	return f
}

// instructionJSON is the JSON representation of Instruction with hex data.
type instructionJSON struct {
	ProgramID types.Address `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"`
}

// MarshalJSON encodes the instruction with hex-encoded data.
func (ix Instruction) MarshalJSON() ([]byte, error) {
	return json.Marshal(instructionJSON{
		ProgramID: ix.ProgramID,
		Accounts:  ix.Accounts,
		Data:      hex.EncodeToString(ix.Data),
	})
}

// UnmarshalJSON decodes an instruction with hex-encoded data.
func (ix *Instruction) UnmarshalJSON(data []byte) error {
	var j instructionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	b, err := hex.DecodeString(j.Data)
	if err != nil {
		return err
	}
	ix.ProgramID = j.ProgramID
	ix.Accounts = j.Accounts
	ix.Data = b
	return nil
}

// signatureJSON is the JSON representation of Signature with hex fields.
type signatureJSON struct {
	PubKey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

// MarshalJSON encodes the signature with hex-encoded fields.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureJSON{
		PubKey:    hex.EncodeToString(s.PubKey),
		Signature: hex.EncodeToString(s.Signature),
	})
}

// UnmarshalJSON decodes a signature with hex-encoded fields.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var j signatureJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	pub, err := hex.DecodeString(j.PubKey)
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(j.Signature)
	if err != nil {
		return err
	}
	s.PubKey = pub
	s.Signature = sig
	return nil
}

// Hash computes the transaction ID (BLAKE3 hash of the serialized signing data).
// Signatures are excluded.
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for signing.
// Format: version(4) | fee_payer(20) | recent_hash(32) | ix_count(4) |
// [program(20) | acct_count(4) | [addr(20) flags(1)]... | data_len(4) | data]...
func (tx *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, tx.Version)
	buf = append(buf, tx.FeePayer[:]...)
	buf = append(buf, tx.RecentHash[:]...)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Instructions)))
	for _, ix := range tx.Instructions {
		buf = append(buf, ix.ProgramID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.Accounts)))
		for _, m := range ix.Accounts {
			buf = append(buf, m.Address[:]...)
			buf = append(buf, m.flags())
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.Data)))
		buf = append(buf, ix.Data...)
	}

	return buf
}

// RequiredSigners returns the addresses that must sign: the fee payer
// first, then every distinct signer account in order of first appearance.
func (tx *Transaction) RequiredSigners() []types.Address {
	signers := []types.Address{tx.FeePayer}
	seen := map[types.Address]bool{tx.FeePayer: true}
	for _, ix := range tx.Instructions {
		for _, m := range ix.Accounts {
			if m.IsSigner && !seen[m.Address] {
				seen[m.Address] = true
				signers = append(signers, m.Address)
			}
		}
	}
	return signers
}
