package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed blob layout:
//
//	salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
const (
	SaltSize   = 32
	headerSize = SaltSize + 4 + 4 + 1
	sealedMin  = headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
)

// ErrWrongPassword is returned when a sealed blob fails authentication,
// which almost always means the password is wrong.
var ErrWrongPassword = errors.New("wrong password or corrupted data")

// EncryptionParams holds Argon2id cost parameters.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id parameters used for new keystores.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func (p EncryptionParams) deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, chacha20poly1305.KeySize)
}

// Encrypt seals data under password with Argon2id and XChaCha20-Poly1305.
// The cost parameters are stored in the header so Decrypt needs only the
// password.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := params.deriveKey(password, salt)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, headerSize+len(nonce)+len(data)+aead.Overhead())
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, nil), nil
}

// Decrypt opens a blob produced by Encrypt.
func Decrypt(sealed, password []byte) ([]byte, error) {
	if len(sealed) < sealedMin {
		return nil, fmt.Errorf("encrypted data too short: %d bytes, need at least %d", len(sealed), sealedMin)
	}

	salt := sealed[:SaltSize]
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(sealed[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(sealed[SaltSize+4:]),
		Parallelism: sealed[SaltSize+8],
	}
	if params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("invalid key derivation parameters in header")
	}
	nonce := sealed[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[headerSize+chacha20poly1305.NonceSizeX:]

	key := params.deriveKey(password, salt)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

// wipe zeroes b in place.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
