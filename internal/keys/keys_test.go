package keys

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/wallet"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func writeKeyFile(t *testing.T) (string, *crypto.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.hex")
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key.Serialize())+"\n"), 0600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return path, key
}

func testKeystore(t *testing.T, password string) *wallet.Keystore {
	t.Helper()
	ks, err := wallet.NewKeystore(t.TempDir())
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	seed, err := wallet.SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	params := wallet.EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1}
	if err := ks.Create("ops", seed, []byte(password), params); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return ks
}

// countingPassword returns a PasswordFunc and a pointer to its call count.
func countingPassword(password string) (PasswordFunc, *int) {
	calls := 0
	return func(string) ([]byte, error) {
		calls++
		return []byte(password), nil
	}, &calls
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    Spec
		wantErr bool
	}{
		{spec: "/tmp/key.hex", want: Spec{Kind: KindFile, Path: "/tmp/key.hex"}},
		{spec: "  key.hex ", want: Spec{Kind: KindFile, Path: "key.hex"}},
		{spec: "wallet:ops", want: Spec{Kind: KindWallet, Wallet: "ops"}},
		{spec: "wallet:ops/7", want: Spec{Kind: KindWallet, Wallet: "ops", Index: 7}},
		{spec: "", wantErr: true},
		{spec: "wallet:", wantErr: true},
		{spec: "wallet:/1", wantErr: true},
		{spec: "wallet:ops/x", wantErr: true},
		{spec: "wallet:ops/-1", wantErr: true},
		{spec: "wallet:ops/4294967296", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSpec(%q) should fail", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpec(%q) error: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestSpec_String(t *testing.T) {
	s, _ := ParseSpec("wallet:ops")
	if s.String() != "wallet:ops/0" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestReadKeyFile(t *testing.T) {
	path, key := writeKeyFile(t)
	loaded, err := ReadKeyFile(path)
	if err != nil {
		t.Fatalf("ReadKeyFile() error: %v", err)
	}
	if loaded.Address() != key.Address() {
		t.Error("loaded key address mismatch")
	}

	if _, err := ReadKeyFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ReadKeyFile() of a missing file should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.hex")
	os.WriteFile(bad, []byte("zz"), 0600)
	if _, err := ReadKeyFile(bad); err == nil {
		t.Error("ReadKeyFile() of a non-hex file should fail")
	}
}

func TestLoader_SignerFromFile(t *testing.T) {
	path, key := writeKeyFile(t)
	l := NewLoader(nil, nil)

	s1, err := l.Signer(path)
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	s2, _ := l.Signer(path)
	if s1 != s2 {
		t.Error("the same spec should resolve to the cached signer")
	}
	if s1.Address() != key.Address() {
		t.Error("signer address mismatch")
	}
}

func TestLoader_SignerFromWallet(t *testing.T) {
	ks := testKeystore(t, "pw")
	password, calls := countingPassword("pw")
	l := NewLoader(ks, password)

	signer, err := l.Signer("wallet:ops/2")
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	want, _ := ks.Signer("ops", []byte("pw"), 2)
	if signer.Address() != want.Address() {
		t.Error("wallet signer address mismatch")
	}

	l.Signer("wallet:ops/2")
	if *calls != 1 {
		t.Errorf("password asked %d times, want 1", *calls)
	}
}

func TestLoader_WalletErrors(t *testing.T) {
	ks := testKeystore(t, "pw")

	if _, err := NewLoader(nil, nil).Signer("wallet:ops"); err == nil {
		t.Error("wallet spec without a keystore should fail")
	}
	if _, err := NewLoader(ks, nil).Signer("wallet:ops"); err == nil {
		t.Error("wallet spec without a password source should fail")
	}

	wrong, _ := countingPassword("nope")
	if _, err := NewLoader(ks, wrong).Signer("wallet:ops"); !errors.Is(err, wallet.ErrWrongPassword) {
		t.Errorf("wrong password error = %v", err)
	}

	failing := func(string) ([]byte, error) { return nil, errors.New("no tty") }
	if _, err := NewLoader(ks, failing).Signer("wallet:ops"); err == nil {
		t.Error("password source failure should propagate")
	}
}

func TestLoader_Identity(t *testing.T) {
	path, key := writeKeyFile(t)
	ks := testKeystore(t, "pw")
	password, calls := countingPassword("pw")
	l := NewLoader(ks, password)

	addr := types.Address{0x01, 0x02}
	for _, s := range []string{addr.String(), addr.Hex()} {
		got, err := l.Identity(s)
		if err != nil {
			t.Fatalf("Identity(%q) error: %v", s, err)
		}
		if got != addr {
			t.Errorf("Identity(%q) = %s", s, got)
		}
	}

	got, err := l.Identity(path)
	if err != nil {
		t.Fatalf("Identity(key file) error: %v", err)
	}
	if got != key.Address() {
		t.Error("key file identity mismatch")
	}

	if _, err := l.Identity("not-an-address-or-file"); err == nil {
		t.Error("Identity() of garbage should fail")
	}
	if _, err := l.Identity(""); !errors.Is(err, ErrEmptySpec) {
		t.Errorf("Identity(\"\") error = %v", err)
	}
	if *calls != 0 {
		t.Errorf("password asked %d times, want 0", *calls)
	}
}

func TestLoader_IdentityRecordedWalletKey(t *testing.T) {
	ks := testKeystore(t, "pw")
	recorded := types.Address{0xee}
	if err := ks.AddKey("ops", wallet.KeyEntry{Index: 1, Address: recorded}); err != nil {
		t.Fatalf("AddKey() error: %v", err)
	}
	password, calls := countingPassword("pw")
	l := NewLoader(ks, password)

	got, err := l.Identity("wallet:ops/1")
	if err != nil {
		t.Fatalf("Identity() error: %v", err)
	}
	if got != recorded || *calls != 0 {
		t.Errorf("recorded identity = %s after %d prompts", got, *calls)
	}

	// Unrecorded index unlocks the wallet.
	got, err = l.Identity("wallet:ops/0")
	if err != nil {
		t.Fatalf("Identity() error: %v", err)
	}
	want, _ := ks.Signer("ops", []byte("pw"), 0)
	if got != want.Address() || *calls != 1 {
		t.Errorf("unlocked identity = %s after %d prompts", got, *calls)
	}
}

func TestLoader_Optional(t *testing.T) {
	l := NewLoader(nil, nil)
	fallback := types.Address{0x09}

	got, err := l.Optional("  ", fallback)
	if err != nil || got != fallback {
		t.Errorf("Optional(blank) = %s, %v", got, err)
	}
	addr := types.Address{0x0a}
	got, err = l.Optional(addr.Hex(), fallback)
	if err != nil || got != addr {
		t.Errorf("Optional(addr) = %s, %v", got, err)
	}
}
