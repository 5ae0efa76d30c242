package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero address should be zero")
	}
	nonZero := Address{1}
	if nonZero.IsZero() {
		t.Error("non-zero address should not be zero")
	}
}

func TestAddress_Hex(t *testing.T) {
	a := Address{0xab, 0xcd}
	h := a.Hex()
	if len(h) != 40 {
		t.Fatalf("Hex() length = %d, want 40", len(h))
	}
	if !strings.HasPrefix(h, "abcd") {
		t.Errorf("Hex() = %s, want prefix abcd", h)
	}
}

func TestAddress_String_Bech32(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	a := Address{0x01, 0x02, 0x03}

	SetAddressHRP(MainnetHRP)
	if s := a.String(); !strings.HasPrefix(s, "kgx1") {
		t.Errorf("mainnet String() = %s, want kgx1 prefix", s)
	}

	SetAddressHRP(TestnetHRP)
	if s := a.String(); !strings.HasPrefix(s, "tkgx1") {
		t.Errorf("testnet String() = %s, want tkgx1 prefix", s)
	}
}

func TestAddress_Bytes_IsCopy(t *testing.T) {
	a := Address{1, 2, 3}
	b := a.Bytes()
	b[0] = 0xff
	if a[0] != 1 {
		t.Error("Bytes() should return a copy")
	}
}

func TestAddress_Compare(t *testing.T) {
	a := Address{1}
	b := Address{2}
	if a.Compare(b) >= 0 {
		t.Error("a should sort before b")
	}
	if a.Compare(a) != 0 {
		t.Error("address should compare equal to itself")
	}
}

func TestHexToAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "valid 40 hex chars",
			input: "0123456789abcdef0123456789abcdef01234567",
		},
		{
			name:  "all zeros",
			input: strings.Repeat("0", 40),
		},
		{
			name:    "too short",
			input:   "abcd",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   strings.Repeat("a", 42),
			wantErr: true,
		},
		{
			name:    "invalid hex",
			input:   strings.Repeat("z", 40),
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := HexToAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("HexToAddress(%q) should have returned error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("HexToAddress(%q) unexpected error: %v", tt.input, err)
			}
			if a.Hex() != tt.input {
				t.Errorf("roundtrip: got %s, want %s", a.Hex(), tt.input)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	rawHex := "0123456789abcdef0123456789abcdef01234567"

	a, _ := HexToAddress(rawHex)
	mainnetBech32 := a.String()

	SetAddressHRP(TestnetHRP)
	testnetBech32 := a.String()
	SetAddressHRP(MainnetHRP)

	tests := []struct {
		name    string
		input   string
		wantHex string
		wantErr bool
	}{
		{"raw hex", rawHex, rawHex, false},
		{"bech32 mainnet", mainnetBech32, rawHex, false},
		{"bech32 testnet", testnetBech32, rawHex, false},
		{"invalid bech32", "kgx1invalid!!!", "", true},
		{"bad checksum", mainnetBech32[:len(mainnetBech32)-1] + "q", "", true},
		{"no separator", "notanaddress", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAddress(%q) should have returned error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) unexpected error: %v", tt.input, err)
			}
			if a.Hex() != tt.wantHex {
				t.Errorf("ParseAddress(%q) hex = %s, want %s", tt.input, a.Hex(), tt.wantHex)
			}
		})
	}
}

func TestAddress_JSON_RoundTrip(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	original := Address{0xab, 0xcd, 0xef}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "kgx1") {
		t.Errorf("JSON should contain bech32 format, got %s", string(data))
	}

	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if original != decoded {
		t.Errorf("roundtrip mismatch: original=%x, decoded=%x", original, decoded)
	}
}

func TestAddress_JSON_UnmarshalRawHex(t *testing.T) {
	rawJSON := `"0123456789abcdef0123456789abcdef01234567"`

	var a Address
	if err := json.Unmarshal([]byte(rawJSON), &a); err != nil {
		t.Fatalf("Unmarshal raw hex: %v", err)
	}
	if a.Hex() != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("unexpected address: %s", a.Hex())
	}
}

func TestSetAddressHRP(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(TestnetHRP)
	if GetAddressHRP() != TestnetHRP {
		t.Errorf("GetAddressHRP() = %s, want %s", GetAddressHRP(), TestnetHRP)
	}

	SetAddressHRP(MainnetHRP)
	if GetAddressHRP() != MainnetHRP {
		t.Errorf("GetAddressHRP() = %s, want %s", GetAddressHRP(), MainnetHRP)
	}
}
