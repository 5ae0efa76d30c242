package system

import (
	"testing"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

func TestCreateAccountWithSeed(t *testing.T) {
	from := types.Address{0x01}
	to := types.Address{0x02}
	base := types.Address{0x03}
	owner := types.Address{0x04}

	ix := CreateAccountWithSeed(from, to, base, "12", 5000, 200, owner)

	if ix.ProgramID != ProgramID {
		t.Errorf("ProgramID = %s, want system", ix.ProgramID)
	}
	if !ix.Accounts[0].IsSigner || !ix.Accounts[0].IsWritable {
		t.Error("funding account should be a writable signer")
	}
	if ix.Accounts[1].IsSigner || !ix.Accounts[1].IsWritable {
		t.Error("new account should be writable and not sign")
	}
	for _, m := range ix.Accounts {
		if m.Address == base {
			t.Error("base should not appear as an account")
		}
	}

	p, err := Parse(ix)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.Tag != TagCreateAccountWithSeed || p.Base != base || p.Seed != "12" ||
		p.Lamports != 5000 || p.Space != 200 || p.Owner != owner || p.From != from || p.To != to {
		t.Errorf("Parse() = %+v", p)
	}
}

func TestTransfer(t *testing.T) {
	from := types.Address{0x01}
	to := types.Address{0x02}

	ix := Transfer(from, to, 777)
	if len(ix.Data) != 12 {
		t.Errorf("data length = %d, want 12", len(ix.Data))
	}

	p, err := Parse(ix)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.Tag != TagTransfer || p.Lamports != 777 || p.From != from || p.To != to {
		t.Errorf("Parse() = %+v", p)
	}
}

func TestParse_Errors(t *testing.T) {
	good := Transfer(types.Address{1}, types.Address{2}, 1)

	tests := []struct {
		name string
		ix   tx.Instruction
	}{
		{"wrong program", tx.Instruction{ProgramID: types.Address{0x99}, Accounts: good.Accounts, Data: good.Data}},
		{"wrong account count", tx.Instruction{ProgramID: ProgramID, Accounts: good.Accounts[:1], Data: good.Data}},
		{"unknown tag", tx.Instruction{ProgramID: ProgramID, Accounts: good.Accounts, Data: tx.NewData(9).Bytes()}},
		{"short data", tx.Instruction{ProgramID: ProgramID, Accounts: good.Accounts, Data: good.Data[:6]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.ix); err == nil {
				t.Error("expected error")
			}
		})
	}
}
