package stakeaccounts

import (
	"testing"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/system"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

func TestAuthorizeInstructions(t *testing.T) {
	account := types.Address{0x01}
	stakeAuth := types.Address{0x02}
	withdrawAuth := types.Address{0x03}
	newStake := types.Address{0x04}
	newWithdraw := types.Address{0x05}

	ixs := AuthorizeInstructions(account, stakeAuth, withdrawAuth, newStake, newWithdraw)
	if len(ixs) != 2 {
		t.Fatalf("instructions = %d, want 2", len(ixs))
	}

	first := parseStake(t, ixs[0])
	second := parseStake(t, ixs[1])
	if first.Accounts[0] != account || second.Accounts[0] != account {
		t.Error("both instructions should target the same account")
	}
	if first.Kind != stake.Staker || first.NewAuthority != newStake || first.Accounts[1] != stakeAuth {
		t.Errorf("staker instruction = %+v", first)
	}
	if second.Kind != stake.Withdrawer || second.NewAuthority != newWithdraw || second.Accounts[1] != withdrawAuth {
		t.Errorf("withdrawer instruction = %+v", second)
	}
}

func TestRelocateInstructions(t *testing.T) {
	d := newDeriver(t)
	base := types.Address{0x10}
	newBase := types.Address{0x20}
	stakeAuth := types.Address{0x02}
	withdrawAuth := types.Address{0x03}
	newStake := types.Address{0x04}
	newWithdraw := types.Address{0x05}

	source := mustDerive(t, d, base, 2)
	ixs, dest, err := RelocateInstructions(d, source, stakeAuth, withdrawAuth, 5000, newBase, 2, newStake, newWithdraw)
	if err != nil {
		t.Fatalf("RelocateInstructions() error: %v", err)
	}

	if want := mustDerive(t, d, newBase, 2); dest != want {
		t.Errorf("destination = %s, want %s", dest, want)
	}
	if len(ixs) != 3 {
		t.Fatalf("instructions = %d, want 3", len(ixs))
	}

	split := parseStake(t, ixs[0])
	if split.Tag != stake.TagSplitWithSeed {
		t.Fatalf("first instruction tag = %d, want split", split.Tag)
	}
	if split.Accounts[0] != source || split.Accounts[1] != dest || split.Accounts[2] != stakeAuth {
		t.Errorf("split accounts = %v", split.Accounts)
	}
	if split.Lamports != 5000 || split.Base != newBase || split.Seed != "2" {
		t.Errorf("split = %+v", split)
	}

	for i, ix := range ixs[1:] {
		p := parseStake(t, ix)
		if p.Tag != stake.TagAuthorize {
			t.Fatalf("instruction %d tag = %d, want authorize", i+1, p.Tag)
		}
		if p.Accounts[0] != dest {
			t.Errorf("authorize %d targets %s, want destination", i+1, p.Accounts[0])
		}
	}
	if parseStake(t, ixs[1]).NewAuthority != newStake || parseStake(t, ixs[2]).NewAuthority != newWithdraw {
		t.Error("authorize instructions should set the new authorities")
	}
}

func TestWithdrawInstructions(t *testing.T) {
	account := types.Address{0x01}
	auth := types.Address{0x02}
	to := types.Address{0x03}

	ixs := WithdrawInstructions(account, auth, to, 77)
	if len(ixs) != 1 {
		t.Fatalf("instructions = %d, want 1", len(ixs))
	}
	p := parseStake(t, ixs[0])
	if p.Tag != stake.TagWithdraw || p.Lamports != 77 || p.Accounts[0] != account || p.Accounts[1] != to || p.Accounts[2] != auth {
		t.Errorf("withdraw = %+v", p)
	}
}

func TestCreateInstructions(t *testing.T) {
	d := newDeriver(t)
	sender := types.Address{0x01}
	base := types.Address{0x02}
	auth := stake.Authorized{Staker: types.Address{0x03}, Withdrawer: types.Address{0x04}}
	lockup := stake.Lockup{UnixTimestamp: 1_800_000_000, Custodian: types.Address{0x05}}

	ixs, addr, err := CreateInstructions(d, sender, base, 4, 900, auth, lockup)
	if err != nil {
		t.Fatalf("CreateInstructions() error: %v", err)
	}
	if addr != mustDerive(t, d, base, 4) {
		t.Error("created address should be the derived address")
	}
	if len(ixs) != 2 {
		t.Fatalf("instructions = %d, want 2", len(ixs))
	}

	create, err := system.Parse(ixs[0])
	if err != nil {
		t.Fatalf("system.Parse() error: %v", err)
	}
	if create.Tag != system.TagCreateAccountWithSeed || create.From != sender || create.To != addr ||
		create.Base != base || create.Seed != "4" || create.Lamports != 900 ||
		create.Space != stake.AccountSpace || create.Owner != stake.ProgramID {
		t.Errorf("create = %+v", create)
	}

	initIx := parseStake(t, ixs[1])
	if initIx.Tag != stake.TagInitialize || initIx.Authorized != auth || initIx.Lockup != lockup || initIx.Accounts[0] != addr {
		t.Errorf("initialize = %+v", initIx)
	}
}

func TestDepositInstructions(t *testing.T) {
	d := newDeriver(t)
	sender := types.Address{0x01}
	base := types.Address{0x02}

	ixs, addr, err := DepositInstructions(d, sender, base, 1, 300)
	if err != nil {
		t.Fatalf("DepositInstructions() error: %v", err)
	}
	p, err := system.Parse(ixs[0])
	if err != nil {
		t.Fatalf("system.Parse() error: %v", err)
	}
	if p.Tag != system.TagTransfer || p.From != sender || p.To != addr || p.Lamports != 300 {
		t.Errorf("transfer = %+v", p)
	}
	if addr != mustDerive(t, d, base, 1) {
		t.Error("deposit should target the derived address")
	}
}
