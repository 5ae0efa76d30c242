package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Klingon-tech/klingnet-stake-accounts/config"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/stakeaccounts"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// ── Key helpers ─────────────────────────────────────────────────────────

// identity resolves an address or key spec, exiting on failure.
func (e *env) identity(name, s string) types.Address {
	addr, err := e.loader.Identity(s)
	if err != nil {
		fatal("--%s: %v", name, err)
	}
	return addr
}

// signer loads a key spec. An empty spec yields a nil Signer so the
// missing role is reported by the intent's signer check.
func (e *env) signer(name, spec string) crypto.Signer {
	if spec == "" {
		return nil
	}
	key, err := e.loader.Signer(spec)
	if err != nil {
		fatal("--%s: %v", name, err)
	}
	return key
}

// feePayer loads the per-command fee payer, or the configured default.
func (e *env) feePayer(override string) crypto.Signer {
	if override != "" {
		return e.signer("fee-payer", override)
	}
	return e.signer("fee-payer", e.cfg.Keys.FeePayer)
}

func parseFlags(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if fs.NArg() > 0 {
		fatal("unexpected argument %q for %s", fs.Arg(0), fs.Name())
	}
}

// ── Batch reporting ─────────────────────────────────────────────────────

// reportBatch prints confirmed transactions and, on failure, which account
// failed and which were never submitted, then exits non-zero.
func reportBatch(intent string, res *stakeaccounts.BatchResult, err error) {
	if res != nil {
		for i, pos := range res.Succeeded {
			fmt.Printf("  [%d] confirmed %s\n", pos, res.TxHashes[i])
		}
	}

	var subErr *stakeaccounts.SubmissionError
	if errors.As(err, &subErr) {
		fmt.Fprintf(os.Stderr, "\n%s stopped at account %d: %v\n", intent, subErr.Index, subErr.Err)
		if subErr.Completed > 0 {
			fmt.Fprintf(os.Stderr, "Confirmed %d of %d transactions (accounts 0-%d).\n",
				subErr.Completed, res.Total, subErr.Index-1)
		} else {
			fmt.Fprintf(os.Stderr, "No transactions were confirmed.\n")
		}
		if subErr.Index+1 < res.Total {
			fmt.Fprintf(os.Stderr, "Accounts %d-%d were not submitted.\n", subErr.Index+1, res.Total-1)
		}
		fmt.Fprintln(os.Stderr, "Check balances before re-running; confirmed accounts must not be submitted again.")
		os.Exit(1)
	}
	if err != nil {
		fatal("%s: %v", intent, err)
	}
	fmt.Printf("%s: %d transaction(s) confirmed\n", intent, res.Completed())
}

// ── new / deposit ───────────────────────────────────────────────────────

func cmdNew(e *env, args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	from := fs.String("from", "", "Funding key (sender)")
	base := fs.String("base", "", "Base identity of the new family")
	var amount amountFlag
	fs.Var(&amount, "amount", "Total amount to fund (KGX)")
	stakeAuth := fs.String("stake-authority", "", "Stake authority identity")
	withdrawAuth := fs.String("withdraw-authority", "", "Withdraw authority identity")
	custodian := fs.String("custodian", "", "Lockup custodian identity (optional)")
	feePayer := fs.String("fee-payer", "", "Fee payer key")
	sched := addScheduleFlags(fs)
	parseFlags(fs, args)

	if *from == "" || *base == "" || !amount.set || *stakeAuth == "" || *withdrawAuth == "" {
		fatal("Usage: stake-accounts new --from <key> --base <id> --amount <amt> --stake-authority <id> --withdraw-authority <id>")
	}
	schedule, err := sched.Schedule()
	if err != nil {
		fatal("%v", err)
	}
	custodianAddr, err := e.loader.Optional(*custodian, types.Address{})
	if err != nil {
		fatal("--custodian: %v", err)
	}

	params := stakeaccounts.NewParams{
		FundParams: stakeaccounts.FundParams{
			Base:     e.identity("base", *base),
			Amount:   amount.units,
			Schedule: schedule,
			Start:    sched.Start(),
		},
		Authorized: stake.Authorized{
			Staker:     e.identity("stake-authority", *stakeAuth),
			Withdrawer: e.identity("withdraw-authority", *withdrawAuth),
		},
		Custodian: custodianAddr,
	}
	keys := stakeaccounts.Keys{
		FeePayer: e.feePayer(*feePayer),
		Sender:   e.signer("from", *from),
	}

	res, err := e.manager.New(e.ctx, params, keys)
	reportBatch("new", res, err)
}

func cmdDeposit(e *env, args []string) {
	fs := flag.NewFlagSet("deposit", flag.ExitOnError)
	from := fs.String("from", "", "Funding key (sender)")
	base := fs.String("base", "", "Base identity of the family")
	var amount amountFlag
	fs.Var(&amount, "amount", "Total amount to deposit (KGX)")
	feePayer := fs.String("fee-payer", "", "Fee payer key")
	sched := addScheduleFlags(fs)
	parseFlags(fs, args)

	if *from == "" || *base == "" || !amount.set {
		fatal("Usage: stake-accounts deposit --from <key> --base <id> --amount <amt>")
	}
	schedule, err := sched.Schedule()
	if err != nil {
		fatal("%v", err)
	}

	params := stakeaccounts.FundParams{
		Base:     e.identity("base", *base),
		Amount:   amount.units,
		Schedule: schedule,
		Start:    sched.Start(),
	}
	keys := stakeaccounts.Keys{
		FeePayer: e.feePayer(*feePayer),
		Sender:   e.signer("from", *from),
	}

	res, err := e.manager.Deposit(e.ctx, params, keys)
	reportBatch("deposit", res, err)
}

// ── balance / pubkeys / show ────────────────────────────────────────────

func cmdBalance(e *env, args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	base := fs.String("base", "", "Base identity of the family")
	count := numAccountsFlag(fs)
	parseFlags(fs, args)

	if *base == "" {
		fatal("Usage: stake-accounts balance --base <id> [--num-accounts <n>]")
	}

	accounts, total, err := e.manager.Balances(e.ctx, e.identity("base", *base), count.Count())
	if err != nil {
		fatal("balance: %v", err)
	}
	for _, a := range accounts {
		fmt.Printf("  [%d] %s  %s KGX\n", a.Index, a.Address, config.FormatAmount(a.Balance))
	}
	fmt.Printf("Accounts: %d\n", len(accounts))
	fmt.Printf("Total:    %s KGX\n", config.FormatAmount(total))
}

func cmdPubkeys(e *env, args []string) {
	fs := flag.NewFlagSet("pubkeys", flag.ExitOnError)
	base := fs.String("base", "", "Base identity of the family")
	count := numAccountsFlag(fs)
	parseFlags(fs, args)

	if *base == "" {
		fatal("Usage: stake-accounts pubkeys --base <id> [--num-accounts <n>]")
	}

	addrs, err := e.manager.Pubkeys(e.ctx, e.identity("base", *base), count.Count())
	if err != nil {
		fatal("pubkeys: %v", err)
	}
	for _, addr := range addrs {
		fmt.Println(addr)
	}
}

func cmdShow(e *env, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	base := fs.String("base", "", "Base identity of the family")
	count := numAccountsFlag(fs)
	asJSON := fs.Bool("json", false, "Print JSON")
	parseFlags(fs, args)

	if *base == "" {
		fatal("Usage: stake-accounts show --base <id> [--num-accounts <n>] [--json]")
	}

	states, err := e.manager.Show(e.ctx, e.identity("base", *base), count.Count())
	if err != nil {
		fatal("show: %v", err)
	}

	if *asJSON {
		data, err := json.MarshalIndent(states, "", "  ")
		if err != nil {
			fatal("marshal result: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	now := time.Now().Unix()
	for i, st := range states {
		fmt.Printf("Account %d: %s\n", i, st.Address)
		fmt.Printf("  Balance:            %s KGX\n", config.FormatAmount(st.Balance))
		fmt.Printf("  Stake authority:    %s\n", st.Authorized.Staker)
		fmt.Printf("  Withdraw authority: %s\n", st.Authorized.Withdrawer)
		switch {
		case st.Lockup.UnixTimestamp == 0:
			fmt.Printf("  Lockup:             none\n")
		case st.Lockup.IsLocked(now):
			fmt.Printf("  Lockup:             until %s\n", time.Unix(st.Lockup.UnixTimestamp, 0).UTC().Format(time.RFC3339))
		default:
			fmt.Printf("  Lockup:             expired %s\n", time.Unix(st.Lockup.UnixTimestamp, 0).UTC().Format(time.RFC3339))
		}
		if !st.Lockup.Custodian.IsZero() {
			fmt.Printf("  Custodian:          %s\n", st.Lockup.Custodian)
		}
	}
}

// ── withdraw ────────────────────────────────────────────────────────────

func cmdWithdraw(e *env, args []string) {
	fs := flag.NewFlagSet("withdraw", flag.ExitOnError)
	base := fs.String("base", "", "Base identity of the family")
	index := fs.Uint64("index", 0, "Index of the derived account")
	withdrawAuth := fs.String("withdraw-authority", "", "Withdraw authority key")
	recipient := fs.String("recipient", "", "Recipient identity")
	var amount amountFlag
	fs.Var(&amount, "amount", "Amount to withdraw (KGX)")
	feePayer := fs.String("fee-payer", "", "Fee payer key")
	parseFlags(fs, args)

	if *base == "" || *recipient == "" || !amount.set {
		fatal("Usage: stake-accounts withdraw --base <id> --index <i> --withdraw-authority <key> --recipient <id> --amount <amt>")
	}

	params := stakeaccounts.WithdrawParams{
		Base:      e.identity("base", *base),
		Index:     *index,
		Recipient: e.identity("recipient", *recipient),
		Amount:    amount.units,
	}
	keys := stakeaccounts.Keys{
		FeePayer:          e.feePayer(*feePayer),
		WithdrawAuthority: e.signer("withdraw-authority", *withdrawAuth),
	}

	res, err := e.manager.Withdraw(e.ctx, params, keys)
	reportBatch("withdraw", res, err)
}

// ── authorize / rebase / move ───────────────────────────────────────────

// authorityFlags are the current-authority keys of batch intents.
type authorityFlags struct {
	stake    *string
	withdraw *string
	feePayer *string
}

func addAuthorityFlags(fs *flag.FlagSet) authorityFlags {
	return authorityFlags{
		stake:    fs.String("stake-authority", "", "Current stake authority key"),
		withdraw: fs.String("withdraw-authority", "", "Current withdraw authority key"),
		feePayer: fs.String("fee-payer", "", "Fee payer key"),
	}
}

func (a authorityFlags) keys(e *env) stakeaccounts.Keys {
	return stakeaccounts.Keys{
		FeePayer:          e.feePayer(*a.feePayer),
		StakeAuthority:    e.signer("stake-authority", *a.stake),
		WithdrawAuthority: e.signer("withdraw-authority", *a.withdraw),
	}
}

func cmdAuthorize(e *env, args []string) {
	fs := flag.NewFlagSet("authorize", flag.ExitOnError)
	base := fs.String("base", "", "Base identity of the family")
	auth := addAuthorityFlags(fs)
	newStake := fs.String("new-stake-authority", "", "New stake authority identity")
	newWithdraw := fs.String("new-withdraw-authority", "", "New withdraw authority identity")
	count := numAccountsFlag(fs)
	parseFlags(fs, args)

	if *base == "" || *newStake == "" || *newWithdraw == "" {
		fatal("Usage: stake-accounts authorize --base <id> --stake-authority <key> --withdraw-authority <key> --new-stake-authority <id> --new-withdraw-authority <id>")
	}

	params := stakeaccounts.AuthorizeParams{
		Base:                 e.identity("base", *base),
		Count:                count.Count(),
		NewStakeAuthority:    e.identity("new-stake-authority", *newStake),
		NewWithdrawAuthority: e.identity("new-withdraw-authority", *newWithdraw),
	}

	res, err := e.manager.Authorize(e.ctx, params, auth.keys(e))
	reportBatch("authorize", res, err)
}

func cmdRebase(e *env, args []string) {
	fs := flag.NewFlagSet("rebase", flag.ExitOnError)
	base := fs.String("base", "", "Base identity of the family")
	newBase := fs.String("new-base", "", "New base identity")
	auth := addAuthorityFlags(fs)
	count := numAccountsFlag(fs)
	parseFlags(fs, args)

	if *base == "" || *newBase == "" {
		fatal("Usage: stake-accounts rebase --base <id> --new-base <id> --stake-authority <key> --withdraw-authority <key>")
	}

	params := stakeaccounts.RebaseParams{
		Base:    e.identity("base", *base),
		NewBase: e.identity("new-base", *newBase),
		Count:   count.Count(),
	}

	res, err := e.manager.Rebase(e.ctx, params, auth.keys(e))
	reportBatch("rebase", res, err)
}

func cmdMove(e *env, args []string) {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	base := fs.String("base", "", "Base identity of the family")
	newBase := fs.String("new-base", "", "New base identity")
	auth := addAuthorityFlags(fs)
	newStake := fs.String("new-stake-authority", "", "New stake authority identity")
	newWithdraw := fs.String("new-withdraw-authority", "", "New withdraw authority identity")
	count := numAccountsFlag(fs)
	parseFlags(fs, args)

	if *base == "" || *newBase == "" || *newStake == "" || *newWithdraw == "" {
		fatal("Usage: stake-accounts move --base <id> --new-base <id> --stake-authority <key> --withdraw-authority <key> --new-stake-authority <id> --new-withdraw-authority <id>")
	}

	params := stakeaccounts.MoveParams{
		RebaseParams: stakeaccounts.RebaseParams{
			Base:    e.identity("base", *base),
			NewBase: e.identity("new-base", *newBase),
			Count:   count.Count(),
		},
		NewStakeAuthority:    e.identity("new-stake-authority", *newStake),
		NewWithdrawAuthority: e.identity("new-withdraw-authority", *newWithdraw),
	}

	res, err := e.manager.Move(e.ctx, params, auth.keys(e))
	reportBatch("move", res, err)
}
