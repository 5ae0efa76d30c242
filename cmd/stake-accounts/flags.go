package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-stake-accounts/config"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/vesting"
)

// countFlag is an optional account count; unset means "discover".
type countFlag struct {
	n   uint64
	set bool
}

func (c *countFlag) String() string {
	if !c.set {
		return ""
	}
	return strconv.FormatUint(c.n, 10)
}

func (c *countFlag) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account count %q", s)
	}
	c.n, c.set = n, true
	return nil
}

// Count returns nil when the flag was not given.
func (c *countFlag) Count() *uint64 {
	if !c.set {
		return nil
	}
	n := c.n
	return &n
}

func numAccountsFlag(fs *flag.FlagSet) *countFlag {
	c := &countFlag{}
	fs.Var(c, "num-accounts", "Number of derived accounts (default: discover by balance)")
	return c
}

// amountFlag parses a KGX amount into base units.
type amountFlag struct {
	units uint64
	set   bool
}

func (a *amountFlag) String() string {
	if !a.set {
		return ""
	}
	return config.FormatAmount(a.units)
}

func (a *amountFlag) Set(s string) error {
	units, err := config.ParseAmount(s)
	if err != nil {
		return err
	}
	a.units, a.set = units, true
	return nil
}

// scheduleFlags are the vesting flags shared by new and deposit.
type scheduleFlags struct {
	cliffFraction string
	cliffYears    string
	unlockYears   string
	unlocks       string
	start         int64
}

func addScheduleFlags(fs *flag.FlagSet) *scheduleFlags {
	s := &scheduleFlags{}
	fs.StringVar(&s.cliffFraction, "cliff-fraction", "", "Fraction of the amount held by account 0 (0..1)")
	fs.StringVar(&s.cliffYears, "cliff-years", "", "Years until the cliff unlocks")
	fs.StringVar(&s.unlockYears, "unlock-years", "", "Years between unlocks after the cliff")
	fs.StringVar(&s.unlocks, "unlocks", "", "Number of unlocks after the cliff; one derived account each")
	fs.Int64Var(&s.start, "start", 0, "Schedule start as a unix timestamp (default: now)")
	return s
}

// Schedule returns nil when no vesting flag was given.
func (s *scheduleFlags) Schedule() (*vesting.Schedule, error) {
	given := []string{s.cliffFraction, s.cliffYears, s.unlockYears, s.unlocks}
	anySet := false
	for _, v := range given {
		if v != "" {
			anySet = true
		}
	}
	if !anySet {
		return nil, nil
	}
	for i, v := range given {
		if v == "" {
			names := []string{"--cliff-fraction", "--cliff-years", "--unlock-years", "--unlocks"}
			return nil, fmt.Errorf("vesting needs all of %s (missing %s)", strings.Join(names, ", "), names[i])
		}
	}
	unlocks, err := strconv.ParseUint(s.unlocks, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --unlocks %q", s.unlocks)
	}
	return vesting.ParseSchedule(s.cliffFraction, s.cliffYears, s.unlockYears, unlocks)
}

// Start returns the schedule anchor; zero means now.
func (s *scheduleFlags) Start() time.Time {
	if s.start == 0 {
		return time.Time{}
	}
	return time.Unix(s.start, 0)
}
