// derive_accounts.go prints the derived stake account addresses for a base identity.
// Usage: go run scripts/derive_accounts.go <base-address> [count]
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_accounts <base-address> [count]")
		os.Exit(1)
	}
	base, err := types.ParseAddress(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	count := uint64(1)
	if len(os.Args) > 2 {
		count, err = strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	for i := uint64(0); i < count; i++ {
		addr, err := crypto.CreateWithSeed(base, strconv.FormatUint(i, 10), stake.ProgramID)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%d=%s\n", i, addr)
	}
}
