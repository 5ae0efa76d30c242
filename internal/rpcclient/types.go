package rpcclient

import (
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
)

// Method names.
const (
	MethodGetBalance      = "account_getBalance"
	MethodGetStakeAccount = "stake_getAccount"
	MethodChainInfo       = "chain_getInfo"
	MethodTxSubmit        = "tx_submit"
	MethodTxStatus        = "tx_getStatus"
)

// ── Param types ─────────────────────────────────────────────────────────

// AddressParam is used by account_getBalance and stake_getAccount.
type AddressParam struct {
	Address types.Address `json:"address"`
}

// HashParam is used by tx_getStatus.
type HashParam struct {
	Hash types.Hash `json:"hash"`
}

// TxSubmitParam is used by tx_submit.
type TxSubmitParam struct {
	Transaction *tx.Transaction `json:"transaction"`
}

// ── Result types ────────────────────────────────────────────────────────

// BalanceResult is returned by account_getBalance.
type BalanceResult struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// StakeAccountResult is returned by stake_getAccount.
type StakeAccountResult = stake.AccountState

// ChainInfoResult is returned by chain_getInfo.
type ChainInfoResult struct {
	ChainID string     `json:"chain_id"`
	Height  uint64     `json:"height"`
	TipHash types.Hash `json:"tip_hash"`
}

// TxSubmitResult is returned by tx_submit.
type TxSubmitResult struct {
	TxHash types.Hash `json:"tx_hash"`
}

// Transaction statuses reported by tx_getStatus.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// TxStatusResult is returned by tx_getStatus.
type TxStatusResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
