package chain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// InMempoolHash is the block hash reported by the node for a transaction that
// is known but not yet included in a block.
const InMempoolHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

// TxType identifies the kind of contract transaction.
type TxType int

const (
	CallContractTx TxType = iota
	DeployContractTx
	TerminateContractTx
	TransferTx
)

func (t TxType) String() string {
	switch t {
	case DeployContractTx:
		return "deploy"
	case TerminateContractTx:
		return "terminate"
	case TransferTx:
		return "transfer"
	default:
		return "call"
	}
}

// Argument formats understood by the contract runtime.
const (
	FormatHex    = "hex"
	FormatByte   = "byte"
	FormatUint64 = "uint64"
	FormatDna    = "dna"
	FormatString = "string"
)

// CallArg is a single positional contract argument.
type CallArg struct {
	Index  int    `json:"index"`
	Format string `json:"format"`
	Value  string `json:"value"`
}

// ContractTx describes a contract transaction before signing.
type ContractTx struct {
	Type     TxType    `json:"type"`
	From     string    `json:"from"`
	To       string    `json:"to,omitempty"`
	Contract string    `json:"contract,omitempty"`
	CodeHash string    `json:"codeHash,omitempty"`
	Method   string    `json:"method,omitempty"`
	Amount   float64   `json:"amount"`
	MaxFee   float64   `json:"maxFee,omitempty"`
	Args     []CallArg `json:"args,omitempty"`
}

// Estimate is the read-only dry run of a ContractTx. A non-empty Error is a
// contract-level failure reason.
type Estimate struct {
	Success  bool    `json:"success"`
	Error    string  `json:"error"`
	GasCost  float64 `json:"gasCost"`
	TxFee    float64 `json:"txFee"`
	Contract string  `json:"contract"`
}

// TxStatus is the node's view of a submitted transaction.
type TxStatus struct {
	Hash      string `json:"hash"`
	BlockHash string `json:"blockHash"`
	Timestamp int64  `json:"timestamp"`
}

// Included reports whether the transaction has left the mempool.
func (s *TxStatus) Included() bool {
	return s != nil && s.BlockHash != "" && s.BlockHash != InMempoolHash
}

// ContractError is an execution failure reported by the contract runtime. Its
// message is the verbatim reason, e.g. "sender has voted already".
type ContractError struct {
	Reason string
}

func (e *ContractError) Error() string {
	return e.Reason
}

// IsContractError reports whether err carries a contract execution reason.
func IsContractError(err error) (*ContractError, bool) {
	cErr, ok := err.(*ContractError)
	return cErr, ok
}

//go:generate moq -out ./mock/node.go -pkg mock . Node

// Node is the set of node services the client depends on.
type Node interface {
	EstimateTx(ctx context.Context, tx *ContractTx) (*Estimate, error)
	SendTx(ctx context.Context, tx *ContractTx) (string, error)
	TxStatus(ctx context.Context, hash string) (*TxStatus, error)
	BlockHeight(ctx context.Context) (uint64, error)
	Call(ctx context.Context, contract, method string, args ...CallArg) (json.RawMessage, error)
	NetworkSize(ctx context.Context) (int, error)
	FeePerGas(ctx context.Context) (float64, error)
}

// Signer turns a built transaction into its signed wire form.
type Signer interface {
	Address() string
	SignTx(ctx context.Context, tx *ContractTx) ([]byte, error)
}

// NormalizeAddress validates a hex address and returns it lower-cased.
func NormalizeAddress(address string) (string, bool) {
	if !common.IsHexAddress(address) {
		return "", false
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), true
}
