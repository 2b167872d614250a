package chain

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"strconv"

	"decred.org/dcrwallet/v2/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// OracleVotingCodeHash identifies the built-in oracle voting contract.
const OracleVotingCodeHash = "0x02"

// Oracle voting contract methods.
const (
	MethodStartVoting   = "startVoting"
	MethodSendVoteProof = "sendVoteProof"
	MethodSendVote      = "sendVote"
	MethodProlong       = "prolongVoting"
	MethodFinish        = "finishVoting"
	MethodVoteHash      = "voteHash"
)

// Fact is the public part of a voting stored in the contract.
type Fact struct {
	Title   string       `json:"title"`
	Desc    string       `json:"desc"`
	Options []FactOption `json:"options"`
}

type FactOption struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

// DeployParams holds the constructor arguments of an oracle voting contract.
type DeployParams struct {
	Fact                 Fact
	StartTime            int64
	VotingDuration       uint64
	PublicVotingDuration uint64
	WinnerThreshold      int
	Quorum               int
	CommitteeSize        int
	VotingMinPayment     float64
	OwnerFee             int
}

func uintArg(index int, value uint64) CallArg {
	return CallArg{Index: index, Format: FormatUint64, Value: strconv.FormatUint(value, 10)}
}

func dnaArg(index int, value float64) CallArg {
	return CallArg{Index: index, Format: FormatDna, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}

// DeployOracleVotingTx builds the deploy transaction. amount is transferred
// to the new contract.
func DeployOracleVotingTx(from string, params *DeployParams, amount float64) (*ContractTx, error) {
	fact, err := json.Marshal(params.Fact)
	if err != nil {
		return nil, errors.Errorf("error encoding voting fact: %v", err)
	}

	return &ContractTx{
		Type:     DeployContractTx,
		From:     from,
		CodeHash: OracleVotingCodeHash,
		Amount:   amount,
		Args: []CallArg{
			{Index: 0, Format: FormatHex, Value: hexutil.Encode(fact)},
			uintArg(1, uint64(params.StartTime)),
			uintArg(2, params.VotingDuration),
			uintArg(3, params.PublicVotingDuration),
			uintArg(4, uint64(params.WinnerThreshold)),
			uintArg(5, uint64(params.Quorum)),
			uintArg(6, uint64(params.CommitteeSize)),
			dnaArg(7, params.VotingMinPayment),
			{Index: 8, Format: FormatByte, Value: strconv.Itoa(params.OwnerFee)},
		},
	}, nil
}

// FundTx builds a plain transfer of amount to contract.
func FundTx(from, contract string, amount float64) *ContractTx {
	return &ContractTx{
		Type:   TransferTx,
		From:   from,
		To:     contract,
		Amount: amount,
	}
}

// CallTx builds a call of method on contract.
func CallTx(from, contract, method string, amount float64, args ...CallArg) *ContractTx {
	return &ContractTx{
		Type:     CallContractTx,
		From:     from,
		Contract: contract,
		Method:   method,
		Amount:   amount,
		Args:     args,
	}
}

// TerminateTx builds the terminate transaction for contract.
func TerminateTx(from, contract string) *ContractTx {
	return &ContractTx{
		Type:     TerminateContractTx,
		From:     from,
		Contract: contract,
		Args:     []CallArg{{Index: 0, Format: FormatHex, Value: from}},
	}
}

// VoteArgs are the arguments shared by voteHash and sendVote.
func VoteArgs(option int, salt string) []CallArg {
	return []CallArg{
		{Index: 0, Format: FormatByte, Value: strconv.Itoa(option)},
		{Index: 1, Format: FormatHex, Value: salt},
	}
}

// VoteProofArgs wraps a commitment returned by voteHash.
func VoteProofArgs(commitment string) []CallArg {
	return []CallArg{{Index: 0, Format: FormatHex, Value: commitment}}
}

// NewVoteSalt derives a fresh salt for a secret vote on contract by hashing
// the pair with random bytes.
func NewVoteSalt(contract, coinbase string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return crypto.Keccak256Hash([]byte(contract), []byte(coinbase), nonce).Hex(), nil
}

// VoteCommitment asks contract for the commitment of (option, salt).
func VoteCommitment(ctx context.Context, node Node, contract string, option int, salt string) (string, error) {
	raw, err := node.Call(ctx, contract, MethodVoteHash, VoteArgs(option, salt)...)
	if err != nil {
		return "", err
	}
	var commitment string
	if err := json.Unmarshal(raw, &commitment); err != nil {
		return "", errors.Errorf("unexpected voteHash result %s: %v", raw, err)
	}
	return commitment, nil
}
