package deferredvote

import (
	"strings"
	"time"

	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
)

// Type is the processing state of a deferred vote.
type Type int

const (
	// None means the vote still waits to be sent.
	None Type = iota
	// Success means the reveal transaction was accepted by the node.
	Success
	// Failed means the retry budget was exhausted.
	Failed
)

func (t Type) String() string {
	switch t {
	case Success:
		return "Success"
	case Failed:
		return "Failed"
	default:
		return "None"
	}
}

// DeferredVote is a contract call that becomes valid only after Block.
type DeferredVote struct {
	ID           int    `storm:"id,increment"`
	ContractHash string `storm:"index"`
	Coinbase     string `storm:"index"`
	Block        uint64
	Amount       float64
	Method       string
	Args         []chain.CallArg
	Type         Type `storm:"index"`
	Retries      int
	LastTry      time.Time
	Error        string
	TxHash       string
	CreatedAt    time.Time
}

// Store persists deferred votes.
type Store interface {
	Add(vote *DeferredVote) error
	Put(vote *DeferredVote) error
	Get(id int) (*DeferredVote, error)
	ByType(t Type, coinbase string) ([]*DeferredVote, error)
	Delete(id int) error
}

// ErrorKind groups the send errors a caller reacts to differently.
type ErrorKind string

const (
	ErrorNone     ErrorKind = "NONE"
	ErrorEarly    ErrorKind = "EARLY"
	ErrorLate     ErrorKind = "LATE"
	ErrorNoQuorum ErrorKind = "NO_QUORUM"
)

const (
	reasonEarly    = "too early to accept open vote"
	reasonLate     = "too late to accept open vote"
	reasonNoQuorum = "quorum is not reachable"
)

// ClassifyError maps a send error message to its kind. EARLY votes can be
// rescheduled, LATE and NO_QUORUM votes can only be deleted.
func ClassifyError(message string) ErrorKind {
	switch {
	case strings.Contains(message, reasonEarly):
		return ErrorEarly
	case strings.Contains(message, reasonLate):
		return ErrorLate
	case strings.Contains(message, reasonNoQuorum):
		return ErrorNoQuorum
	default:
		return ErrorNone
	}
}
