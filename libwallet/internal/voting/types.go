package voting

import (
	"fmt"
	"strings"
	"time"

	"github.com/crypto-power/oraclevoting/libwallet/ext"
)

// NoOption is the SelectedOption of a voting the user has not voted on.
const NoOption = -1

type Option struct {
	ID    int
	Value string
}

type VoteCount struct {
	Option int
	Count  int
}

// PendingAction keeps the parameters of the in-flight action so that it can
// be submitted again after a restart.
type PendingAction struct {
	Amount float64
	Option int
	Salt   string
}

// Voting is the local record of an oracle voting contract.
type Voting struct {
	// ID is the lower-cased contract address, empty for a local draft.
	ID           string `storm:"id"`
	ContractHash string
	Issuer       string `storm:"index"`
	Status       Status `storm:"index"`
	PrevStatus   Status
	MiningStatus string
	TxHash       string
	ErrorMessage string

	Title   string
	Desc    string
	Options []Option
	Votes   []VoteCount

	Balance          float64
	ContractBalance  float64
	VotingMinPayment float64
	OracleReward     float64
	OwnerFee         int
	OwnerDeposit     float64

	Quorum          int
	CommitteeSize   int
	WinnerThreshold int
	SelectedOption  int
	IsOracle        bool

	StartBlock           uint64
	VotingDuration       uint64
	PublicVotingDuration uint64

	StartDate          time.Time
	FinishDate         time.Time
	FinishCountingDate time.Time
	CreateTime         time.Time `storm:"index"`
	IsNew              bool

	Pending *PendingAction
}

// Clone returns a deep copy of v.
func (v *Voting) Clone() *Voting {
	clone := *v
	clone.Options = append([]Option(nil), v.Options...)
	clone.Votes = append([]VoteCount(nil), v.Votes...)
	if v.Pending != nil {
		pending := *v.Pending
		clone.Pending = &pending
	}
	return &clone
}

// IsDraft reports whether v has not been deployed yet.
func (v *Voting) IsDraft() bool {
	return v.ID == ""
}

// NewDraft returns a local draft voting authored by issuer.
func NewDraft(issuer string) *Voting {
	return &Voting{
		Issuer:         strings.ToLower(issuer),
		SelectedOption: NoOption,
	}
}

// FromSummary builds a record from an index summary. The idle status is
// resolved from the summary state.
func FromSummary(summary *ext.OracleVotingContract) *Voting {
	id := strings.ToLower(summary.ContractAddress)
	v := &Voting{
		ID:                   id,
		ContractHash:         id,
		Issuer:               strings.ToLower(summary.Author),
		Title:                summary.Title,
		Desc:                 summary.Desc,
		Balance:              summary.Balance,
		ContractBalance:      summary.Balance,
		VotingMinPayment:     summary.VotingMinPayment,
		OracleReward:         summary.OracleRewardFund,
		OwnerDeposit:         summary.OwnerDeposit,
		Quorum:               summary.Quorum,
		CommitteeSize:        summary.CommitteeSize,
		WinnerThreshold:      summary.WinnerThreshold,
		SelectedOption:       NoOption,
		IsOracle:             summary.IsOracle,
		StartBlock:           summary.StartBlock,
		VotingDuration:       summary.VotingDuration,
		PublicVotingDuration: summary.PublicVotingDuration,
		StartDate:            summary.StartTime,
		FinishDate:           summary.FinishTime,
		FinishCountingDate:   summary.FinishCountingTime,
		CreateTime:           summary.CreateTime,
	}
	for _, option := range summary.Options {
		v.Options = append(v.Options, Option{ID: option.ID, Value: option.Value})
	}
	for _, vote := range summary.Votes {
		v.Votes = append(v.Votes, VoteCount{Option: vote.Option, Count: vote.Count})
	}
	if summary.SelectedOption != nil {
		v.SelectedOption = *summary.SelectedOption
	}

	var ok bool
	if v.Status, ok = ResolveStatus(summary.State); !ok {
		v.ErrorMessage = fmt.Sprintf("unknown contract state %q", summary.State)
	}
	return v
}

// Merge combines a fetched summary with the local record of the same
// contract. Local transaction bookkeeping always survives. While a
// transaction is in flight the local status and optimistic balance are kept
// as well; otherwise the fetched values win.
func Merge(local *Voting, summary *ext.OracleVotingContract) *Voting {
	merged := FromSummary(summary)
	if local == nil {
		return merged
	}

	merged.PrevStatus = local.PrevStatus
	merged.MiningStatus = local.MiningStatus
	merged.TxHash = local.TxHash
	merged.Pending = local.Pending
	merged.IsNew = local.IsNew
	if merged.SelectedOption == NoOption {
		merged.SelectedOption = local.SelectedOption
	}

	if local.Status.IsMining() {
		merged.Status = local.Status
		merged.Balance = local.Balance
		merged.ErrorMessage = local.ErrorMessage
	}
	return merged
}
