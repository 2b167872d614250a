package ext

import (
	"time"
)

type (
	// VotingOption is a single answer of an oracle voting.
	VotingOption struct {
		ID    int    `json:"id"`
		Value string `json:"value"`
	}

	// VoteCount is the number of votes an option received.
	VoteCount struct {
		Option int `json:"option"`
		Count  int `json:"count"`
	}

	// OracleVotingContract models the index summary of a voting contract.
	OracleVotingContract struct {
		ContractAddress      string         `json:"contractAddress"`
		Author               string         `json:"author"`
		State                string         `json:"state"`
		Title                string         `json:"title"`
		Desc                 string         `json:"desc"`
		Options              []VotingOption `json:"options"`
		Votes                []VoteCount    `json:"votes"`
		Balance              float64        `json:"balance,string"`
		VotingMinPayment     float64        `json:"votingMinPayment,string"`
		OwnerDeposit         float64        `json:"ownerDeposit,string"`
		OracleRewardFund     float64        `json:"oracleRewardFund,string"`
		Quorum               int            `json:"quorum"`
		CommitteeSize        int            `json:"committeeSize"`
		WinnerThreshold      int            `json:"winnerThreshold"`
		StartBlock           uint64         `json:"startBlock"`
		VotingDuration       uint64         `json:"votingDuration"`
		PublicVotingDuration uint64         `json:"publicVotingDuration"`
		CreateTime           time.Time      `json:"createTime"`
		StartTime            time.Time      `json:"startTime"`
		FinishTime           time.Time      `json:"estimatedVotingFinishTime"`
		FinishCountingTime   time.Time      `json:"estimatedPublicVotingFinishTime"`
		// Oracle fields are only set when the list was queried for a
		// specific identity.
		IsOracle       bool `json:"isOracle"`
		SelectedOption *int `json:"selectedOption,omitempty"`
	}

	// ContractList is a page of contracts.
	ContractList struct {
		Result            []*OracleVotingContract `json:"result"`
		ContinuationToken string                  `json:"continuationToken"`
	}

	contractDetail struct {
		Result *OracleVotingContract `json:"result"`
	}

	// BalanceUpdate is a single change of an identity's balance caused by a
	// contract.
	BalanceUpdate struct {
		Hash          string    `json:"hash"`
		Type          string    `json:"type"`
		Timestamp     time.Time `json:"timestamp"`
		From          string    `json:"from"`
		To            string    `json:"to"`
		Amount        float64   `json:"amount,string"`
		BalanceChange float64   `json:"balanceChange,string"`
	}

	// BalanceUpdates is a page of balance updates.
	BalanceUpdates struct {
		Result            []*BalanceUpdate `json:"result"`
		ContinuationToken string           `json:"continuationToken"`
	}

	// ListQuery holds the index list parameters.
	ListQuery struct {
		// Oracle is the identity the list is evaluated for.
		Oracle string
		// States restricts the result to contracts in these states.
		States []string
		// All includes contracts the oracle is not a committee member of.
		All bool
		// Own restricts the result to contracts authored by Oracle.
		Own               bool
		Limit             int
		ContinuationToken string
	}
)
