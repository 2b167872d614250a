package voting

import (
	"math"
	"time"
)

// ownerDepositFullNetwork is the deposit asked for a committee made of the
// whole network.
const ownerDepositFullNetwork = 10000.0

// TotalVotes returns the number of votes cast on v.
func TotalVotes(v *Voting) int {
	var total int
	for _, vote := range v.Votes {
		total += vote.Count
	}
	return total
}

// QuorumVotesCount is the number of votes needed for the result to count.
func QuorumVotesCount(v *Voting) int {
	return int(math.Ceil(float64(v.CommitteeSize) * float64(v.Quorum) / 100))
}

func HasQuorum(v *Voting) bool {
	return TotalVotes(v) >= QuorumVotesCount(v)
}

// WinnerVotesCount is the number of votes an option needs to win. Until the
// counting window ends the threshold is taken from the committee size, from
// then on from the votes actually cast.
func WinnerVotesCount(v *Voting, now time.Time) int {
	basis := v.CommitteeSize
	if !now.Before(v.FinishCountingDate) {
		basis = TotalVotes(v)
	}
	return int(math.Ceil(float64(basis) * float64(v.WinnerThreshold) / 100))
}

// WinnerOption returns the option with most votes. ok is false when no
// votes were cast.
func WinnerOption(v *Voting) (option VoteCount, ok bool) {
	for _, vote := range v.Votes {
		if !ok || vote.Count > option.Count {
			option, ok = vote, true
		}
	}
	return option, ok && option.Count > 0
}

// HasWinner reports whether the quorum is reached and some option got at
// least WinnerVotesCount votes.
func HasWinner(v *Voting, now time.Time) bool {
	if !HasQuorum(v) {
		return false
	}
	winner, ok := WinnerOption(v)
	return ok && winner.Count >= WinnerVotesCount(v, now)
}

// MinOwnerDeposit returns the deposit required to start a voting with the
// given committee size. The committee can not exceed the network.
func MinOwnerDeposit(networkSize, committeeSize int) float64 {
	if networkSize <= 0 || committeeSize <= 0 {
		return 0
	}
	if committeeSize > networkSize {
		committeeSize = networkSize
	}
	return ownerDepositFullNetwork * float64(committeeSize) / float64(networkSize)
}
