package voting

import "strings"

// Status is the client-side status of a voting contract.
type Status string

// Idle statuses mirror the state reported by the contract index.
const (
	StatusPending        Status = "Pending"
	StatusOpen           Status = "Open"
	StatusVoted          Status = "Voted"
	StatusCounting       Status = "Counting"
	StatusCanBeProlonged Status = "CanBeProlonged"
	StatusArchived       Status = "Archived"
	StatusTerminated     Status = "Terminated"
	StatusInvalid        Status = "Invalid"
)

// Mining statuses are held while the transaction of a user action is in
// flight.
const (
	StatusDeploying   Status = "Deploying"
	StatusFunding     Status = "Funding"
	StatusStarting    Status = "Starting"
	StatusVoting      Status = "Voting"
	StatusProlonging  Status = "Prolonging"
	StatusFinishing   Status = "Finishing"
	StatusTerminating Status = "Terminating"
)

// MiningStatusMining marks a submitted, unconfirmed transaction.
const MiningStatusMining = "mining"

// idleStatuses is ordered by resolution precedence.
var idleStatuses = []Status{
	StatusPending,
	StatusOpen,
	StatusVoted,
	StatusCounting,
	StatusCanBeProlonged,
	StatusArchived,
	StatusTerminated,
}

// MiningStatuses lists every status that has a transaction in flight.
var MiningStatuses = []Status{
	StatusDeploying,
	StatusFunding,
	StatusStarting,
	StatusVoting,
	StatusProlonging,
	StatusFinishing,
	StatusTerminating,
}

func (s Status) IsMining() bool {
	return s.in(MiningStatuses)
}

func (s Status) IsIdle() bool {
	return s.in(idleStatuses)
}

func (s Status) in(statuses []Status) bool {
	for _, status := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ResolveStatus maps an externally reported state onto an idle status. The
// comparison is case-insensitive and follows the idle status precedence.
// Unknown states resolve to Invalid and ok is false.
func ResolveStatus(external string) (status Status, ok bool) {
	for _, status := range idleStatuses {
		if strings.EqualFold(external, string(status)) {
			return status, true
		}
	}
	return StatusInvalid, false
}
