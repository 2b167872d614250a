package voting

import (
	"context"
	"time"

	"decred.org/dcrwallet/v2/errors"

	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

var (
	fundableStatuses = []Status{
		StatusPending,
		StatusOpen,
		StatusVoted,
		StatusCounting,
		StatusCanBeProlonged,
		StatusInvalid,
	}
	startableStatuses   = []Status{StatusPending, StatusInvalid}
	votableStatuses     = []Status{StatusOpen}
	prolongableStatuses = []Status{StatusCanBeProlonged}
	finishableStatuses  = []Status{StatusCounting, StatusCanBeProlonged}
	terminableStatuses  = []Status{StatusPending, StatusCanBeProlonged, StatusArchived}
	draftStatuses       = []Status{""}
)

// Deploy submits the deploy transaction of a draft. amount is transferred to
// the new contract.
func (o *Orchestrator) Deploy(ctx context.Context, params *chain.DeployParams, amount float64) error {
	const op errors.Op = "voting.Deploy"

	return o.beginFlow(ctx, op, StatusDeploying, draftStatuses, func(v *Voting) error {
		if amount < 0 {
			return errors.New(utils.ErrInvalidAmount)
		}
		if len(params.Fact.Options) < 2 {
			return errors.New(utils.ErrInvalidOption)
		}

		v.Title = params.Fact.Title
		v.Desc = params.Fact.Desc
		v.Options = v.Options[:0]
		for _, option := range params.Fact.Options {
			v.Options = append(v.Options, Option{ID: option.ID, Value: option.Value})
		}
		v.StartDate = time.Unix(params.StartTime, 0).UTC()
		v.VotingDuration = params.VotingDuration
		v.PublicVotingDuration = params.PublicVotingDuration
		v.WinnerThreshold = params.WinnerThreshold
		v.Quorum = params.Quorum
		v.CommitteeSize = params.CommitteeSize
		v.VotingMinPayment = params.VotingMinPayment
		v.OwnerFee = params.OwnerFee
		v.CreateTime = o.cfg.Now()
		v.Pending.Amount = amount
		return nil
	})
}

// AddFund transfers amount to the contract. The local balance grows
// immediately and shrinks back if the transfer can not be submitted.
func (o *Orchestrator) AddFund(ctx context.Context, amount float64) error {
	const op errors.Op = "voting.AddFund"

	return o.beginFlow(ctx, op, StatusFunding, fundableStatuses, func(v *Voting) error {
		if amount <= 0 {
			return errors.New(utils.ErrInvalidAmount)
		}
		v.Pending.Amount = amount
		v.Balance += amount
		return nil
	})
}

// ReviewStartVoting fetches the owner deposit required to start the voting.
// StartVoting is accepted only after a review.
func (o *Orchestrator) ReviewStartVoting(ctx context.Context) (*StartReview, error) {
	const op errors.Op = "voting.ReviewStartVoting"

	o.mu.Lock()
	if err := o.checkAllowedLocked(startableStatuses); err != nil {
		o.mu.Unlock()
		return nil, errors.E(op, err)
	}
	committeeSize := o.voting.CommitteeSize
	o.mu.Unlock()

	networkSize, err := o.cfg.Node.NetworkSize(ctx)
	if err != nil {
		return nil, errors.E(op, err)
	}
	feePerGas, err := o.cfg.Node.FeePerGas(ctx)
	if err != nil {
		return nil, errors.E(op, err)
	}

	review := &StartReview{
		NetworkSize: networkSize,
		Deposit:     MinOwnerDeposit(networkSize, committeeSize),
		FeePerGas:   feePerGas,
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkAllowedLocked(startableStatuses); err != nil {
		return nil, errors.E(op, err)
	}
	o.stage = StageReviewStart
	o.review = review

	r := *review
	return &r, nil
}

// StartVoting submits the start transaction with the reviewed deposit.
func (o *Orchestrator) StartVoting(ctx context.Context) error {
	const op errors.Op = "voting.StartVoting"

	return o.beginFlow(ctx, op, StatusStarting, startableStatuses, func(v *Voting) error {
		if o.stage != StageReviewStart || o.review == nil {
			return errors.New(utils.ErrNothingToConfirm)
		}
		v.OwnerDeposit = o.review.Deposit
		v.Pending.Amount = o.review.Deposit
		return nil
	})
}

// Vote submits the commitment of a secret vote for option. Once submitted,
// the reveal is queued for the end of the voting period.
func (o *Orchestrator) Vote(ctx context.Context, option int) error {
	const op errors.Op = "voting.Vote"

	return o.beginFlow(ctx, op, StatusVoting, votableStatuses, func(v *Voting) error {
		if !v.hasOption(option) {
			return errors.New(utils.ErrInvalidOption)
		}
		salt, err := chain.NewVoteSalt(v.ContractHash, o.cfg.Coinbase)
		if err != nil {
			return err
		}
		v.Pending.Option = option
		v.Pending.Salt = salt
		v.Pending.Amount = v.VotingMinPayment
		return nil
	})
}

// AcknowledgeVote dismisses the mined vote review.
func (o *Orchestrator) AcknowledgeVote() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stage != StageReviewPendingVote {
		return errors.New(utils.ErrNothingToConfirm)
	}
	o.stage = StageIdle
	return nil
}

func (o *Orchestrator) ProlongVoting(ctx context.Context) error {
	return o.beginFlow(ctx, "voting.ProlongVoting", StatusProlonging, prolongableStatuses, nil)
}

func (o *Orchestrator) FinishVoting(ctx context.Context) error {
	return o.beginFlow(ctx, "voting.FinishVoting", StatusFinishing, finishableStatuses, nil)
}

// Terminate asks for termination. ConfirmTerminate submits it.
func (o *Orchestrator) Terminate() error {
	const op errors.Op = "voting.Terminate"

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkAllowedLocked(terminableStatuses); err != nil {
		return errors.E(op, err)
	}
	o.stage = StageReviewTerminate
	o.review = nil
	return nil
}

func (o *Orchestrator) ConfirmTerminate(ctx context.Context) error {
	const op errors.Op = "voting.ConfirmTerminate"

	return o.beginFlow(ctx, op, StatusTerminating, terminableStatuses, func(v *Voting) error {
		if o.stage != StageReviewTerminate {
			return errors.New(utils.ErrNothingToConfirm)
		}
		return nil
	})
}

// CancelReview leaves a start or terminate review without acting.
func (o *Orchestrator) CancelReview() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stage == StageReviewStart || o.stage == StageReviewTerminate {
		o.stage = StageIdle
		o.review = nil
	}
}

// A stopped orchestrator accepts no command.
func (o *Orchestrator) checkAllowedLocked(allowed []Status) error {
	if o.ctx.Err() != nil {
		return errors.New(utils.ErrContextCanceled)
	}
	if o.voting.Status.IsMining() {
		return errors.New(utils.ErrMiningInProgress)
	}
	if !o.voting.Status.in(allowed) {
		return errors.New(utils.ErrNotAllowed)
	}
	return nil
}

func (v *Voting) hasOption(option int) bool {
	if len(v.Options) == 0 {
		return option >= 0
	}
	for _, o := range v.Options {
		if o.ID == option {
			return true
		}
	}
	return false
}

// buildTx returns the transaction of the mining status of v.
func (o *Orchestrator) buildTx(ctx context.Context, v *Voting) (*chain.ContractTx, error) {
	from := o.cfg.Coinbase
	if from == "" {
		return nil, errors.New(utils.ErrNoCoinbase)
	}

	pending := v.Pending
	if pending == nil {
		pending = &PendingAction{Option: NoOption}
	}

	switch v.Status {
	case StatusDeploying:
		return chain.DeployOracleVotingTx(from, deployParams(v), pending.Amount)

	case StatusFunding:
		return chain.FundTx(from, v.ContractHash, pending.Amount), nil

	case StatusStarting:
		return chain.CallTx(from, v.ContractHash, chain.MethodStartVoting, pending.Amount), nil

	case StatusVoting:
		if pending.Salt == "" || pending.Option == NoOption {
			return nil, errors.New(utils.ErrInvalidOption)
		}
		commitment, err := chain.VoteCommitment(ctx, o.cfg.Node, v.ContractHash, pending.Option, pending.Salt)
		if err != nil {
			return nil, err
		}
		return chain.CallTx(from, v.ContractHash, chain.MethodSendVoteProof, pending.Amount,
			chain.VoteProofArgs(commitment)...), nil

	case StatusProlonging:
		return chain.CallTx(from, v.ContractHash, chain.MethodProlong, 0), nil

	case StatusFinishing:
		return chain.CallTx(from, v.ContractHash, chain.MethodFinish, 0), nil

	case StatusTerminating:
		return chain.TerminateTx(from, v.ContractHash), nil

	default:
		return nil, errors.Errorf("no transaction for status %s", v.Status)
	}
}

func deployParams(v *Voting) *chain.DeployParams {
	fact := chain.Fact{
		Title: v.Title,
		Desc:  v.Desc,
	}
	for _, option := range v.Options {
		fact.Options = append(fact.Options, chain.FactOption{ID: option.ID, Value: option.Value})
	}
	return &chain.DeployParams{
		Fact:                 fact,
		StartTime:            v.StartDate.Unix(),
		VotingDuration:       v.VotingDuration,
		PublicVotingDuration: v.PublicVotingDuration,
		WinnerThreshold:      v.WinnerThreshold,
		Quorum:               v.Quorum,
		CommitteeSize:        v.CommitteeSize,
		VotingMinPayment:     v.VotingMinPayment,
		OwnerFee:             v.OwnerFee,
	}
}
