package voting

import (
	"context"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"

	"github.com/crypto-power/oraclevoting/libwallet/ext"
	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/internal/deferredvote"
	"github.com/crypto-power/oraclevoting/libwallet/internal/txpoller"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

// Store persists voting records.
type Store interface {
	Get(id string) (*Voting, error)
	Put(v *Voting) error
}

// Index returns the index view of a single contract.
type Index interface {
	Contract(ctx context.Context, address, oracle string) (*ext.OracleVotingContract, error)
}

// RevealScheduler queues the reveal of a secret vote.
type RevealScheduler interface {
	Schedule(vote *deferredvote.DeferredVote) error
}

// NotificationListener is told about every change of a voting.
type NotificationListener interface {
	OnVotingChanged(v *Voting)
}

// Stage is the in-memory interaction step of an idle voting.
type Stage int

const (
	StageIdle Stage = iota
	// StageReviewStart waits for the caller to confirm the owner deposit.
	StageReviewStart
	// StageReviewTerminate waits for the caller to confirm termination.
	StageReviewTerminate
	// StageReviewPendingVote waits for the caller to acknowledge a mined vote.
	StageReviewPendingVote
)

// StartReview is what the caller confirms before StartVoting.
type StartReview struct {
	NetworkSize int
	Deposit     float64
	FeePerGas   float64
}

// Config holds the collaborators shared by every orchestrator.
type Config struct {
	Node    chain.Node
	Store   Store
	Index   Index
	Reveals RevealScheduler
	// Coinbase is the identity sending transactions.
	Coinbase     string
	PollInterval time.Duration
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Orchestrator drives the lifecycle of a single voting contract. At most one
// transaction is in flight per contract; commands issued meanwhile are
// rejected with ErrMiningInProgress.
type Orchestrator struct {
	cfg    Config
	poller *txpoller.Poller

	mu         sync.Mutex
	voting     *Voting
	stage      Stage
	review     *StartReview
	pollTask   *txpoller.Task
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc

	notificationListenersMu sync.RWMutex
	notificationListeners   map[string]NotificationListener
}

// New returns an orchestrator for v. Call Start before issuing commands.
func New(cfg Config, v *Voting) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = utils.DefaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:                   cfg,
		poller:                txpoller.New(cfg.Node, cfg.PollInterval),
		voting:                v.Clone(),
		ctx:                   ctx,
		cancel:                cancel,
		notificationListeners: make(map[string]NotificationListener),
	}
}

// Start binds the orchestrator to ctx and resumes an in-flight action found
// in the record: an unsubmitted action is submitted, a submitted one is
// polled again.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.cancel()
	o.ctx, o.cancel = context.WithCancel(ctx)
	ctx = o.ctx
	id, status := o.voting.ID, o.voting.Status
	o.mu.Unlock()

	if status.IsMining() {
		log.Infof("Resuming %s of %s", status, id)
		o.checkMiningStatus(ctx)
	}
}

// Stop cancels any running poll. The record keeps its transaction
// bookkeeping so that a later Start resumes it.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.cancel()
	o.stopPollingLocked()
	o.mu.Unlock()
}

// Voting returns a copy of the current record.
func (o *Orchestrator) Voting() *Voting {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.voting.Clone()
}

// Stage returns the current interaction step.
func (o *Orchestrator) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

func (o *Orchestrator) ID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.voting.ID
}

// checkMiningStatus decides how a mining sub-flow proceeds from the
// persisted bookkeeping.
func (o *Orchestrator) checkMiningStatus(ctx context.Context) {
	o.mu.Lock()
	v := o.voting
	switch {
	case v.MiningStatus == "":
		id, status := v.ID, v.Status
		o.mu.Unlock()
		if err := o.submit(ctx); err != nil {
			log.Errorf("Resubmitting %s of %s failed: %v", status, id, err)
		}
		return

	case v.MiningStatus == MiningStatusMining && v.TxHash != "":
		o.startPollingLocked(v.TxHash)
		o.mu.Unlock()
		return

	default:
		log.Errorf("Voting %s: inconsistent mining state %q in %s", v.ID, v.MiningStatus, v.Status)
		v.Status = StatusInvalid
		v.ErrorMessage = "inconsistent mining state"
		clearMining(v)
		snapshot := o.persistLocked()
		o.mu.Unlock()
		o.publish(snapshot)
	}
}

// beginFlow moves the voting into a mining status after validating the
// command. prepare mutates the record before it is persisted.
func (o *Orchestrator) beginFlow(ctx context.Context, op errors.Op, status Status, allowed []Status, prepare func(v *Voting) error) error {
	o.mu.Lock()
	v := o.voting
	if err := o.checkAllowedLocked(allowed); err != nil {
		o.mu.Unlock()
		return errors.E(op, err)
	}

	updated := v.Clone()
	updated.PrevStatus = v.Status
	updated.Status = status
	updated.MiningStatus = ""
	updated.TxHash = ""
	updated.ErrorMessage = ""
	updated.Pending = &PendingAction{Option: NoOption}
	if prepare != nil {
		if err := prepare(updated); err != nil {
			o.mu.Unlock()
			return errors.E(op, err)
		}
	}

	o.voting = updated
	o.stage = StageIdle
	o.review = nil
	snapshot := o.persistLocked()
	o.mu.Unlock()

	log.Infof("Voting %s: %s -> %s", updated.ID, updated.PrevStatus, status)
	o.publish(snapshot)

	return o.submit(ctx)
}

// submit builds, estimates and sends the transaction of the current mining
// status. On failure the sub-flow is aborted back to the previous status.
func (o *Orchestrator) submit(ctx context.Context) error {
	o.mu.Lock()
	v := o.voting.Clone()
	o.mu.Unlock()

	tx, err := o.buildTx(ctx, v)
	if err == nil {
		var estimate *chain.Estimate
		estimate, err = o.cfg.Node.EstimateTx(ctx, tx)
		if err == nil && estimate.Error != "" {
			err = &chain.ContractError{Reason: estimate.Error}
		}
		if err == nil {
			tx.MaxFee = estimate.TxFee
			if v.IsDraft() && estimate.Contract != "" {
				v.ID, _ = chain.NormalizeAddress(estimate.Contract)
			}
		}
	}

	var hash string
	if err == nil {
		hash, err = o.cfg.Node.SendTx(ctx, tx)
	}

	o.mu.Lock()
	if o.voting.Status != v.Status {
		o.mu.Unlock()
		return err
	}
	if err != nil {
		snapshot := o.abortLocked(err)
		o.mu.Unlock()
		log.Warnf("Voting %s: %s aborted: %v", v.ID, v.Status, err)
		o.publish(snapshot)
		return err
	}

	cur := o.voting
	if cur.IsDraft() && v.ID != "" {
		cur.ID = v.ID
		cur.ContractHash = v.ID
	}
	cur.TxHash = hash
	cur.MiningStatus = MiningStatusMining
	cur.Pending = v.Pending
	snapshot := o.persistLocked()
	if o.ctx.Err() == nil {
		o.startPollingLocked(hash)
	}
	o.mu.Unlock()

	log.Infof("Voting %s: %s tx %s submitted", snapshot.ID, snapshot.Status, hash)
	o.publish(snapshot)

	if v.Status == StatusVoting {
		o.scheduleReveal(snapshot)
	}
	return nil
}

// abortLocked restores the status held before the sub-flow started.
func (o *Orchestrator) abortLocked(err error) *Voting {
	v := o.voting
	if v.Status == StatusFunding && v.Pending != nil {
		v.Balance -= v.Pending.Amount
	}
	v.Status = v.PrevStatus
	v.ErrorMessage = err.Error()
	clearMining(v)
	return o.persistLocked()
}

func (o *Orchestrator) startPollingLocked(hash string) {
	o.stopPollingLocked()
	gen := o.generation
	o.pollTask = o.poller.Start(o.ctx, hash, func(event *txpoller.Event) {
		o.onPollEvent(gen, event)
	})
}

// stopPollingLocked cancels the running poll. Callbacks of earlier polls are
// ignored from now on.
func (o *Orchestrator) stopPollingLocked() {
	o.generation++
	if o.pollTask != nil {
		o.pollTask.Cancel()
		o.pollTask = nil
	}
}

func (o *Orchestrator) onPollEvent(gen uint64, event *txpoller.Event) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	o.pollTask = nil
	o.generation++

	v := o.voting
	switch event.Outcome {
	case txpoller.Mined:
		status := o.minedStatusLocked(v)
		log.Infof("Voting %s: %s tx %s mined, now %s", v.ID, v.Status, event.Hash, status)
		v.Status = status
		v.ErrorMessage = ""
	default:
		log.Errorf("Voting %s: status of tx %s unknown: %v", v.ID, event.Hash, event.Err)
		v.Status = StatusInvalid
		if event.Err != nil {
			v.ErrorMessage = event.Err.Error()
		}
	}
	clearMining(v)
	snapshot := o.persistLocked()
	o.mu.Unlock()

	o.publish(snapshot)
}

func (o *Orchestrator) minedStatusLocked(v *Voting) Status {
	switch v.Status {
	case StatusDeploying:
		return StatusPending
	case StatusFunding:
		if v.PrevStatus == "" {
			return StatusInvalid
		}
		return v.PrevStatus
	case StatusStarting, StatusProlonging:
		return StatusOpen
	case StatusVoting:
		if v.Pending != nil {
			v.SelectedOption = v.Pending.Option
		}
		o.stage = StageReviewPendingVote
		return StatusVoted
	case StatusFinishing:
		return StatusArchived
	case StatusTerminating:
		return StatusTerminated
	default:
		return StatusInvalid
	}
}

func clearMining(v *Voting) {
	v.PrevStatus = ""
	v.MiningStatus = ""
	v.TxHash = ""
	v.Pending = nil
}

// persistLocked writes the record through to the store and returns a copy
// for listeners. Drafts live in memory only.
func (o *Orchestrator) persistLocked() *Voting {
	snapshot := o.voting.Clone()
	if snapshot.IsDraft() {
		return snapshot
	}
	if err := o.cfg.Store.Put(snapshot); err != nil {
		log.Errorf("Error saving voting %s: %v", snapshot.ID, err)
	}
	return snapshot
}

func (o *Orchestrator) scheduleReveal(v *Voting) {
	if o.cfg.Reveals == nil || v.Pending == nil {
		return
	}
	err := o.cfg.Reveals.Schedule(&deferredvote.DeferredVote{
		ContractHash: v.ContractHash,
		Coinbase:     o.cfg.Coinbase,
		Block:        v.StartBlock + v.VotingDuration,
		Method:       chain.MethodSendVote,
		Args:         chain.VoteArgs(v.Pending.Option, v.Pending.Salt),
	})
	if err != nil {
		log.Errorf("Error scheduling vote reveal for %s: %v", v.ID, err)
	}
}

// Reload fetches the contract from the index and re-resolves its idle
// status. It is a no-op while a transaction is in flight.
func (o *Orchestrator) Reload(ctx context.Context) error {
	const op errors.Op = "voting.Reload"

	o.mu.Lock()
	if o.voting.Status.IsMining() || o.voting.IsDraft() {
		o.mu.Unlock()
		return nil
	}
	id := o.voting.ID
	o.mu.Unlock()

	if o.cfg.Index == nil {
		return errors.E(op, errors.New(utils.ErrUnavailable))
	}
	summary, err := o.cfg.Index.Contract(ctx, id, o.cfg.Coinbase)
	if err != nil {
		return errors.E(op, err)
	}

	o.Sync(summary)
	return nil
}

// Sync reconciles the record with a fetched summary and persists the result.
func (o *Orchestrator) Sync(summary *ext.OracleVotingContract) *Voting {
	o.mu.Lock()
	prev := o.voting.Status
	o.voting = Merge(o.voting, summary)
	if o.voting.Status != prev {
		o.stage = StageIdle
		o.review = nil
	}
	snapshot := o.persistLocked()
	o.mu.Unlock()

	o.publish(snapshot)
	return snapshot
}

func (o *Orchestrator) AddNotificationListener(listener NotificationListener, uniqueIdentifier string) error {
	o.notificationListenersMu.Lock()
	defer o.notificationListenersMu.Unlock()

	if _, ok := o.notificationListeners[uniqueIdentifier]; ok {
		return errors.New(utils.ErrListenerAlreadyExist)
	}

	o.notificationListeners[uniqueIdentifier] = listener
	return nil
}

func (o *Orchestrator) RemoveNotificationListener(uniqueIdentifier string) {
	o.notificationListenersMu.Lock()
	defer o.notificationListenersMu.Unlock()

	delete(o.notificationListeners, uniqueIdentifier)
}

func (o *Orchestrator) publish(v *Voting) {
	o.notificationListenersMu.RLock()
	defer o.notificationListenersMu.RUnlock()

	for _, listener := range o.notificationListeners {
		listener.OnVotingChanged(v.Clone())
	}
}
