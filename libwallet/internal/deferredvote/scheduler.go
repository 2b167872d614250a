package deferredvote

import (
	"context"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"

	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

const (
	// MaxRetries is the number of failed sends after which a vote is marked
	// Failed.
	MaxRetries = 10
	// RetryBackoff is the minimum time between two send attempts of a vote.
	RetryBackoff = 60 * time.Second
)

// Config holds the scheduler collaborators.
type Config struct {
	Node  chain.Node
	Store Store
	// Coinbase is the identity whose votes are sent. The scheduler does not
	// run without one.
	Coinbase string

	Interval             time.Duration
	BlockRefreshInterval time.Duration
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Scheduler sends deferred votes once their target block has passed.
type Scheduler struct {
	cfg    Config
	blocks *BlockHeightCache

	// processMu serializes ticks with manual sends.
	processMu sync.Mutex

	mu        sync.RWMutex
	cancelRun context.CancelFunc
}

// New returns a scheduler for cfg. Zero intervals fall back to the defaults.
func New(cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = utils.DefaultSchedulerInterval
	}
	if cfg.BlockRefreshInterval <= 0 {
		cfg.BlockRefreshInterval = utils.DefaultBlockRefreshInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		cfg:    cfg,
		blocks: NewBlockHeightCache(cfg.Node, cfg.BlockRefreshInterval, cfg.Now),
	}
}

// Schedule queues vote. Unset coinbase and creation time are filled in.
func (s *Scheduler) Schedule(vote *DeferredVote) error {
	const op errors.Op = "deferredvote.Schedule"

	if vote.Coinbase == "" {
		vote.Coinbase = s.cfg.Coinbase
	}
	if vote.Coinbase == "" {
		return errors.E(op, errors.New(utils.ErrNoCoinbase))
	}
	vote.Type = None
	vote.Retries = 0
	vote.LastTry = time.Time{}
	vote.CreatedAt = s.cfg.Now()

	if err := s.cfg.Store.Add(vote); err != nil {
		return errors.E(op, err)
	}
	log.Infof("Scheduled %s on %s after block %d", vote.Method, vote.ContractHash, vote.Block)
	return nil
}

// Run ticks until ctx is done or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cfg.Coinbase == "" {
		return errors.New(utils.ErrNoCoinbase)
	}

	s.mu.Lock()
	if s.cancelRun != nil {
		s.mu.Unlock()
		return errors.New(utils.ErrSyncAlreadyInProgress)
	}
	ctx, s.cancelRun = context.WithCancel(ctx)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.cancelRun != nil {
			s.cancelRun()
			s.cancelRun = nil
		}
		s.mu.Unlock()
	}()

	log.Infof("Deferred vote scheduler: started for %s", s.cfg.Coinbase)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("Deferred vote tick failed: %v", err)
		}

		select {
		case <-ctx.Done():
			log.Info("Deferred vote scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelRun != nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.mu.Unlock()
}

// Tick processes every pending vote whose target block has passed. A failure
// on one vote does not affect the others.
func (s *Scheduler) Tick(ctx context.Context) error {
	s.processMu.Lock()
	defer s.processMu.Unlock()

	currentBlock, err := s.blocks.Refresh(ctx)
	if err != nil {
		if currentBlock == 0 {
			return err
		}
		log.Warnf("Using cached block height %d: %v", currentBlock, err)
	}

	votes, err := s.cfg.Store.ByType(None, s.cfg.Coinbase)
	if err != nil {
		return err
	}

	for _, vote := range votes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if vote.Block >= currentBlock {
			continue
		}
		s.process(ctx, vote)
	}
	return nil
}

func (s *Scheduler) process(ctx context.Context, vote *DeferredVote) {
	now := s.cfg.Now()

	if vote.Retries > MaxRetries {
		vote.Type = Failed
		log.Warnf("Deferred vote %d on %s failed permanently: %s", vote.ID, vote.ContractHash, vote.Error)
		s.save(vote)
		return
	}

	if !vote.LastTry.IsZero() && now.Sub(vote.LastTry) < RetryBackoff {
		return
	}

	s.attempt(ctx, vote, now)
}

func (s *Scheduler) attempt(ctx context.Context, vote *DeferredVote, now time.Time) error {
	hash, err := s.send(ctx, vote)
	if err != nil {
		vote.Retries++
		vote.LastTry = now
		vote.Error = err.Error()
		log.Debugf("Deferred vote %d on %s: attempt %d failed: %v", vote.ID, vote.ContractHash, vote.Retries, err)
	} else {
		vote.Type = Success
		vote.TxHash = hash
		vote.Error = ""
		log.Infof("Deferred vote %d on %s sent in tx %s", vote.ID, vote.ContractHash, hash)
	}
	s.save(vote)
	return err
}

func (s *Scheduler) send(ctx context.Context, vote *DeferredVote) (string, error) {
	tx := chain.CallTx(vote.Coinbase, vote.ContractHash, vote.Method, vote.Amount, vote.Args...)

	estimate, err := s.cfg.Node.EstimateTx(ctx, tx)
	if err != nil {
		return "", err
	}
	if estimate.Error != "" {
		return "", &chain.ContractError{Reason: estimate.Error}
	}
	tx.MaxFee = estimate.TxFee

	return s.cfg.Node.SendTx(ctx, tx)
}

func (s *Scheduler) save(vote *DeferredVote) {
	if err := s.cfg.Store.Put(vote); err != nil {
		log.Errorf("Error saving deferred vote %d: %v", vote.ID, err)
	}
}

// PendingVotes returns the votes that still wait to be sent.
func (s *Scheduler) PendingVotes() ([]*DeferredVote, error) {
	return s.cfg.Store.ByType(None, s.cfg.Coinbase)
}

// SendNow sends the vote with the given id immediately, ignoring its target
// block and the retry backoff. The outcome is recorded as for a tick.
func (s *Scheduler) SendNow(ctx context.Context, id int) error {
	const op errors.Op = "deferredvote.SendNow"

	s.processMu.Lock()
	defer s.processMu.Unlock()

	vote, err := s.cfg.Store.Get(id)
	if err != nil {
		return errors.E(op, utils.TranslateError(err))
	}
	if vote.Type != None {
		return errors.E(op, errors.New(utils.ErrNotAllowed))
	}

	if err := s.attempt(ctx, vote, s.cfg.Now()); err != nil {
		return errors.E(op, err)
	}
	return nil
}

// Delete removes the vote with the given id.
func (s *Scheduler) Delete(id int) error {
	s.processMu.Lock()
	defer s.processMu.Unlock()

	if err := s.cfg.Store.Delete(id); err != nil {
		return utils.TranslateError(err)
	}
	return nil
}
