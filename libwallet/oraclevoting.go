package libwallet

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"
	"golang.org/x/sync/errgroup"

	"github.com/crypto-power/oraclevoting/libwallet/ext"
	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/internal/deferredvote"
	"github.com/crypto-power/oraclevoting/libwallet/internal/voting"
	"github.com/crypto-power/oraclevoting/libwallet/internal/votinglist"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
	"github.com/crypto-power/oraclevoting/libwallet/walletdata"
)

type (
	Voting       = voting.Voting
	Status       = voting.Status
	Orchestrator = voting.Orchestrator
	StartReview  = voting.StartReview
	DeferredVote = deferredvote.DeferredVote
	DeployParams = chain.DeployParams
	Fact         = chain.Fact
	FactOption   = chain.FactOption
	ListFilter   = votinglist.Filter

	// NotificationListener is told about every change of a tracked contract.
	NotificationListener = voting.NotificationListener
)

const (
	FilterTodo   = votinglist.FilterTodo
	FilterVoting = votinglist.FilterVoting
	FilterClosed = votinglist.FilterClosed
	FilterAll    = votinglist.FilterAll
	FilterOwn    = votinglist.FilterOwn
)

// Config holds the VotingManager settings. Empty endpoints fall back to the
// network defaults.
type Config struct {
	RootDir string
	Net     utils.NetworkType

	NodeRPC    string
	NodeAPIKey string
	Indexer    string
	// Coinbase is the identity voting and paying for transactions. Without
	// it contracts can be browsed but not acted on.
	Coinbase string

	PollInterval        time.Duration
	SchedulerInterval   time.Duration
	ListRefreshInterval time.Duration
	PageSize            int
}

// VotingManager owns the local database, the node and index clients, the
// contract list and the deferred vote scheduler.
type VotingManager struct {
	cfg Config

	db        *walletdata.DB
	node      *chain.RPCNode
	index     *ext.Service
	scheduler *deferredvote.Scheduler
	list      *votinglist.Controller
	orchCfg   voting.Config

	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	drafts   map[*voting.Orchestrator]struct{}
	shutdown bool
}

// NewVotingManager opens the database under cfg.RootDir/<net> and connects
// to the node.
func NewVotingManager(ctx context.Context, cfg Config) (*VotingManager, error) {
	errors.Separator = ":: "

	params, err := utils.NetworkParams(cfg.Net)
	if err != nil {
		return nil, err
	}
	if cfg.NodeRPC == "" {
		cfg.NodeRPC = params.NodeRPC
	}
	if cfg.Indexer == "" {
		cfg.Indexer = params.Indexer
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = utils.DefaultPollInterval
	}
	if cfg.ListRefreshInterval <= 0 {
		cfg.ListRefreshInterval = utils.DefaultListRefreshInterval
	}
	if cfg.Coinbase != "" {
		coinbase, ok := chain.NormalizeAddress(cfg.Coinbase)
		if !ok {
			return nil, errors.E(utils.ErrInvalidAddress)
		}
		cfg.Coinbase = coinbase
	}

	cfg.RootDir = filepath.Join(cfg.RootDir, string(cfg.Net))
	if err = os.MkdirAll(cfg.RootDir, utils.UserFilePerm); err != nil {
		return nil, errors.Errorf("failed to create rootDir: %v", err)
	}

	db, err := walletdata.Initialize(filepath.Join(cfg.RootDir, walletdata.DbName))
	if err != nil {
		log.Errorf("Error opening voting database: %s", err.Error())
		return nil, err
	}

	node, err := chain.Dial(ctx, cfg.NodeRPC, cfg.NodeAPIKey, nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	mgr := &VotingManager{
		cfg:    cfg,
		db:     db,
		node:   node,
		index:  ext.NewService(cfg.Indexer),
		drafts: make(map[*voting.Orchestrator]struct{}),
	}
	mgr.ctx, mgr.cancel = context.WithCancel(context.Background())

	mgr.scheduler = deferredvote.New(deferredvote.Config{
		Node:     node,
		Store:    db.DeferredVotes(),
		Coinbase: cfg.Coinbase,
		Interval: cfg.SchedulerInterval,
	})
	mgr.orchCfg = voting.Config{
		Node:         node,
		Store:        db.Votings(),
		Index:        mgr.index,
		Reveals:      mgr.scheduler,
		Coinbase:     cfg.Coinbase,
		PollInterval: cfg.PollInterval,
	}
	mgr.list = votinglist.New(mgr.ctx, votinglist.Config{
		Index:        mgr.index,
		Store:        db.Votings(),
		Settings:     db,
		Orchestrator: mgr.orchCfg,
		PageSize:     cfg.PageSize,
	})

	log.Infof("Voting manager ready on %s (node %s, index %s)", cfg.Net.Display(), cfg.NodeRPC, cfg.Indexer)
	return mgr, nil
}

// Run resumes interrupted transactions, loads the Todo list and keeps the
// scheduler and the list refresh running until ctx is canceled or Shutdown
// is called.
func (mgr *VotingManager) Run(ctx context.Context) error {
	if err := mgr.resume(); err != nil {
		return err
	}
	if err := mgr.list.Filter(ctx, votinglist.FilterTodo); err != nil {
		log.Errorf("Error loading contracts: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-mgr.ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(runCtx)
	if mgr.cfg.Coinbase != "" {
		g.Go(func() error {
			err := mgr.scheduler.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		log.Warn("No coinbase configured, deferred votes will not be sent")
	}
	g.Go(func() error {
		mgr.refreshList(gctx)
		return nil
	})
	return g.Wait()
}

// resume restarts the orchestrators of every stored record with a
// transaction in flight.
func (mgr *VotingManager) resume() error {
	inFlight, err := mgr.db.Votings().InFlight()
	if err != nil {
		return err
	}
	for _, v := range inFlight {
		mgr.list.Adopt(v)
	}
	if len(inFlight) > 0 {
		log.Infof("Resumed %d contracts with a transaction in flight", len(inFlight))
	}
	return nil
}

func (mgr *VotingManager) refreshList(ctx context.Context) {
	ticker := time.NewTicker(mgr.cfg.ListRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mgr.list.Refresh(ctx); err != nil {
				log.Errorf("Error refreshing contracts: %v", err)
				continue
			}
			now := time.Now().Unix()
			if err := mgr.db.SaveSetting(utils.LastListSyncConfigKey, &now); err != nil {
				log.Errorf("error setting config value for key: %s, error: %v", utils.LastListSyncConfigKey, err)
			}
		}
	}
}

// LastListSync returns when the visible contracts were last refreshed.
func (mgr *VotingManager) LastListSync() time.Time {
	var timestamp int64
	if err := mgr.db.ReadSetting(utils.LastListSyncConfigKey, &timestamp); err != nil || timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(timestamp, 0)
}

func (mgr *VotingManager) Coinbase() string {
	return mgr.cfg.Coinbase
}

// Filter lists the contracts matching filter with its default statuses.
func (mgr *VotingManager) Filter(ctx context.Context, filter ListFilter) error {
	return mgr.list.Filter(ctx, filter)
}

func (mgr *VotingManager) ToggleStatus(ctx context.Context, status Status) error {
	return mgr.list.ToggleStatus(ctx, status)
}

func (mgr *VotingManager) LoadMore(ctx context.Context) error {
	return mgr.list.LoadMore(ctx)
}

func (mgr *VotingManager) HasMore() bool {
	return mgr.list.HasMore()
}

// Contracts returns the visible contracts in list order.
func (mgr *VotingManager) Contracts() []*Voting {
	return mgr.list.Items()
}

func (mgr *VotingManager) UnreadCount() int {
	return mgr.list.UnreadCount()
}

// Contract returns the orchestrator of a visible or in-flight contract.
func (mgr *VotingManager) Contract(id string) (*Orchestrator, error) {
	orch, ok := mgr.list.Orchestrator(id)
	if !ok {
		return nil, errors.New(utils.ErrNotExist)
	}
	return orch, nil
}

// OwnContracts returns the stored contracts deployed by the coinbase, newest
// first.
func (mgr *VotingManager) OwnContracts() ([]*Voting, error) {
	if mgr.cfg.Coinbase == "" {
		return nil, errors.New(utils.ErrNoCoinbase)
	}
	return mgr.db.Votings().ByIssuer(mgr.cfg.Coinbase)
}

// Deploy creates a new oracle voting contract. The returned orchestrator
// tracks the deploy transaction and is registered with the contract list
// once the contract address is known.
func (mgr *VotingManager) Deploy(ctx context.Context, params *DeployParams, amount float64) (*Orchestrator, error) {
	const op errors.Op = "libwallet.Deploy"

	if mgr.cfg.Coinbase == "" {
		return nil, errors.E(op, errors.New(utils.ErrNoCoinbase))
	}

	mgr.mu.Lock()
	if mgr.shutdown {
		mgr.mu.Unlock()
		return nil, errors.E(op, errors.New(utils.ErrContextCanceled))
	}
	orch := voting.New(mgr.orchCfg, voting.NewDraft(mgr.cfg.Coinbase))
	mgr.drafts[orch] = struct{}{}
	mgr.mu.Unlock()

	orch.Start(mgr.ctx)
	err := orch.Deploy(ctx, params, amount)

	mgr.mu.Lock()
	delete(mgr.drafts, orch)
	mgr.mu.Unlock()

	if err != nil {
		orch.Stop()
		return nil, errors.E(op, err)
	}

	registered, _ := mgr.list.Register(orch)
	if registered != orch {
		orch.Stop()
	}
	return registered, nil
}

// AddNotificationListener attaches listener to every tracked contract,
// including the ones loaded later.
func (mgr *VotingManager) AddNotificationListener(listener NotificationListener, uniqueIdentifier string) error {
	return mgr.list.AddNotificationListener(listener, uniqueIdentifier)
}

func (mgr *VotingManager) RemoveNotificationListener(uniqueIdentifier string) {
	mgr.list.RemoveNotificationListener(uniqueIdentifier)
}

// BalanceUpdates returns the transfers of the coinbase to and from contract.
func (mgr *VotingManager) BalanceUpdates(ctx context.Context, contract string, limit int, continuationToken string) (*ext.BalanceUpdates, error) {
	if mgr.cfg.Coinbase == "" {
		return nil, errors.New(utils.ErrNoCoinbase)
	}
	return mgr.index.BalanceUpdates(ctx, mgr.cfg.Coinbase, contract, limit, continuationToken)
}

// PendingVotes returns the reveals waiting to be sent.
func (mgr *VotingManager) PendingVotes() ([]*DeferredVote, error) {
	return mgr.scheduler.PendingVotes()
}

// FailedVotes returns the reveals the scheduler gave up on.
func (mgr *VotingManager) FailedVotes() ([]*DeferredVote, error) {
	return mgr.db.DeferredVotes().ByType(deferredvote.Failed, mgr.cfg.Coinbase)
}

// SendVoteNow sends a pending reveal immediately.
func (mgr *VotingManager) SendVoteNow(ctx context.Context, id int) error {
	return mgr.scheduler.SendNow(ctx, id)
}

func (mgr *VotingManager) DeleteDeferredVote(id int) error {
	return mgr.scheduler.Delete(id)
}

// SchedulerRunning reports whether deferred votes are being sent.
func (mgr *VotingManager) SchedulerRunning() bool {
	return mgr.scheduler.IsRunning()
}

// GetLogLevels returns the persisted debug level.
func (mgr *VotingManager) GetLogLevels() string {
	var level string
	if err := mgr.db.ReadSetting(utils.LogLevelConfigKey, &level); err != nil || level == "" {
		return utils.DefaultLogLevel
	}
	return level
}

// SetLogLevels persists the debug level.
func (mgr *VotingManager) SetLogLevels(level string) {
	if err := mgr.db.SaveSetting(utils.LogLevelConfigKey, level); err != nil {
		log.Errorf("error setting config value for key: %s, error: %v", utils.LogLevelConfigKey, err)
	}
}

// Shutdown stops every orchestrator and the scheduler and closes the
// database.
func (mgr *VotingManager) Shutdown() {
	mgr.mu.Lock()
	if mgr.shutdown {
		mgr.mu.Unlock()
		return
	}
	mgr.shutdown = true
	drafts := make([]*voting.Orchestrator, 0, len(mgr.drafts))
	for orch := range mgr.drafts {
		drafts = append(drafts, orch)
	}
	mgr.mu.Unlock()

	log.Info("Shutting down voting manager")
	mgr.cancel()
	mgr.scheduler.Stop()
	mgr.list.Close()
	for _, orch := range drafts {
		orch.Stop()
	}
	mgr.node.Close()

	if err := mgr.db.Close(); err != nil {
		log.Errorf("Error closing voting database: %v", err)
	}
}
