package votinglist

import (
	"context"
	"strings"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"
	"golang.org/x/sync/errgroup"

	"github.com/crypto-power/oraclevoting/libwallet/ext"
	"github.com/crypto-power/oraclevoting/libwallet/internal/voting"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

const (
	// LastSeenCreateTimeConfigKey stores the createTime high-water mark used
	// to flag new contracts.
	LastSeenCreateTimeConfigKey = "oraclevoting_last_seen_create_time"

	maxConcurrentReloads = 4
)

// Filter selects the contracts listed.
type Filter int

const (
	// FilterTodo lists contracts waiting for an action of the user.
	FilterTodo Filter = iota
	FilterVoting
	FilterClosed
	FilterAll
	FilterOwn
)

func (f Filter) String() string {
	switch f {
	case FilterVoting:
		return "Voting"
	case FilterClosed:
		return "Closed"
	case FilterAll:
		return "All"
	case FilterOwn:
		return "Own"
	default:
		return "Todo"
	}
}

// DefaultStatuses returns the status set a filter starts with.
func (f Filter) DefaultStatuses() []voting.Status {
	switch f {
	case FilterTodo:
		return []voting.Status{voting.StatusPending, voting.StatusOpen, voting.StatusCounting}
	case FilterVoting:
		return []voting.Status{voting.StatusOpen, voting.StatusVoted, voting.StatusCounting}
	case FilterClosed:
		return []voting.Status{voting.StatusArchived, voting.StatusTerminated}
	default:
		return nil
	}
}

// Store is the local voting cache.
type Store interface {
	voting.Store
	BulkGet(ids []string) (map[string]*voting.Voting, error)
	BulkPut(votings []*voting.Voting) error
}

// Settings persists small values.
type Settings interface {
	ReadSetting(key string, value interface{}) error
	SaveSetting(key string, value interface{}) error
}

// Index lists contracts.
type Index interface {
	voting.Index
	Contracts(ctx context.Context, query *ext.ListQuery) (*ext.ContractList, error)
}

// Config holds the controller collaborators.
type Config struct {
	Index    Index
	Store    Store
	Settings Settings
	// Orchestrator is the configuration shared by the spawned orchestrators.
	// Its Store and Index are filled in from the fields above when unset.
	Orchestrator voting.Config
	PageSize     int
}

// Controller pages through the contract index and keeps one orchestrator per
// visible contract.
type Controller struct {
	cfg Config
	ctx context.Context

	mu                sync.Mutex
	items             []string
	isNew             map[string]bool
	filter            Filter
	statusSet         []voting.Status
	continuationToken string
	orchestrators     map[string]*voting.Orchestrator
	listeners         map[string]voting.NotificationListener
}

// New returns a controller showing the Todo filter. Orchestrators it spawns
// are bound to ctx.
func New(ctx context.Context, cfg Config) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = utils.DefaultListPageSize
	}
	if cfg.Orchestrator.Store == nil {
		cfg.Orchestrator.Store = cfg.Store
	}
	if cfg.Orchestrator.Index == nil {
		cfg.Orchestrator.Index = cfg.Index
	}
	return &Controller{
		cfg:           cfg,
		ctx:           ctx,
		isNew:         make(map[string]bool),
		filter:        FilterTodo,
		statusSet:     FilterTodo.DefaultStatuses(),
		orchestrators: make(map[string]*voting.Orchestrator),
		listeners:     make(map[string]voting.NotificationListener),
	}
}

// Filter switches to filter with its default status set and reloads the
// first page.
func (c *Controller) Filter(ctx context.Context, filter Filter) error {
	c.mu.Lock()
	c.filter = filter
	c.statusSet = filter.DefaultStatuses()
	c.mu.Unlock()

	return c.fetch(ctx, true)
}

// ToggleStatus adds status to or removes it from the status set and reloads
// the first page.
func (c *Controller) ToggleStatus(ctx context.Context, status voting.Status) error {
	c.mu.Lock()
	toggled := make([]voting.Status, 0, len(c.statusSet)+1)
	found := false
	for _, s := range c.statusSet {
		if s == status {
			found = true
			continue
		}
		toggled = append(toggled, s)
	}
	if !found {
		toggled = append(toggled, status)
	}
	c.statusSet = toggled
	c.mu.Unlock()

	return c.fetch(ctx, true)
}

// LoadMore appends the next page. It does nothing once the last page was
// loaded.
func (c *Controller) LoadMore(ctx context.Context) error {
	if !c.HasMore() {
		return nil
	}
	return c.fetch(ctx, false)
}

func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.continuationToken != ""
}

func (c *Controller) CurrentFilter() (Filter, []voting.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter, append([]voting.Status(nil), c.statusSet...)
}

func (c *Controller) queryLocked(reset bool) *ext.ListQuery {
	query := &ext.ListQuery{
		Oracle: c.cfg.Orchestrator.Coinbase,
		Limit:  c.cfg.PageSize,
	}
	switch c.filter {
	case FilterAll:
		query.All = true
	case FilterOwn:
		query.All = true
		query.Own = true
	}
	for _, status := range c.statusSet {
		query.States = append(query.States, string(status))
	}
	if !reset {
		query.ContinuationToken = c.continuationToken
	}
	return query
}

func (c *Controller) fetch(ctx context.Context, reset bool) error {
	const op errors.Op = "votinglist.fetch"

	c.mu.Lock()
	query := c.queryLocked(reset)
	filter := c.filter
	c.mu.Unlock()

	list, err := c.cfg.Index.Contracts(ctx, query)
	if err != nil {
		return errors.E(op, err)
	}

	ids := make([]string, 0, len(list.Result))
	for _, summary := range list.Result {
		ids = append(ids, strings.ToLower(summary.ContractAddress))
	}
	local, err := c.cfg.Store.BulkGet(ids)
	if err != nil {
		return errors.E(op, err)
	}

	lastSeen := c.lastSeenCreateTime()
	newest := lastSeen

	c.mu.Lock()
	existing := make(map[string]*voting.Orchestrator, len(ids))
	for _, id := range ids {
		if orch, ok := c.orchestrators[id]; ok {
			existing[id] = orch
		}
	}
	c.mu.Unlock()

	merged := make([]*voting.Voting, len(ids))
	var fresh []*voting.Voting
	for i, summary := range list.Result {
		id := ids[i]
		if orch, ok := existing[id]; ok {
			merged[i] = orch.Sync(summary)
			continue
		}
		v := voting.Merge(local[id], summary)
		v.IsNew = createdAfter(v, lastSeen)
		merged[i] = v
		fresh = append(fresh, v)
	}
	if err := c.cfg.Store.BulkPut(fresh); err != nil {
		log.Errorf("Error saving fetched contracts: %v", err)
	}

	c.mu.Lock()
	if reset {
		c.items = nil
		c.isNew = make(map[string]bool)
	}
	var spawned []*voting.Orchestrator
	for i, v := range merged {
		id := ids[i]
		if _, ok := c.orchestrators[id]; !ok {
			orch := voting.New(c.cfg.Orchestrator, v)
			c.orchestrators[id] = orch
			c.attachListenersLocked(orch)
			spawned = append(spawned, orch)
		}
		if !c.contains(id) {
			c.items = append(c.items, id)
		}
		c.isNew[id] = createdAfter(v, lastSeen)
		if createdAfter(v, newest) {
			newest = v.CreateTime.UnixNano()
		}
	}
	c.continuationToken = list.ContinuationToken
	stale := c.collectStaleLocked()
	c.mu.Unlock()

	for _, orch := range spawned {
		orch.Start(c.ctx)
	}
	for _, orch := range stale {
		orch.Stop()
	}

	if filter == FilterTodo && newest > lastSeen {
		c.saveLastSeenCreateTime(newest)
	}

	log.Debugf("Fetched %d %s contracts, %d new orchestrators, %d released", len(ids), filter, len(spawned), len(stale))
	return nil
}

func createdAfter(v *voting.Voting, mark int64) bool {
	return !v.CreateTime.IsZero() && v.CreateTime.UnixNano() > mark
}

func (c *Controller) contains(id string) bool {
	for _, item := range c.items {
		if item == id {
			return true
		}
	}
	return false
}

// collectStaleLocked removes the orchestrators of contracts that left the
// visible set. Orchestrators with a transaction in flight stay until it
// settles.
func (c *Controller) collectStaleLocked() []*voting.Orchestrator {
	visible := make(map[string]bool, len(c.items))
	for _, id := range c.items {
		visible[id] = true
	}

	var stale []*voting.Orchestrator
	for id, orch := range c.orchestrators {
		if visible[id] || orch.Voting().Status.IsMining() {
			continue
		}
		stale = append(stale, orch)
		delete(c.orchestrators, id)
	}
	return stale
}

// Adopt registers an orchestrator for a stored record, typically one with a
// transaction in flight found at startup, and starts it.
func (c *Controller) Adopt(v *voting.Voting) *voting.Orchestrator {
	c.mu.Lock()
	if orch, ok := c.orchestrators[v.ID]; ok {
		c.mu.Unlock()
		return orch
	}
	orch := voting.New(c.cfg.Orchestrator, v)
	c.orchestrators[v.ID] = orch
	c.attachListenersLocked(orch)
	c.mu.Unlock()

	orch.Start(c.ctx)
	return orch
}

// Register adds a running orchestrator created outside the controller, such
// as a freshly deployed draft. It returns the orchestrator already registered
// for the same contract, if any.
func (c *Controller) Register(orch *voting.Orchestrator) (*voting.Orchestrator, bool) {
	id := orch.ID()
	if id == "" {
		return orch, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.orchestrators[id]; ok {
		return existing, false
	}
	c.orchestrators[id] = orch
	c.attachListenersLocked(orch)
	return orch, true
}

// AddNotificationListener attaches listener to every current and future
// orchestrator.
func (c *Controller) AddNotificationListener(listener voting.NotificationListener, uniqueIdentifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.listeners[uniqueIdentifier]; ok {
		return errors.New(utils.ErrListenerAlreadyExist)
	}
	c.listeners[uniqueIdentifier] = listener
	for _, orch := range c.orchestrators {
		if err := orch.AddNotificationListener(listener, uniqueIdentifier); err != nil {
			log.Warnf("Listener %s already attached to %s", uniqueIdentifier, orch.ID())
		}
	}
	return nil
}

func (c *Controller) RemoveNotificationListener(uniqueIdentifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.listeners, uniqueIdentifier)
	for _, orch := range c.orchestrators {
		orch.RemoveNotificationListener(uniqueIdentifier)
	}
}

func (c *Controller) attachListenersLocked(orch *voting.Orchestrator) {
	for id, listener := range c.listeners {
		if err := orch.AddNotificationListener(listener, id); err != nil {
			log.Warnf("Listener %s already attached to %s", id, orch.ID())
		}
	}
}

// Items returns the visible records in list order.
func (c *Controller) Items() []*voting.Voting {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]*voting.Voting, 0, len(c.items))
	for _, id := range c.items {
		orch, ok := c.orchestrators[id]
		if !ok {
			continue
		}
		v := orch.Voting()
		v.IsNew = c.isNew[id]
		items = append(items, v)
	}
	return items
}

// UnreadCount returns the number of visible contracts created after the
// high-water mark.
func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	for _, id := range c.items {
		if c.isNew[id] {
			count++
		}
	}
	return count
}

// Orchestrator returns the orchestrator of contract id.
func (c *Controller) Orchestrator(id string) (*voting.Orchestrator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	orch, ok := c.orchestrators[strings.ToLower(id)]
	return orch, ok
}

// Refresh reloads every visible contract from the index.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	orchestrators := make([]*voting.Orchestrator, 0, len(c.items))
	for _, id := range c.items {
		if orch, ok := c.orchestrators[id]; ok {
			orchestrators = append(orchestrators, orch)
		}
	}
	c.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReloads)
	for _, orch := range orchestrators {
		orch := orch
		g.Go(func() error {
			return orch.Reload(ctx)
		})
	}
	return g.Wait()
}

// Close stops every orchestrator.
func (c *Controller) Close() {
	c.mu.Lock()
	orchestrators := c.orchestrators
	c.orchestrators = make(map[string]*voting.Orchestrator)
	c.items = nil
	c.mu.Unlock()

	for _, orch := range orchestrators {
		orch.Stop()
	}
}

func (c *Controller) lastSeenCreateTime() int64 {
	var mark int64
	if err := c.cfg.Settings.ReadSetting(LastSeenCreateTimeConfigKey, &mark); err != nil {
		log.Errorf("error reading config value for key: %s, error: %v", LastSeenCreateTimeConfigKey, err)
	}
	return mark
}

func (c *Controller) saveLastSeenCreateTime(mark int64) {
	if err := c.cfg.Settings.SaveSetting(LastSeenCreateTimeConfigKey, &mark); err != nil {
		log.Errorf("error setting config value for key: %s, error: %v", LastSeenCreateTimeConfigKey, err)
	}
}

// LastSeen returns the high-water mark as a time.
func (c *Controller) LastSeen() time.Time {
	mark := c.lastSeenCreateTime()
	if mark == 0 {
		return time.Time{}
	}
	return time.Unix(0, mark)
}
