package txpoller

import (
	"context"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"

	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

// StatusOracle reports whether a submitted transaction has been included.
type StatusOracle interface {
	TxStatus(ctx context.Context, hash string) (*chain.TxStatus, error)
}

// Outcome is the terminal result of polling a hash.
type Outcome int

const (
	// Mined means the transaction left the mempool.
	Mined Outcome = iota
	// TxNull means the status query itself failed and the transaction's fate
	// is unknown.
	TxNull
)

func (o Outcome) String() string {
	if o == Mined {
		return "Mined"
	}
	return "TxNull"
}

// Event is emitted once per poll run.
type Event struct {
	Outcome   Outcome
	Hash      string
	BlockHash string
	Err       error
}

// Poller queries the status oracle for a single hash at a fixed interval.
type Poller struct {
	oracle   StatusOracle
	interval time.Duration
}

// New returns a poller that waits interval between two queries.
func New(oracle StatusOracle, interval time.Duration) *Poller {
	return &Poller{
		oracle:   oracle,
		interval: interval,
	}
}

// Poll blocks until hash is reported included, the query fails or ctx is
// done. Queries are strictly sequential: the next wait starts only after the
// previous query returned.
func (p *Poller) Poll(ctx context.Context, hash string) (*Event, error) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		status, err := p.oracle.TxStatus(ctx, hash)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil && status == nil {
			err = errors.New(utils.ErrNotExist)
		}
		if err != nil {
			log.Warnf("Status query for tx %s failed: %v", hash, err)
			return &Event{Outcome: TxNull, Hash: hash, Err: err}, nil
		}
		if status.Included() {
			log.Debugf("Tx %s mined in block %s after %d queries", hash, status.BlockHash, attempt)
			return &Event{Outcome: Mined, Hash: hash, BlockHash: status.BlockHash}, nil
		}

		log.Tracef("Tx %s still in mempool", hash)
		timer.Reset(p.interval)
	}
}

// Task is a running poll that can be cancelled.
type Task struct {
	Hash string

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	canceled bool
}

// Start polls hash in the background and hands the outcome to onResult. The
// callback is never invoked once Cancel has been called.
func (p *Poller) Start(ctx context.Context, hash string, onResult func(*Event)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	task := &Task{
		Hash:   hash,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(task.done)
		defer cancel()

		event, err := p.Poll(ctx, hash)
		if err != nil {
			log.Tracef("Poll for tx %s stopped: %v", hash, err)
			return
		}

		task.mu.Lock()
		canceled := task.canceled
		task.mu.Unlock()
		if canceled {
			return
		}
		onResult(event)
	}()

	return task
}

// Cancel stops the task. It does not wait for the goroutine to exit.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.canceled = true
	t.mu.Unlock()
	t.cancel()
}

// Done is closed when the task's goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
