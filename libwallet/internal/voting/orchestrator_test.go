package voting_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/crypto-power/oraclevoting/libwallet/ext"
	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/internal/chain/mock"
	"github.com/crypto-power/oraclevoting/libwallet/internal/deferredvote"
	"github.com/crypto-power/oraclevoting/libwallet/internal/voting"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
	"github.com/crypto-power/oraclevoting/libwallet/walletdata"
)

const (
	coinbase     = "0x9a4d3f1c2b8e7d6a5c4b3a29180f7e6d5c4b3a21"
	contractAddr = "0x1b8b1f4a6d8e9e3e5c5b9f1c1e2a8d0f7c6b5a43"
	pollInterval = 5 * time.Millisecond
	waitTimeout  = 2 * time.Second
)

// chainState scripts the node: each TxStatus query consumes the next block
// hash, the last one repeats.
type chainState struct {
	mu          sync.Mutex
	blockHashes []string
	statusErr   error
	estimateErr string
	sent        int32
}

func (c *chainState) node() *mock.NodeMock {
	return &mock.NodeMock{
		EstimateTxFunc: func(ctx context.Context, tx *chain.ContractTx) (*chain.Estimate, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			return &chain.Estimate{Success: c.estimateErr == "", Error: c.estimateErr, TxFee: 0.01, Contract: contractAddr}, nil
		},
		SendTxFunc: func(ctx context.Context, tx *chain.ContractTx) (string, error) {
			n := atomic.AddInt32(&c.sent, 1)
			return "0xtx" + string(rune('0'+n)), nil
		},
		TxStatusFunc: func(ctx context.Context, hash string) (*chain.TxStatus, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.statusErr != nil {
				return nil, c.statusErr
			}
			blockHash := chain.InMempoolHash
			if len(c.blockHashes) > 0 {
				blockHash = c.blockHashes[0]
				if len(c.blockHashes) > 1 {
					c.blockHashes = c.blockHashes[1:]
				}
			}
			return &chain.TxStatus{Hash: hash, BlockHash: blockHash}, nil
		},
		NetworkSizeFunc: func(ctx context.Context) (int, error) {
			return 1000, nil
		},
		FeePerGasFunc: func(ctx context.Context) (float64, error) {
			return 0.0001, nil
		},
		CallFunc: func(ctx context.Context, contract, method string, args ...chain.CallArg) (json.RawMessage, error) {
			return json.RawMessage(`"0xcommitment"`), nil
		},
	}
}

func (c *chainState) mineAfter(mempoolQueries int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockHashes = nil
	for i := 0; i < mempoolQueries; i++ {
		c.blockHashes = append(c.blockHashes, chain.InMempoolHash)
	}
	c.blockHashes = append(c.blockHashes, "0xblock")
}

func (c *chainState) stayInMempool() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockHashes = []string{chain.InMempoolHash}
}

type revealQueue struct {
	mu    sync.Mutex
	votes []*deferredvote.DeferredVote
}

func (q *revealQueue) Schedule(vote *deferredvote.DeferredVote) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.votes = append(q.votes, vote)
	return nil
}

func (q *revealQueue) scheduled() []*deferredvote.DeferredVote {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*deferredvote.DeferredVote(nil), q.votes...)
}

type listener struct {
	mu       sync.Mutex
	statuses []voting.Status
}

func (l *listener) OnVotingChanged(v *voting.Voting) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, v.Status)
}

func (l *listener) seen() []voting.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]voting.Status(nil), l.statuses...)
}

var _ = Describe("Orchestrator", func() {
	var (
		dir     string
		db      *walletdata.DB
		store   *walletdata.VotingStore
		state   *chainState
		node    *mock.NodeMock
		reveals *revealQueue
		orch    *voting.Orchestrator
	)

	newOrchestrator := func(v *voting.Voting) *voting.Orchestrator {
		o := voting.New(voting.Config{
			Node:         node,
			Store:        store,
			Reveals:      reveals,
			Coinbase:     coinbase,
			PollInterval: pollInterval,
		}, v)
		o.Start(context.Background())
		return o
	}

	idle := func(status voting.Status) *voting.Voting {
		return &voting.Voting{
			ID:             contractAddr,
			ContractHash:   contractAddr,
			Status:         status,
			Balance:        10,
			CommitteeSize:  100,
			StartBlock:     1000,
			VotingDuration: 50,
			Options:        []voting.Option{{ID: 0, Value: "yes"}, {ID: 1, Value: "no"}},
			SelectedOption: voting.NoOption,
		}
	}

	stored := func() *voting.Voting {
		v, err := store.Get(contractAddr)
		Expect(err).To(BeNil())
		return v
	}

	currentStatus := func() voting.Status {
		return orch.Voting().Status
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "voting")
		Expect(err).To(BeNil())
		db, err = walletdata.Initialize(filepath.Join(dir, walletdata.DbName))
		Expect(err).To(BeNil())
		store = db.Votings()

		state = &chainState{}
		node = state.node()
		reveals = &revealQueue{}
	})

	AfterEach(func() {
		if orch != nil {
			orch.Stop()
			orch = nil
		}
		db.Close()
		os.RemoveAll(dir)
	})

	Describe("mutual exclusion", func() {
		It("rejects a second action while a transaction is mining", func() {
			state.stayInMempool()
			orch = newOrchestrator(idle(voting.StatusOpen))

			Expect(orch.AddFund(context.Background(), 5)).To(Succeed())
			v := orch.Voting()
			Expect(v.Status).To(Equal(voting.StatusFunding))
			Expect(v.MiningStatus).To(Equal(voting.MiningStatusMining))

			err := orch.AddFund(context.Background(), 1)
			Expect(err).ToNot(BeNil())
			Expect(err.Error()).To(ContainSubstring(utils.ErrMiningInProgress))

			err = orch.Vote(context.Background(), 0)
			Expect(err.Error()).To(ContainSubstring(utils.ErrMiningInProgress))

			Expect(node.SendTxCalls()).To(HaveLen(1))
			Expect(orch.Voting().TxHash).To(Equal(v.TxHash))
		})
	})

	Describe("resuming after a restart", func() {
		It("polls the stored hash instead of resubmitting", func() {
			v := idle(voting.StatusStarting)
			v.PrevStatus = voting.StatusPending
			v.MiningStatus = voting.MiningStatusMining
			v.TxHash = "0xstored"
			Expect(store.Put(v)).To(Succeed())

			state.mineAfter(1)
			persisted := stored()
			orch = newOrchestrator(persisted)

			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusOpen))
			Expect(node.SendTxCalls()).To(BeEmpty())
			Expect(node.EstimateTxCalls()).To(BeEmpty())
			for _, call := range node.TxStatusCalls() {
				Expect(call.Hash).To(Equal("0xstored"))
			}
			Expect(stored().MiningStatus).To(BeEmpty())
		})

		It("submits an action that was persisted before its transaction was sent", func() {
			v := idle(voting.StatusFunding)
			v.PrevStatus = voting.StatusOpen
			v.Pending = &voting.PendingAction{Amount: 3, Option: voting.NoOption}
			Expect(store.Put(v)).To(Succeed())

			state.mineAfter(0)
			orch = newOrchestrator(stored())

			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusOpen))
			Expect(node.SendTxCalls()).To(HaveLen(1))
			Expect(node.SendTxCalls()[0].Tx.Amount).To(Equal(3.0))
		})

		It("invalidates a record with inconsistent bookkeeping", func() {
			v := idle(voting.StatusProlonging)
			v.MiningStatus = "unknown"
			Expect(store.Put(v)).To(Succeed())

			orch = newOrchestrator(stored())
			Expect(currentStatus()).To(Equal(voting.StatusInvalid))
			Expect(stored().Status).To(Equal(voting.StatusInvalid))
		})
	})

	Describe("funding", func() {
		It("returns to the previous idle status with the added balance", func() {
			state.mineAfter(0)
			orch = newOrchestrator(idle(voting.StatusOpen))

			Expect(orch.AddFund(context.Background(), 5)).To(Succeed())
			Expect(orch.Voting().Balance).To(Equal(15.0))

			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusOpen))
			v := stored()
			Expect(v.Balance).To(Equal(15.0))
			Expect(v.PrevStatus).To(BeEmpty())
			Expect(v.TxHash).To(BeEmpty())

			tx := node.SendTxCalls()[0].Tx
			Expect(tx.Type).To(Equal(chain.TransferTx))
			Expect(tx.To).To(Equal(contractAddr))
		})

		It("is accepted on an invalid contract", func() {
			state.mineAfter(0)
			orch = newOrchestrator(idle(voting.StatusInvalid))

			Expect(orch.AddFund(context.Background(), 1)).To(Succeed())
			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusInvalid))
			Expect(orch.Voting().Balance).To(Equal(11.0))
		})

		It("aborts on a contract error and reverts the balance", func() {
			state.estimateErr = "insufficient funds"
			orch = newOrchestrator(idle(voting.StatusOpen))

			err := orch.AddFund(context.Background(), 5)
			cErr, ok := chain.IsContractError(err)
			Expect(ok).To(BeTrue())
			Expect(cErr.Reason).To(Equal("insufficient funds"))

			v := stored()
			Expect(v.Status).To(Equal(voting.StatusOpen))
			Expect(v.Balance).To(Equal(10.0))
			Expect(v.ErrorMessage).To(Equal("insufficient funds"))
			Expect(v.MiningStatus).To(BeEmpty())
			Expect(node.SendTxCalls()).To(BeEmpty())
		})

		It("rejects non-positive amounts", func() {
			orch = newOrchestrator(idle(voting.StatusOpen))
			err := orch.AddFund(context.Background(), 0)
			Expect(err.Error()).To(ContainSubstring(utils.ErrInvalidAmount))
			Expect(currentStatus()).To(Equal(voting.StatusOpen))
		})
	})

	Describe("starting a voting", func() {
		It("reviews the deposit, submits and settles into Open", func() {
			state.mineAfter(2)
			orch = newOrchestrator(idle(voting.StatusPending))

			Expect(orch.StartVoting(context.Background())).ToNot(Succeed())

			review, err := orch.ReviewStartVoting(context.Background())
			Expect(err).To(BeNil())
			Expect(review.NetworkSize).To(Equal(1000))
			Expect(review.Deposit).To(Equal(voting.MinOwnerDeposit(1000, 100)))
			Expect(orch.Stage()).To(Equal(voting.StageReviewStart))

			Expect(orch.StartVoting(context.Background())).To(Succeed())
			Expect(currentStatus()).To(Equal(voting.StatusStarting))

			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusOpen))
			v := stored()
			Expect(v.Status).To(Equal(voting.StatusOpen))
			Expect(v.MiningStatus).To(BeEmpty())
			Expect(v.TxHash).To(BeEmpty())
			Expect(node.TxStatusCalls()).To(HaveLen(3))

			tx := node.SendTxCalls()[0].Tx
			Expect(tx.Method).To(Equal(chain.MethodStartVoting))
			Expect(tx.Amount).To(Equal(review.Deposit))
		})

		It("is not allowed from Open", func() {
			orch = newOrchestrator(idle(voting.StatusOpen))
			_, err := orch.ReviewStartVoting(context.Background())
			Expect(err.Error()).To(ContainSubstring(utils.ErrNotAllowed))
		})
	})

	Describe("poll failures", func() {
		It("invalidates a finishing contract when the status query fails", func() {
			state.statusErr = errors.New("node unreachable")
			orch = newOrchestrator(idle(voting.StatusCounting))

			Expect(orch.FinishVoting(context.Background())).To(Succeed())

			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusInvalid))
			v := stored()
			Expect(v.MiningStatus).To(BeEmpty())
			Expect(v.TxHash).To(BeEmpty())
			Expect(v.ErrorMessage).To(Equal("node unreachable"))
		})
	})

	Describe("voting", func() {
		It("commits the vote, queues the reveal and waits for acknowledgement", func() {
			state.mineAfter(0)
			orch = newOrchestrator(idle(voting.StatusOpen))
			l := &listener{}
			Expect(orch.AddNotificationListener(l, "test")).To(Succeed())
			Expect(orch.AddNotificationListener(l, "test")).ToNot(Succeed())

			Expect(orch.Vote(context.Background(), 1)).To(Succeed())
			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusVoted))

			Expect(orch.Stage()).To(Equal(voting.StageReviewPendingVote))
			Expect(orch.Voting().SelectedOption).To(Equal(1))
			Expect(l.seen()).To(ContainElement(voting.StatusVoting))

			call := node.CallCalls()[0]
			Expect(call.Method).To(Equal(chain.MethodVoteHash))
			tx := node.SendTxCalls()[0].Tx
			Expect(tx.Method).To(Equal(chain.MethodSendVoteProof))
			Expect(tx.Args[0].Value).To(Equal("0xcommitment"))

			queued := reveals.scheduled()
			Expect(queued).To(HaveLen(1))
			Expect(queued[0].Block).To(Equal(uint64(1050)))
			Expect(queued[0].Method).To(Equal(chain.MethodSendVote))
			Expect(queued[0].Args[0].Value).To(Equal("1"))

			Expect(orch.AcknowledgeVote()).To(Succeed())
			Expect(orch.Stage()).To(Equal(voting.StageIdle))
			Expect(orch.AcknowledgeVote()).ToNot(Succeed())
		})

		It("rejects unknown options and non-open contracts", func() {
			orch = newOrchestrator(idle(voting.StatusOpen))
			Expect(orch.Vote(context.Background(), 7)).ToNot(Succeed())
			Expect(currentStatus()).To(Equal(voting.StatusOpen))

			orch.Stop()
			orch = newOrchestrator(idle(voting.StatusPending))
			err := orch.Vote(context.Background(), 0)
			Expect(err.Error()).To(ContainSubstring(utils.ErrNotAllowed))
		})
	})

	Describe("termination", func() {
		It("requires confirmation", func() {
			state.mineAfter(0)
			orch = newOrchestrator(idle(voting.StatusArchived))

			Expect(orch.ConfirmTerminate(context.Background())).ToNot(Succeed())
			Expect(orch.Terminate()).To(Succeed())
			Expect(orch.Stage()).To(Equal(voting.StageReviewTerminate))
			Expect(orch.ConfirmTerminate(context.Background())).To(Succeed())

			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusTerminated))
			Expect(node.SendTxCalls()[0].Tx.Type).To(Equal(chain.TerminateContractTx))
		})

		It("is not allowed while open", func() {
			orch = newOrchestrator(idle(voting.StatusOpen))
			Expect(orch.Terminate()).ToNot(Succeed())
		})
	})

	Describe("prolonging", func() {
		It("reopens the voting", func() {
			state.mineAfter(0)
			orch = newOrchestrator(idle(voting.StatusCanBeProlonged))
			Expect(orch.ProlongVoting(context.Background())).To(Succeed())
			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusOpen))
		})
	})

	Describe("deploying", func() {
		It("persists the draft once the contract address is known", func() {
			state.mineAfter(0)
			orch = newOrchestrator(voting.NewDraft(coinbase))

			params := &chain.DeployParams{
				Fact: chain.Fact{
					Title:   "Will it rain",
					Options: []chain.FactOption{{ID: 0, Value: "yes"}, {ID: 1, Value: "no"}},
				},
				StartTime:      time.Now().Unix(),
				VotingDuration: 100,
				CommitteeSize:  100,
			}
			Expect(orch.Deploy(context.Background(), params, 50)).To(Succeed())
			Expect(orch.ID()).To(Equal(contractAddr))

			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusPending))
			Expect(stored().Title).To(Equal("Will it rain"))
		})
	})

	Describe("cancellation", func() {
		It("ignores the poller once stopped and resumes on the next start", func() {
			state.stayInMempool()
			orch = newOrchestrator(idle(voting.StatusOpen))
			Expect(orch.ProlongVoting(context.Background())).ToNot(Succeed())

			Expect(orch.FinishVoting(context.Background())).ToNot(Succeed())
			orch.Stop()
			orch = newOrchestrator(idle(voting.StatusCounting))
			Expect(orch.FinishVoting(context.Background())).To(Succeed())
			hash := orch.Voting().TxHash
			orch.Stop()

			state.mineAfter(0)
			Consistently(currentStatus, 50*time.Millisecond).Should(Equal(voting.StatusFinishing))

			orch = newOrchestrator(stored())
			Eventually(currentStatus, waitTimeout).Should(Equal(voting.StatusArchived))
			Expect(node.SendTxCalls()).To(HaveLen(1))
			Expect(node.TxStatusCalls()[len(node.TxStatusCalls())-1].Hash).To(Equal(hash))
		})

		It("rejects commands once stopped", func() {
			orch = newOrchestrator(idle(voting.StatusCanBeProlonged))
			orch.Stop()

			err := orch.AddFund(context.Background(), 5)
			Expect(err).ToNot(BeNil())
			Expect(err.Error()).To(ContainSubstring(utils.ErrContextCanceled))
			_, err = orch.ReviewStartVoting(context.Background())
			Expect(err).ToNot(BeNil())
			Expect(orch.Terminate()).ToNot(Succeed())

			Expect(node.SendTxCalls()).To(BeEmpty())
			Expect(currentStatus()).To(Equal(voting.StatusCanBeProlonged))
			Expect(orch.Voting().Balance).To(Equal(idle(voting.StatusCanBeProlonged).Balance))
		})
	})

	Describe("reconciling with the index", func() {
		It("resolves the fetched state and keeps in-flight bookkeeping", func() {
			state.stayInMempool()
			orch = newOrchestrator(idle(voting.StatusOpen))

			v := orch.Sync(&ext.OracleVotingContract{ContractAddress: contractAddr, State: "COUNTING", Balance: 40})
			Expect(v.Status).To(Equal(voting.StatusCounting))
			Expect(v.Balance).To(Equal(40.0))

			v = orch.Sync(&ext.OracleVotingContract{ContractAddress: contractAddr, State: "Mystery"})
			Expect(v.Status).To(Equal(voting.StatusInvalid))
			Expect(v.ErrorMessage).ToNot(BeEmpty())

			Expect(orch.AddFund(context.Background(), 2)).To(Succeed())
			v = orch.Sync(&ext.OracleVotingContract{ContractAddress: contractAddr, State: "Open", Balance: 1})
			Expect(v.Status).To(Equal(voting.StatusFunding))
			Expect(v.MiningStatus).To(Equal(voting.MiningStatusMining))
			Expect(v.Balance).To(Equal(2.0))
			Expect(stored().Status).To(Equal(voting.StatusFunding))
		})
	})
})
