package votinglist_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/crypto-power/oraclevoting/libwallet/ext"
	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/internal/chain/mock"
	"github.com/crypto-power/oraclevoting/libwallet/internal/voting"
	"github.com/crypto-power/oraclevoting/libwallet/internal/votinglist"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
	"github.com/crypto-power/oraclevoting/libwallet/walletdata"
)

const coinbase = "0x9a4d3f1c2b8e7d6a5c4b3a29180f7e6d5c4b3a21"

type fakeIndex struct {
	mu      sync.Mutex
	pages   []*ext.ContractList
	err     error
	queries []ext.ListQuery
	details map[string]*ext.OracleVotingContract
}

func (f *fakeIndex) Contracts(ctx context.Context, query *ext.ListQuery) (*ext.ContractList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, *query)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func (f *fakeIndex) Contract(ctx context.Context, address, oracle string) (*ext.OracleVotingContract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	detail, ok := f.details[address]
	if !ok {
		return nil, errors.New("not found")
	}
	return detail, nil
}

func (f *fakeIndex) lastQuery() ext.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type recorder struct {
	mu      sync.Mutex
	changes []*voting.Voting
}

func (r *recorder) OnVotingChanged(v *voting.Voting) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, v)
}

func (r *recorder) statuses() []voting.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	statuses := make([]voting.Status, 0, len(r.changes))
	for _, v := range r.changes {
		statuses = append(statuses, v.Status)
	}
	return statuses
}

func summary(address, state string, balance float64, created time.Time) *ext.OracleVotingContract {
	return &ext.OracleVotingContract{
		ContractAddress: address,
		State:           state,
		Balance:         balance,
		CreateTime:      created,
	}
}

func page(token string, contracts ...*ext.OracleVotingContract) *ext.ContractList {
	return &ext.ContractList{Result: contracts, ContinuationToken: token}
}

var _ = Describe("Controller", func() {
	var (
		dir        string
		db         *walletdata.DB
		index      *fakeIndex
		controller *votinglist.Controller
		node       *mock.NodeMock
		mark       time.Time
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "votinglist")
		Expect(err).To(BeNil())
		db, err = walletdata.Initialize(filepath.Join(dir, walletdata.DbName))
		Expect(err).To(BeNil())

		mark = time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)
		Expect(db.SaveSetting(votinglist.LastSeenCreateTimeConfigKey, mark.UnixNano())).To(Succeed())

		index = &fakeIndex{details: make(map[string]*ext.OracleVotingContract)}
		node = &mock.NodeMock{
			TxStatusFunc: func(ctx context.Context, hash string) (*chain.TxStatus, error) {
				return &chain.TxStatus{Hash: hash, BlockHash: chain.InMempoolHash}, nil
			},
			EstimateTxFunc: func(ctx context.Context, tx *chain.ContractTx) (*chain.Estimate, error) {
				return &chain.Estimate{Success: true, TxFee: 0.01}, nil
			},
			SendTxFunc: func(ctx context.Context, tx *chain.ContractTx) (string, error) {
				return "0xfund", nil
			},
		}
		controller = votinglist.New(context.Background(), votinglist.Config{
			Index:    index,
			Store:    db.Votings(),
			Settings: db,
			Orchestrator: voting.Config{
				Node:         node,
				Coinbase:     coinbase,
				PollInterval: time.Hour,
			},
			PageSize: 2,
		})
	})

	AfterEach(func() {
		controller.Close()
		db.Close()
		os.RemoveAll(dir)
	})

	Describe("unread contracts", func() {
		It("flags new contracts and advances the mark on the Todo filter", func() {
			index.pages = []*ext.ContractList{page("",
				summary("0xA1", "Open", 1, mark.Add(time.Hour)),
				summary("0xa2", "Pending", 2, mark.Add(2*time.Hour)),
			)}

			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())

			items := controller.Items()
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal("0xa1"))
			Expect(items[0].IsNew).To(BeTrue())
			Expect(items[1].IsNew).To(BeTrue())
			Expect(controller.UnreadCount()).To(Equal(2))
			Expect(controller.LastSeen().Equal(mark.Add(2 * time.Hour))).To(BeTrue())

			query := index.lastQuery()
			Expect(query.Oracle).To(Equal(coinbase))
			Expect(query.Limit).To(Equal(2))
			Expect(query.States).To(Equal([]string{"Pending", "Open", "Counting"}))
		})

		It("does not advance the mark on other filters", func() {
			index.pages = []*ext.ContractList{page("",
				summary("0xa1", "Archived", 1, mark.Add(time.Hour)),
			)}

			Expect(controller.Filter(context.Background(), votinglist.FilterClosed)).To(Succeed())
			Expect(controller.Items()[0].IsNew).To(BeTrue())
			Expect(controller.LastSeen().Equal(mark)).To(BeTrue())
		})

		It("does not flag contracts created before the mark", func() {
			index.pages = []*ext.ContractList{page("",
				summary("0xa1", "Open", 1, mark.Add(-time.Hour)),
			)}
			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())
			Expect(controller.UnreadCount()).To(BeZero())
		})
	})

	Describe("merging with local records", func() {
		It("keeps in-flight bookkeeping and takes fetched values otherwise", func() {
			Expect(db.Votings().BulkPut([]*voting.Voting{
				{
					ID:           "0xa1",
					Status:       voting.StatusFunding,
					PrevStatus:   voting.StatusOpen,
					MiningStatus: voting.MiningStatusMining,
					TxHash:       "0xfund",
					Balance:      15,
				},
				{ID: "0xa2", Status: voting.StatusOpen, Balance: 10, SelectedOption: 1},
			})).To(Succeed())

			index.pages = []*ext.ContractList{page("",
				summary("0xa1", "Open", 10, mark),
				summary("0xa2", "Counting", 12, mark),
			)}
			Expect(controller.Filter(context.Background(), votinglist.FilterVoting)).To(Succeed())

			items := controller.Items()
			Expect(items[0].Status).To(Equal(voting.StatusFunding))
			Expect(items[0].Balance).To(Equal(15.0))
			Expect(items[0].TxHash).To(Equal("0xfund"))
			Expect(items[1].Status).To(Equal(voting.StatusCounting))
			Expect(items[1].Balance).To(Equal(12.0))
			Expect(items[1].SelectedOption).To(Equal(1))

			stored, err := db.Votings().Get("0xa2")
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(voting.StatusCounting))
		})
	})

	Describe("pagination and filters", func() {
		It("loads the next page with the continuation token", func() {
			index.pages = []*ext.ContractList{
				page("next", summary("0xa1", "Open", 1, mark), summary("0xa2", "Open", 1, mark)),
				page("", summary("0xa3", "Open", 1, mark)),
			}

			Expect(controller.Filter(context.Background(), votinglist.FilterAll)).To(Succeed())
			Expect(controller.HasMore()).To(BeTrue())
			Expect(index.lastQuery().All).To(BeTrue())

			Expect(controller.LoadMore(context.Background())).To(Succeed())
			Expect(index.lastQuery().ContinuationToken).To(Equal("next"))
			Expect(controller.Items()).To(HaveLen(3))
			Expect(controller.HasMore()).To(BeFalse())

			Expect(controller.LoadMore(context.Background())).To(Succeed())
			Expect(index.queries).To(HaveLen(2))
		})

		It("toggles statuses in the query", func() {
			index.pages = []*ext.ContractList{page("")}

			Expect(controller.ToggleStatus(context.Background(), voting.StatusOpen)).To(Succeed())
			Expect(index.lastQuery().States).To(Equal([]string{"Pending", "Counting"}))

			Expect(controller.ToggleStatus(context.Background(), voting.StatusArchived)).To(Succeed())
			Expect(index.lastQuery().States).To(Equal([]string{"Pending", "Counting", "Archived"}))

			filter, statuses := controller.CurrentFilter()
			Expect(filter).To(Equal(votinglist.FilterTodo))
			Expect(statuses).To(HaveLen(3))
		})

		It("queries own contracts", func() {
			index.pages = []*ext.ContractList{page("")}
			Expect(controller.Filter(context.Background(), votinglist.FilterOwn)).To(Succeed())
			Expect(index.lastQuery().Own).To(BeTrue())
			Expect(index.lastQuery().States).To(BeEmpty())
		})
	})

	Describe("orchestrator registry", func() {
		It("reuses orchestrators and releases the ones that left the list", func() {
			index.pages = []*ext.ContractList{
				page("", summary("0xa1", "Open", 1, mark), summary("0xa2", "Open", 1, mark)),
				page("", summary("0xa1", "Counting", 1, mark)),
			}
			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())
			first, ok := controller.Orchestrator("0xA1")
			Expect(ok).To(BeTrue())

			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())
			again, ok := controller.Orchestrator("0xa1")
			Expect(ok).To(BeTrue())
			Expect(again).To(BeIdenticalTo(first))
			Expect(again.Voting().Status).To(Equal(voting.StatusCounting))

			_, ok = controller.Orchestrator("0xa2")
			Expect(ok).To(BeFalse())
		})

		It("rejects commands on a released orchestrator", func() {
			index.pages = []*ext.ContractList{
				page("", summary("0xa1", "Open", 1, mark)),
				page(""),
			}
			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())
			orch, ok := controller.Orchestrator("0xa1")
			Expect(ok).To(BeTrue())

			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())
			_, ok = controller.Orchestrator("0xa1")
			Expect(ok).To(BeFalse())

			err := orch.AddFund(context.Background(), 5)
			Expect(err).ToNot(BeNil())
			Expect(err.Error()).To(ContainSubstring(utils.ErrContextCanceled))
			Expect(node.SendTxCalls()).To(BeEmpty())

			v := orch.Voting()
			Expect(v.Status).To(Equal(voting.StatusOpen))
			Expect(v.MiningStatus).To(BeEmpty())
			Expect(v.TxHash).To(BeEmpty())
		})

		It("keeps an orchestrator with a transaction in flight", func() {
			adopted := controller.Adopt(&voting.Voting{
				ID:           "0xa9",
				Status:       voting.StatusFinishing,
				PrevStatus:   voting.StatusCounting,
				MiningStatus: voting.MiningStatusMining,
				TxHash:       "0xfinish",
			})
			Expect(controller.Adopt(&voting.Voting{ID: "0xa9"})).To(BeIdenticalTo(adopted))

			index.pages = []*ext.ContractList{page("", summary("0xa1", "Open", 1, mark))}
			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())

			_, ok := controller.Orchestrator("0xa9")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("notification listeners", func() {
		It("attaches listeners to current and future orchestrators", func() {
			index.pages = []*ext.ContractList{
				page("", summary("0xa1", "Open", 1, mark)),
				page("", summary("0xa1", "Counting", 1, mark), summary("0xa2", "Open", 1, mark)),
				page("", summary("0xa1", "Counting", 1, mark), summary("0xa2", "Archived", 1, mark)),
			}
			Expect(controller.Filter(context.Background(), votinglist.FilterAll)).To(Succeed())

			changes := &recorder{}
			Expect(controller.AddNotificationListener(changes, "recorder")).To(Succeed())
			Expect(controller.AddNotificationListener(changes, "recorder")).ToNot(Succeed())

			Expect(controller.Filter(context.Background(), votinglist.FilterAll)).To(Succeed())
			Expect(changes.statuses()).To(Equal([]voting.Status{voting.StatusCounting}))

			Expect(controller.Filter(context.Background(), votinglist.FilterAll)).To(Succeed())
			Expect(changes.statuses()).To(ContainElement(voting.StatusArchived))

			controller.RemoveNotificationListener("recorder")
			Expect(controller.AddNotificationListener(changes, "recorder")).To(Succeed())
		})

		It("registers an orchestrator created outside the controller", func() {
			orch := voting.New(voting.Config{Store: db.Votings()}, &voting.Voting{ID: "0xb1", Status: voting.StatusPending})
			registered, added := controller.Register(orch)
			Expect(added).To(BeTrue())
			Expect(registered).To(BeIdenticalTo(orch))

			again, added := controller.Register(voting.New(voting.Config{}, &voting.Voting{ID: "0xb1"}))
			Expect(added).To(BeFalse())
			Expect(again).To(BeIdenticalTo(orch))

			_, added = controller.Register(voting.New(voting.Config{}, voting.NewDraft(coinbase)))
			Expect(added).To(BeFalse())
		})
	})

	Describe("failures", func() {
		It("surfaces list errors without touching loaded contracts", func() {
			index.pages = []*ext.ContractList{page("", summary("0xa1", "Open", 1, mark))}
			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())

			index.err = errors.New("index down")
			Expect(controller.Filter(context.Background(), votinglist.FilterVoting)).ToNot(Succeed())
			Expect(controller.Items()).To(HaveLen(1))
			_, ok := controller.Orchestrator("0xa1")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("refresh", func() {
		It("reloads every visible contract", func() {
			index.pages = []*ext.ContractList{page("", summary("0xa1", "Open", 1, mark))}
			Expect(controller.Filter(context.Background(), votinglist.FilterTodo)).To(Succeed())

			index.details["0xa1"] = summary("0xa1", "CanBeProlonged", 4, mark)
			Expect(controller.Refresh(context.Background())).To(Succeed())
			Expect(controller.Items()[0].Status).To(Equal(voting.StatusCanBeProlonged))
			Expect(controller.Items()[0].Balance).To(Equal(4.0))
		})
	})
})
