package walletdata

import (
	"github.com/asdine/storm"
	"github.com/asdine/storm/q"

	"github.com/crypto-power/oraclevoting/libwallet/internal/deferredvote"
)

// DeferredVoteStore persists deferred votes under store-assigned ids.
type DeferredVoteStore struct {
	db *storm.DB
}

func (db *DB) DeferredVotes() *DeferredVoteStore {
	return &DeferredVoteStore{db: db.db}
}

// Add saves a new vote and sets its ID.
func (s *DeferredVoteStore) Add(vote *deferredvote.DeferredVote) error {
	vote.ID = 0
	return s.db.Save(vote)
}

func (s *DeferredVoteStore) Put(vote *deferredvote.DeferredVote) error {
	return s.db.Save(vote)
}

func (s *DeferredVoteStore) Get(id int) (*deferredvote.DeferredVote, error) {
	vote := &deferredvote.DeferredVote{}
	if err := s.db.One("ID", id, vote); err != nil {
		return nil, err
	}
	return vote, nil
}

// ByType returns the votes of coinbase in state t, oldest first. An empty
// coinbase matches every owner.
func (s *DeferredVoteStore) ByType(t deferredvote.Type, coinbase string) ([]*deferredvote.DeferredVote, error) {
	matchers := []q.Matcher{q.Eq("Type", t)}
	if coinbase != "" {
		matchers = append(matchers, q.Eq("Coinbase", coinbase))
	}

	var votes []*deferredvote.DeferredVote
	err := s.db.Select(matchers...).OrderBy("ID").Find(&votes)
	if err != nil && err != storm.ErrNotFound {
		return nil, err
	}
	return votes, nil
}

func (s *DeferredVoteStore) Delete(id int) error {
	vote, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.DeleteStruct(vote)
}
