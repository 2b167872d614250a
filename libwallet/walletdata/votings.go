package walletdata

import (
	"sort"

	"decred.org/dcrwallet/v2/errors"
	"github.com/asdine/storm"
	"github.com/asdine/storm/q"

	"github.com/crypto-power/oraclevoting/libwallet/internal/voting"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

// VotingStore persists voting records keyed by contract id.
type VotingStore struct {
	db *storm.DB
}

func (db *DB) Votings() *VotingStore {
	return &VotingStore{db: db.db}
}

func (s *VotingStore) Get(id string) (*voting.Voting, error) {
	v := &voting.Voting{}
	if err := s.db.One("ID", id, v); err != nil {
		if err == storm.ErrNotFound {
			return nil, errors.E(errors.NotExist, errors.New(utils.ErrNotExist))
		}
		return nil, err
	}
	return v, nil
}

// Put saves v, overwriting any record with the same id. The whole record is
// written so that cleared fields are persisted too.
func (s *VotingStore) Put(v *voting.Voting) error {
	if v.ID == "" {
		return errors.E(errors.Invalid, errors.New(utils.ErrInvalid))
	}
	return s.db.Save(v)
}

// BulkGet returns the stored records among ids, keyed by id. Unknown ids are
// left out.
func (s *VotingStore) BulkGet(ids []string) (map[string]*voting.Voting, error) {
	records := make(map[string]*voting.Voting, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	var votings []*voting.Voting
	err := s.db.Select(q.In("ID", ids)).Find(&votings)
	if err != nil && err != storm.ErrNotFound {
		return nil, err
	}
	for _, v := range votings {
		records[v.ID] = v
	}
	return records, nil
}

// BulkPut saves all records in a single transaction.
func (s *VotingStore) BulkPut(votings []*voting.Voting) error {
	tx, err := s.db.Begin(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, v := range votings {
		if v.ID == "" {
			continue
		}
		if err := tx.Save(v); err != nil {
			return errors.Errorf("error saving voting %s: %v", v.ID, err)
		}
	}
	return tx.Commit()
}

// InFlight returns the records with a transaction in flight.
func (s *VotingStore) InFlight() ([]*voting.Voting, error) {
	var votings []*voting.Voting
	err := s.db.Select(q.In("Status", voting.MiningStatuses)).Find(&votings)
	if err != nil && err != storm.ErrNotFound {
		return nil, err
	}
	return votings, nil
}

// ByIssuer returns the records authored by issuer, newest first.
func (s *VotingStore) ByIssuer(issuer string) ([]*voting.Voting, error) {
	var votings []*voting.Voting
	err := s.db.Select(q.Eq("Issuer", issuer)).Find(&votings)
	if err != nil && err != storm.ErrNotFound {
		return nil, err
	}
	sort.Slice(votings, func(i, j int) bool {
		return votings[i].CreateTime.After(votings[j].CreateTime)
	})
	return votings, nil
}
