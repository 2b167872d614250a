package walletdata

import (
	"os"
	"time"

	"decred.org/dcrwallet/v2/errors"
	"github.com/asdine/storm"
	bolt "go.etcd.io/bbolt"

	"github.com/crypto-power/oraclevoting/libwallet/internal/deferredvote"
	"github.com/crypto-power/oraclevoting/libwallet/internal/voting"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

const (
	DbName = "oraclevoting.db"

	ConfigBucketName = "oraclevoting_config"
	KeyDbVersion     = "DbVersion"

	// DbVersion is necessary to force re-creating the cache if changes are
	// made to the structure of stored records. Increment this version number
	// if the db structure changes.
	DbVersion uint32 = 1

	dbOpenTimeout = time.Second
)

type DB struct {
	db    *storm.DB
	Close func() error
}

// Initialize opens the existing storm db at `dbPath`
// and checks the database version for compatibility.
// If there is a version mismatch or the db does not exist at `dbPath`,
// a new db is created and the current db version number saved to the db.
func Initialize(dbPath string) (*DB, error) {
	const op errors.Op = "walletdata.Initialize"

	db, err := openOrCreateDB(dbPath)
	if err != nil {
		return nil, errors.E(op, err)
	}

	if err = ensureDatabaseVersion(db); err != nil {
		db.Close()
		return nil, errors.E(op, err)
	}

	// init buckets for saving/reading records
	for _, data := range []interface{}{&voting.Voting{}, &deferredvote.DeferredVote{}} {
		if err = db.Init(data); err != nil {
			db.Close()
			return nil, errors.E(op, errors.Errorf("error initializing buckets: %v", err))
		}
	}

	return &DB{
		db:    db,
		Close: db.Close,
	}, nil
}

func openOrCreateDB(dbPath string) (*storm.DB, error) {
	var isNewDbFile bool

	// first check if db file exists at dbPath, if not we'll need to create it and set the db version
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			isNewDbFile = true
		} else {
			return nil, errors.Errorf("error checking database file: %v", err)
		}
	}

	db, err := storm.Open(dbPath, storm.BoltOptions(utils.UserFilePerm, &bolt.Options{Timeout: dbOpenTimeout}))
	if err != nil {
		switch err {
		case bolt.ErrTimeout:
			// timeout error occurs if storm fails to acquire a lock on the database file
			return nil, errors.E(errors.Invalid, errors.New(utils.ErrDatabaseInUse))
		default:
			return nil, errors.Errorf("error opening database: %v", err)
		}
	}

	if isNewDbFile {
		err = db.Set(ConfigBucketName, KeyDbVersion, DbVersion)
		if err != nil {
			db.Close()
			os.RemoveAll(dbPath)
			return nil, errors.Errorf("error initializing database: %v", err)
		}
	}

	return db, nil
}

// ensureDatabaseVersion checks the version of the existing db against
// `DbVersion`. On mismatch the cached records are dropped; they are rebuilt
// from the index on the next list refresh.
func ensureDatabaseVersion(db *storm.DB) error {
	var currentDbVersion uint32
	err := db.Get(ConfigBucketName, KeyDbVersion, &currentDbVersion)
	if err != nil && err != storm.ErrNotFound {
		return errors.Errorf("error checking database version: %v", err)
	}

	if currentDbVersion == DbVersion {
		return nil
	}

	log.Infof("Database version %d is outdated, resetting to %d", currentDbVersion, DbVersion)
	for _, data := range []interface{}{&voting.Voting{}, &deferredvote.DeferredVote{}} {
		if err = db.Drop(data); err != nil && !isBucketNotFound(err) {
			return errors.Errorf("error deleting outdated records: %v", err)
		}
	}

	return db.Set(ConfigBucketName, KeyDbVersion, DbVersion)
}

func isBucketNotFound(err error) bool {
	return err == bolt.ErrBucketNotFound || err == storm.ErrNotFound
}

// ReadSetting reads the value stored under key into value. A missing key
// leaves value untouched.
func (db *DB) ReadSetting(key string, value interface{}) error {
	err := db.db.Get(ConfigBucketName, key, value)
	if err != nil && err != storm.ErrNotFound {
		return err
	}
	return nil
}

func (db *DB) SaveSetting(key string, value interface{}) error {
	return db.db.Set(ConfigBucketName, key, value)
}
