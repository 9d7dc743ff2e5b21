package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
	"go.etcd.io/bbolt"
)

// DefaultFile is the database file name inside the data directory
const DefaultFile = config.DefaultBoltFile

var (
	bucketChallenges  = []byte("challenges")
	bucketEntries     = []byte("entries")
	bucketByOwner     = []byte("by_owner")
	bucketByGuarantor = []byte("by_guarantor")
	bucketMeta        = []byte("meta")
	bucketPending     = []byte("pending")

	keyCustody  = []byte("custody")
	keySettings = []byte("settings")
)

// ErrMissingPath is returned when no database path is configured
var ErrMissingPath = errors.New("bolt: missing database path")

// OpenTimeout bounds the wait for another process to release the file
const OpenTimeout = 5 * time.Second

// Repository stores challenges, the ledger journal and settings in a bbolt
// database. Every insert and commit is a single read-write transaction.
//
// The database is opened for each operation and closed right after, so a
// long-running sweep never holds the file lock between ticks. Reads open it
// read-only and share the lock with other readers.
type Repository struct {
	path     string
	defaults models.LedgerSettings
}

// Open creates the database at path if needed and checks that it opens
func Open(path string, defaults models.LedgerSettings) (*Repository, error) {
	if path == "" {
		return nil, ErrMissingPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	r := &Repository{path: path, defaults: defaults}
	err := r.update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChallenges, bucketEntries, bucketByOwner, bucketByGuarantor, bucketMeta, bucketPending} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) open(readOnly bool) (*bbolt.DB, error) {
	db, err := bbolt.Open(r.path, 0600, &bbolt.Options{Timeout: OpenTimeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	return db, nil
}

// view runs fn in a read-only transaction on a freshly opened database
func (r *Repository) view(fn func(tx *bbolt.Tx) error) error {
	db, err := r.open(true)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(fn)
}

// update runs fn in a read-write transaction on a freshly opened database
func (r *Repository) update(fn func(tx *bbolt.Tx) error) error {
	db, err := r.open(false)
	if err != nil {
		return err
	}
	if err := db.Update(fn); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", r.path, err)
	}
	return nil
}

// GetChallenge loads one challenge
func (r *Repository) GetChallenge(ctx context.Context, id common.Hash) (*models.Challenge, error) {
	var c *models.Challenge
	err := r.view(func(tx *bbolt.Tx) error {
		var err error
		c, err = getChallenge(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListChallenges scans the owner or guarantor index when the filter names
// one, and the whole bucket otherwise
func (r *Repository) ListChallenges(ctx context.Context, filter domain.ChallengeFilter) ([]*models.Challenge, error) {
	var result []*models.Challenge
	err := r.view(func(tx *bbolt.Tx) error {
		collect := func(c *models.Challenge) {
			if filter.Matches(c) {
				result = append(result, c)
			}
		}

		var index []byte
		var addr common.Address
		switch {
		case filter.Owner != nil:
			index, addr = bucketByOwner, *filter.Owner
		case filter.Guarantor != nil:
			index, addr = bucketByGuarantor, *filter.Guarantor
		}

		if index == nil {
			return tx.Bucket(bucketChallenges).ForEach(func(_, v []byte) error {
				c, err := decodeChallenge(v)
				if err != nil {
					return err
				}
				collect(c)
				return nil
			})
		}

		cur := tx.Bucket(index).Cursor()
		prefix := addr.Bytes()
		for k, _ := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cur.Next() {
			c, err := getChallenge(tx, common.BytesToHash(k[common.AddressLength:]))
			if err != nil {
				return err
			}
			collect(c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InsertChallenge stores a new challenge with its deposit entries
func (r *Repository) InsertChallenge(ctx context.Context, challenge *models.Challenge, entries ...models.LedgerEntry) error {
	return r.update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChallenges).Get(challenge.ID.Bytes()) != nil {
			return fmt.Errorf("challenge %s: %w", challenge.ID.Hex(), domain.ErrDuplicateChallenge)
		}
		if err := putChallenge(tx, challenge); err != nil {
			return err
		}

		idx := tx.Bucket(bucketByOwner)
		if err := idx.Put(indexKey(challenge.Owner, challenge.ID), nil); err != nil {
			return err
		}
		idx = tx.Bucket(bucketByGuarantor)
		for _, g := range challenge.Voting.Guarantors {
			if err := idx.Put(indexKey(g, challenge.ID), nil); err != nil {
				return err
			}
		}
		return appendEntries(tx, entries)
	})
}

// CommitChallenge replaces a challenge and appends its entries in one transaction
func (r *Repository) CommitChallenge(ctx context.Context, challenge *models.Challenge, entries ...models.LedgerEntry) error {
	return r.update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChallenges).Get(challenge.ID.Bytes()) == nil {
			return fmt.Errorf("challenge %s: %w", challenge.ID.Hex(), domain.ErrNotFound)
		}
		if err := putChallenge(tx, challenge); err != nil {
			return err
		}
		if err := tx.Bucket(bucketPending).Delete(challenge.ID.Bytes()); err != nil {
			return err
		}
		return appendEntries(tx, entries)
	})
}

// SavePending records the disbursement of a stored challenge
func (r *Repository) SavePending(ctx context.Context, pending *models.PendingCommit) error {
	id := pending.Challenge.ID
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending disbursement: %w", err)
	}
	return r.update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChallenges).Get(id.Bytes()) == nil {
			return fmt.Errorf("challenge %s: %w", id.Hex(), domain.ErrNotFound)
		}
		return tx.Bucket(bucketPending).Put(id.Bytes(), data)
	})
}

// GetPending loads the disbursement recorded for id
func (r *Repository) GetPending(ctx context.Context, id common.Hash) (*models.PendingCommit, error) {
	var pending models.PendingCommit
	err := r.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPending).Get(id.Bytes())
		if data == nil {
			return fmt.Errorf("pending disbursement %s: %w", id.Hex(), domain.ErrNotFound)
		}
		if err := json.Unmarshal(data, &pending); err != nil {
			return fmt.Errorf("failed to decode pending disbursement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// ListLedgerEntries returns journal entries in append order
func (r *Repository) ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter) ([]models.LedgerEntry, error) {
	var result []models.LedgerEntry
	err := r.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(_, v []byte) error {
			var e models.LedgerEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to decode ledger entry: %w", err)
			}
			if filter.Matches(e) {
				result = append(result, e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetCustody returns the custody totals
func (r *Repository) GetCustody(ctx context.Context) (*models.Custody, error) {
	var custody *models.Custody
	err := r.view(func(tx *bbolt.Tx) error {
		var err error
		custody, err = getCustody(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return custody, nil
}

// GetSettings returns the saved settings, or the seeded defaults
func (r *Repository) GetSettings(ctx context.Context) (models.LedgerSettings, error) {
	settings := r.defaults
	err := r.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySettings)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("failed to decode settings: %w", err)
		}
		return nil
	})
	return settings, err
}

// SaveSettings persists the settings
func (r *Repository) SaveSettings(ctx context.Context, settings models.LedgerSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return r.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySettings, data)
	})
}

func getChallenge(tx *bbolt.Tx, id common.Hash) (*models.Challenge, error) {
	data := tx.Bucket(bucketChallenges).Get(id.Bytes())
	if data == nil {
		return nil, fmt.Errorf("challenge %s: %w", id.Hex(), domain.ErrNotFound)
	}
	return decodeChallenge(data)
}

// decodeChallenge copies out of the mmap'd value by unmarshalling
func decodeChallenge(data []byte) (*models.Challenge, error) {
	var c models.Challenge
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode challenge: %w", err)
	}
	return &c, nil
}

func putChallenge(tx *bbolt.Tx, c *models.Challenge) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}
	return tx.Bucket(bucketChallenges).Put(c.ID.Bytes(), data)
}

func getCustody(tx *bbolt.Tx) (*models.Custody, error) {
	custody := models.NewCustody()
	data := tx.Bucket(bucketMeta).Get(keyCustody)
	if data == nil {
		return custody, nil
	}
	if err := json.Unmarshal(data, custody); err != nil {
		return nil, fmt.Errorf("failed to decode custody: %w", err)
	}
	return custody.Clone(), nil
}

func appendEntries(tx *bbolt.Tx, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	custody, err := getCustody(tx)
	if err != nil {
		return err
	}

	bucket := tx.Bucket(bucketEntries)
	for _, e := range entries {
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode ledger entry: %w", err)
		}
		if err := bucket.Put(seqKey(seq), data); err != nil {
			return err
		}
		custody.Apply(e)
	}

	data, err := json.Marshal(custody)
	if err != nil {
		return fmt.Errorf("failed to encode custody: %w", err)
	}
	return tx.Bucket(bucketMeta).Put(keyCustody, data)
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func indexKey(addr common.Address, id common.Hash) []byte {
	k := make([]byte, 0, common.AddressLength+common.HashLength)
	k = append(k, addr.Bytes()...)
	return append(k, id.Bytes()...)
}

// Ensure Repository implements the repository ports
var (
	_ usecase.ChallengeRepository = (*Repository)(nil)
	_ usecase.SettingsRepository  = (*Repository)(nil)
)
