package challenges

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/adapters/lock"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

const (
	LedgerFile   = "ledger.json"
	SettingsFile = "settings.json"
	LockFile     = "ledger.lock"
)

// ledgerState is the on-disk document. Challenges, journal, custody totals
// and pending disbursements live in one file so a commit is a single rename.
type ledgerState struct {
	Challenges map[common.Hash]*models.Challenge     `json:"challenges"`
	Entries    []models.LedgerEntry                  `json:"entries"`
	Custody    *models.Custody                       `json:"custody"`
	Pending    map[common.Hash]*models.PendingCommit `json:"pending,omitempty"`
}

// view is one consistent read of the ledger document with its lookups
type view struct {
	ledgerState
	byOwner     map[common.Address][]common.Hash
	byGuarantor map[common.Address][]common.Hash
}

// FileRepository persists challenges and ledger settings as JSON files.
//
// Every call re-reads the files under an advisory lock on ledger.lock, shared
// for reads and exclusive for writes, so several processes can work on one
// data directory without overwriting each other's commits.
type FileRepository struct {
	rootDir  string
	defaults models.LedgerSettings

	// mu keeps goroutines of this process from polling the file lock
	mu sync.RWMutex
}

// NewFileRepository opens (or creates) the store under rootDir. defaults
// are returned by GetSettings until settings are saved for the first time.
func NewFileRepository(rootDir string, defaults models.LedgerSettings) (*FileRepository, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	r := &FileRepository{
		rootDir:  rootDir,
		defaults: defaults,
	}
	if err := r.read(context.Background(), func(*view) error { return nil }); err != nil {
		return nil, err
	}
	return r, nil
}

// locked runs fn under the store's file lock
func (r *FileRepository) locked(ctx context.Context, shared bool, fn func() error) error {
	if shared {
		r.mu.RLock()
		defer r.mu.RUnlock()
	} else {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return lock.With(ctx, filepath.Join(r.rootDir, LockFile), shared, fn)
}

// read runs fn against the current ledger under a shared lock
func (r *FileRepository) read(ctx context.Context, fn func(*view) error) error {
	return r.locked(ctx, true, func() error {
		state, err := r.loadLedger()
		if err != nil {
			return err
		}
		return fn(newView(state))
	})
}

// write runs change against the current ledger under an exclusive lock and
// replaces the file with the result. Nothing is written if change fails.
func (r *FileRepository) write(ctx context.Context, change func(*ledgerState) error) error {
	return r.locked(ctx, false, func() error {
		state, err := r.loadLedger()
		if err != nil {
			return err
		}
		if err := change(&state); err != nil {
			return err
		}
		return r.saveFile(LedgerFile, state)
	})
}

func (r *FileRepository) loadLedger() (ledgerState, error) {
	var state ledgerState
	if _, err := r.loadFile(LedgerFile, &state); err != nil {
		return state, err
	}
	if state.Challenges == nil {
		state.Challenges = make(map[common.Hash]*models.Challenge)
	}
	if state.Custody == nil {
		state.Custody = models.NewCustody()
	}
	if state.Pending == nil {
		state.Pending = make(map[common.Hash]*models.PendingCommit)
	}
	return state, nil
}

// loadFile decodes filename into v and reports whether the file exists
func (r *FileRepository) loadFile(filename string, v interface{}) (bool, error) {
	path := filepath.Join(r.rootDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return true, nil
}

func (r *FileRepository) saveFile(filename string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}

	path := filepath.Join(r.rootDir, filename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

func newView(state ledgerState) *view {
	v := &view{
		ledgerState: state,
		byOwner:     make(map[common.Address][]common.Hash),
		byGuarantor: make(map[common.Address][]common.Hash),
	}
	for id, c := range state.Challenges {
		v.byOwner[c.Owner] = append(v.byOwner[c.Owner], id)
		for _, g := range c.Voting.Guarantors {
			v.byGuarantor[g] = append(v.byGuarantor[g], id)
		}
	}
	return v
}

// candidates narrows the scan using the owner and guarantor lookups
func (v *view) candidates(filter domain.ChallengeFilter) []common.Hash {
	switch {
	case filter.Owner != nil:
		return v.byOwner[*filter.Owner]
	case filter.Guarantor != nil:
		return v.byGuarantor[*filter.Guarantor]
	}
	ids := make([]common.Hash, 0, len(v.Challenges))
	for id := range v.Challenges {
		ids = append(ids, id)
	}
	return ids
}

// GetChallenge returns the stored challenge
func (r *FileRepository) GetChallenge(ctx context.Context, id common.Hash) (*models.Challenge, error) {
	var found *models.Challenge
	err := r.read(ctx, func(v *view) error {
		c, ok := v.Challenges[id]
		if !ok {
			return fmt.Errorf("challenge %s: %w", id.Hex(), domain.ErrNotFound)
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListChallenges returns every challenge matching the filter
func (r *FileRepository) ListChallenges(ctx context.Context, filter domain.ChallengeFilter) ([]*models.Challenge, error) {
	var result []*models.Challenge
	err := r.read(ctx, func(v *view) error {
		candidates := v.candidates(filter)
		result = make([]*models.Challenge, 0, len(candidates))
		for _, id := range candidates {
			if c := v.Challenges[id]; filter.Matches(c) {
				result = append(result, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InsertChallenge stores a new challenge with its deposit entries
func (r *FileRepository) InsertChallenge(ctx context.Context, challenge *models.Challenge, entries ...models.LedgerEntry) error {
	return r.write(ctx, func(s *ledgerState) error {
		if _, exists := s.Challenges[challenge.ID]; exists {
			return fmt.Errorf("challenge %s: %w", challenge.ID.Hex(), domain.ErrDuplicateChallenge)
		}
		s.apply(challenge, entries)
		return nil
	})
}

// CommitChallenge replaces a challenge, appends its entries and drops its
// pending disbursement in one write
func (r *FileRepository) CommitChallenge(ctx context.Context, challenge *models.Challenge, entries ...models.LedgerEntry) error {
	return r.write(ctx, func(s *ledgerState) error {
		if _, exists := s.Challenges[challenge.ID]; !exists {
			return fmt.Errorf("challenge %s: %w", challenge.ID.Hex(), domain.ErrNotFound)
		}
		s.apply(challenge, entries)
		delete(s.Pending, challenge.ID)
		return nil
	})
}

func (s *ledgerState) apply(challenge *models.Challenge, entries []models.LedgerEntry) {
	s.Challenges[challenge.ID] = challenge.Clone()
	for _, e := range entries {
		e.Amount = new(big.Int).Set(e.Amount)
		s.Entries = append(s.Entries, e)
		s.Custody.Apply(e)
	}
}

// SavePending records the disbursement of a challenge that is stored
func (r *FileRepository) SavePending(ctx context.Context, pending *models.PendingCommit) error {
	id := pending.Challenge.ID
	return r.write(ctx, func(s *ledgerState) error {
		if _, exists := s.Challenges[id]; !exists {
			return fmt.Errorf("challenge %s: %w", id.Hex(), domain.ErrNotFound)
		}
		s.Pending[id] = pending.Clone()
		return nil
	})
}

// GetPending returns the disbursement recorded for id
func (r *FileRepository) GetPending(ctx context.Context, id common.Hash) (*models.PendingCommit, error) {
	var found *models.PendingCommit
	err := r.read(ctx, func(v *view) error {
		p, ok := v.Pending[id]
		if !ok {
			return fmt.Errorf("pending disbursement %s: %w", id.Hex(), domain.ErrNotFound)
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListLedgerEntries returns journal entries in append order
func (r *FileRepository) ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter) ([]models.LedgerEntry, error) {
	var result []models.LedgerEntry
	err := r.read(ctx, func(v *view) error {
		for _, e := range v.Entries {
			if filter.Matches(e) {
				result = append(result, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetCustody returns the custody totals
func (r *FileRepository) GetCustody(ctx context.Context) (*models.Custody, error) {
	var custody *models.Custody
	err := r.read(ctx, func(v *view) error {
		custody = v.Custody
		return nil
	})
	if err != nil {
		return nil, err
	}
	return custody, nil
}

// GetSettings returns the saved settings, or the seeded defaults
func (r *FileRepository) GetSettings(ctx context.Context) (models.LedgerSettings, error) {
	var saved models.LedgerSettings
	var found bool
	err := r.locked(ctx, true, func() error {
		var err error
		found, err = r.loadFile(SettingsFile, &saved)
		return err
	})
	if err != nil {
		return models.LedgerSettings{}, err
	}
	if !found {
		return r.defaults, nil
	}
	return saved, nil
}

// SaveSettings persists the settings
func (r *FileRepository) SaveSettings(ctx context.Context, settings models.LedgerSettings) error {
	return r.locked(ctx, false, func() error {
		return r.saveFile(SettingsFile, settings)
	})
}

// Ensure FileRepository implements the repository ports
var (
	_ usecase.ChallengeRepository = (*FileRepository)(nil)
	_ usecase.SettingsRepository  = (*FileRepository)(nil)
)
