package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// ChallengeRepository handles persistence of challenges and their journal.
// CommitChallenge must store the challenge, append the entries and drop the
// challenge's pending commit atomically.
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, id common.Hash) (*models.Challenge, error)
	ListChallenges(ctx context.Context, filter domain.ChallengeFilter) ([]*models.Challenge, error)
	// InsertChallenge fails with domain.ErrDuplicateChallenge if the id exists
	InsertChallenge(ctx context.Context, challenge *models.Challenge, entries ...models.LedgerEntry) error
	CommitChallenge(ctx context.Context, challenge *models.Challenge, entries ...models.LedgerEntry) error
	ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter) ([]models.LedgerEntry, error)
	GetCustody(ctx context.Context) (*models.Custody, error)
	// SavePending records a disbursement before its transfer runs
	SavePending(ctx context.Context, pending *models.PendingCommit) error
	// GetPending fails with domain.ErrNotFound when nothing is pending for id
	GetPending(ctx context.Context, id common.Hash) (*models.PendingCommit, error)
}

// SettingsRepository persists the administrative ledger settings
type SettingsRepository interface {
	GetSettings(ctx context.Context) (models.LedgerSettings, error)
	SaveSettings(ctx context.Context, settings models.LedgerSettings) error
}

// TokenTransfer moves value between participants and ledger custody.
// Both calls are idempotent per ref: repeating a ref that already succeeded
// is a no-op. All payouts of one TransferOut call succeed or fail together.
type TokenTransfer interface {
	TransferIn(ctx context.Context, ref string, from common.Address, amount *big.Int) error
	TransferOut(ctx context.Context, ref string, payouts ...models.Payout) error
}

// ProcessLock serializes work on one key across processes sharing a data
// directory
type ProcessLock interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NopProcessLock never blocks; for single-process stores
type NopProcessLock struct{}

func (NopProcessLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// Clock is the source of "now" for every deadline comparison
type Clock interface {
	Now() time.Time
}

// MirrorEvent is published after every committed transition
type MirrorEvent struct {
	Type      string            `json:"type"`
	Challenge *models.Challenge `json:"challenge"`
	From      models.State      `json:"from,omitempty"`
	Caller    common.Address    `json:"caller"`
	At        time.Time         `json:"at"`
}

// Mirror duplicates committed ledger state into an off-chain store.
// It is never authoritative; publish failures do not fail operations.
type Mirror interface {
	Publish(ctx context.Context, event MirrorEvent) error
}

// MetricsRecorder observes engine activity
type MetricsRecorder interface {
	Transition(from, to models.State)
	OperationFailed(operation string, class domain.ErrorClass)
	Disbursed(kind models.EntryKind, amount *big.Int)
	MirrorFailed()
}

// NopMetrics discards all observations
type NopMetrics struct{}

func (NopMetrics) Transition(models.State, models.State)     {}
func (NopMetrics) OperationFailed(string, domain.ErrorClass) {}
func (NopMetrics) Disbursed(models.EntryKind, *big.Int)      {}
func (NopMetrics) MirrorFailed()                             {}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// ChallengeSelector handles interactive selection of challenges
type ChallengeSelector interface {
	SelectChallenge(ctx context.Context, challenges []*models.Challenge, prompt string) (*models.Challenge, error)
}

// BallotPrompter asks a guarantor for their ballot
type BallotPrompter interface {
	PromptBallot(ctx context.Context, challenge *models.Challenge) (approve bool, err error)
}

// ChallengeResolver resolves user references to challenges
type ChallengeResolver interface {
	ResolveChallenge(ctx context.Context, query domain.ChallengeQuery) (*models.Challenge, error)
}

// CustodyReporter is implemented by token collaborators that can report the
// balance they hold for the ledger
type CustodyReporter interface {
	CustodyBalance(ctx context.Context) (*big.Int, error)
}

// AccountFunder credits and reads participant balances on local token backends
type AccountFunder interface {
	Fund(ctx context.Context, to common.Address, amount *big.Int) error
	BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error)
}

// LocalConfigStore persists the per-checkout settings in .pledge/config.local.json
type LocalConfigStore interface {
	Exists() bool
	Load(ctx context.Context) (*config.LocalConfig, error)
	Save(ctx context.Context, cfg *config.LocalConfig) error
	GetPath() string
}
