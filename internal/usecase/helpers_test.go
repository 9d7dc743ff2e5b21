package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/escrow"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	g1       = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	g2       = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	g3       = common.HexToAddress("0x00000000000000000000000000000000000000b3")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	treasury = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	feeTaker = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock is a settable Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memRepo is an in-memory ChallengeRepository with failure injection
type memRepo struct {
	mu         sync.Mutex
	challenges map[common.Hash]*models.Challenge
	entries    []models.LedgerEntry
	custody    *models.Custody
	pending    map[common.Hash]*models.PendingCommit
	commits    int

	insertErr error
	commitErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		challenges: make(map[common.Hash]*models.Challenge),
		custody:    models.NewCustody(),
		pending:    make(map[common.Hash]*models.PendingCommit),
	}
}

func (r *memRepo) GetChallenge(_ context.Context, id common.Hash) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return nil, fmt.Errorf("challenge %s: %w", id.Hex(), domain.ErrNotFound)
	}
	return c.Clone(), nil
}

func (r *memRepo) ListChallenges(_ context.Context, filter domain.ChallengeFilter) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Challenge
	for _, c := range r.challenges {
		if filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *memRepo) InsertChallenge(_ context.Context, c *models.Challenge, entries ...models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.challenges[c.ID]; ok {
		return domain.ErrDuplicateChallenge
	}
	r.challenges[c.ID] = c.Clone()
	r.append(entries)
	return nil
}

func (r *memRepo) CommitChallenge(_ context.Context, c *models.Challenge, entries ...models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	r.challenges[c.ID] = c.Clone()
	r.append(entries)
	delete(r.pending, c.ID)
	r.commits++
	return nil
}

func (r *memRepo) SavePending(_ context.Context, p *models.PendingCommit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[p.Challenge.ID] = p.Clone()
	return nil
}

func (r *memRepo) GetPending(_ context.Context, id common.Hash) (*models.PendingCommit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return nil, fmt.Errorf("pending %s: %w", id.Hex(), domain.ErrNotFound)
	}
	return p.Clone(), nil
}

func (r *memRepo) append(entries []models.LedgerEntry) {
	for _, e := range entries {
		r.entries = append(r.entries, e)
		r.custody.Apply(e)
	}
}

func (r *memRepo) ListLedgerEntries(_ context.Context, filter domain.LedgerEntryFilter) ([]models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range r.entries {
		if filter.ChallengeID != nil && e.ChallengeID != *filter.ChallengeID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memRepo) GetCustody(context.Context) (*models.Custody, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.custody.Clone(), nil
}

// memSettings is an in-memory SettingsRepository
type memSettings struct {
	mu sync.Mutex
	s  models.LedgerSettings
}

func (m *memSettings) GetSettings(context.Context) (models.LedgerSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *memSettings) SaveSettings(_ context.Context, s models.LedgerSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

// fakeToken keeps balances and treats repeated refs as no-ops
type fakeToken struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	custody  *big.Int
	refs     map[string]bool
	outCalls int
}

func newFakeToken() *fakeToken {
	return &fakeToken{
		balances: make(map[common.Address]*big.Int),
		custody:  new(big.Int),
		refs:     make(map[string]bool),
	}
}

func (f *fakeToken) TransferIn(_ context.Context, ref string, from common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refs[ref] {
		return nil
	}
	bal := f.balance(from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance: %s < %s", bal, amount)
	}
	bal.Sub(bal, amount)
	f.custody.Add(f.custody, amount)
	f.refs[ref] = true
	return nil
}

func (f *fakeToken) TransferOut(_ context.Context, ref string, payouts ...models.Payout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refs[ref] {
		return nil
	}
	f.outCalls++
	for _, p := range payouts {
		f.custody.Sub(f.custody, p.Amount)
		f.balance(p.To).Add(f.balance(p.To), p.Amount)
	}
	f.refs[ref] = true
	return nil
}

func (f *fakeToken) CustodyBalance(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.custody), nil
}

func (f *fakeToken) Balance(addr common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.balance(addr))
}

func (f *fakeToken) balance(addr common.Address) *big.Int {
	b, ok := f.balances[addr]
	if !ok {
		b = new(big.Int)
		f.balances[addr] = b
	}
	return b
}

func (f *fakeToken) fund(addr common.Address, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance(addr).Add(f.balance(addr), big.NewInt(amount))
}

// MockTokenTransfer is a mock implementation of TokenTransfer
type MockTokenTransfer struct {
	mock.Mock
}

func (m *MockTokenTransfer) TransferIn(ctx context.Context, ref string, from common.Address, amount *big.Int) error {
	args := m.Called(ctx, ref, from, amount)
	return args.Error(0)
}

func (m *MockTokenTransfer) TransferOut(ctx context.Context, ref string, payouts ...models.Payout) error {
	args := m.Called(ctx, ref, payouts)
	return args.Error(0)
}

// recordingMirror keeps every published event
type recordingMirror struct {
	mu     sync.Mutex
	events []usecase.MirrorEvent
	err    error
}

func (m *recordingMirror) Publish(_ context.Context, e usecase.MirrorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *recordingMirror) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

// countingMetrics records the calls it receives
type countingMetrics struct {
	mu           sync.Mutex
	transitions  []string
	failures     map[domain.ErrorClass]int
	mirrorFailed int
}

func (m *countingMetrics) Transition(from, to models.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, fmt.Sprintf("%s->%s", from, to))
}

func (m *countingMetrics) OperationFailed(_ string, class domain.ErrorClass) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[domain.ErrorClass]int)
	}
	m.failures[class]++
}

func (m *countingMetrics) Disbursed(models.EntryKind, *big.Int) {}

func (m *countingMetrics) MirrorFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mirrorFailed++
}

// harness wires a Ledger to in-memory collaborators
type harness struct {
	ledger   *usecase.Ledger
	repo     *memRepo
	settings *memSettings
	token    *fakeToken
	clock    *fakeClock
	mirror   *recordingMirror
	metrics  *countingMetrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:     newMemRepo(),
		settings: &memSettings{},
		token:    newFakeToken(),
		clock:    &fakeClock{now: epoch},
		mirror:   &recordingMirror{},
		metrics:  &countingMetrics{},
	}
	h.token.fund(owner, 1_000_000)
	h.ledger = h.newLedger(h.token)
	return h
}

func (h *harness) newLedger(transfer usecase.TokenTransfer) *usecase.Ledger {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return usecase.NewLedger(h.repo, h.settings, transfer, h.clock, h.mirror, h.metrics, escrow.NewMachine(), usecase.NopProcessLock{}, log)
}

func (h *harness) create(t *testing.T, amount int64, guarantors ...common.Address) *models.Challenge {
	t.Helper()
	res, err := h.ledger.Create(context.Background(), escrow.CreateParams{
		Owner:      owner,
		Guarantors: guarantors,
		Amount:     big.NewInt(amount),
		Duration:   30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return res.Challenge
}

func (h *harness) stored(t *testing.T, id common.Hash) *models.Challenge {
	t.Helper()
	c, err := h.repo.GetChallenge(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return c
}
