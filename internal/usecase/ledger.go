package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/escrow"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// Operation names used for metrics, logs and mirror event types
const (
	OpCreate              = "create"
	OpReportFailure       = "report_failure"
	OpCastVote            = "cast_vote"
	OpFinalizeVoting      = "finalize_voting"
	OpComplete            = "complete"
	OpFinalizeRemediation = "finalize_remediation"
)

// TransitionResult is returned by every mutating operation
type TransitionResult struct {
	Challenge    *models.Challenge
	From         models.State
	To           models.State
	Disbursement *escrow.Disbursement
}

// Transitioned reports whether the operation changed the challenge state
func (r *TransitionResult) Transitioned() bool {
	return r.From != r.To
}

// Ledger serializes operations per challenge and commits their effects.
//
// A mutation loads the challenge, applies the transition to a clone, records
// any disbursement as pending, moves funds under an idempotent reference,
// then commits the clone together with its journal entries. Anything that
// fails before the commit leaves the stored challenge untouched, and the next
// operation on that challenge finishes a recorded disbursement as computed.
type Ledger struct {
	repo     ChallengeRepository
	settings SettingsRepository
	transfer TokenTransfer
	clock    Clock
	mirror   Mirror
	metrics  MetricsRecorder
	machine  *escrow.Machine
	process  ProcessLock
	log      *slog.Logger

	locks *challengeLocks
	// custodyMu serializes the shortfall check with the commit that follows it
	custodyMu  sync.Mutex
	settingsMu sync.Mutex
}

// NewLedger creates the ledger engine
func NewLedger(
	repo ChallengeRepository,
	settings SettingsRepository,
	transfer TokenTransfer,
	clock Clock,
	mirror Mirror,
	metrics MetricsRecorder,
	machine *escrow.Machine,
	process ProcessLock,
	log *slog.Logger,
) *Ledger {
	return &Ledger{
		repo:     repo,
		settings: settings,
		transfer: transfer,
		clock:    clock,
		mirror:   mirror,
		metrics:  metrics,
		machine:  machine,
		process:  process,
		log:      log.With("component", "ledger"),
		locks:    newChallengeLocks(),
	}
}

// Now returns the ledger clock reading
func (l *Ledger) Now() time.Time {
	return l.clock.Now()
}

// Challenge returns a snapshot of one challenge
func (l *Ledger) Challenge(ctx context.Context, id common.Hash) (*models.Challenge, error) {
	unlock := l.locks.RLock(id)
	defer unlock()
	return l.repo.GetChallenge(ctx, id)
}

// Challenges returns snapshots of all challenges matching filter
func (l *Ledger) Challenges(ctx context.Context, filter domain.ChallengeFilter) ([]*models.Challenge, error) {
	return l.repo.ListChallenges(ctx, filter)
}

// Entries returns journal lines matching filter
func (l *Ledger) Entries(ctx context.Context, filter domain.LedgerEntryFilter) ([]models.LedgerEntry, error) {
	if filter.ChallengeID != nil {
		unlock := l.locks.RLock(*filter.ChallengeID)
		defer unlock()
	}
	return l.repo.ListLedgerEntries(ctx, filter)
}

// Custody returns the running custody totals
func (l *Ledger) Custody(ctx context.Context) (*models.Custody, error) {
	l.custodyMu.Lock()
	defer l.custodyMu.Unlock()
	return l.repo.GetCustody(ctx)
}

// snapshot reads challenges, journal and custody with no disbursement or
// deposit committing in between
func (l *Ledger) snapshot(ctx context.Context) ([]*models.Challenge, []models.LedgerEntry, *models.Custody, error) {
	l.custodyMu.Lock()
	defer l.custodyMu.Unlock()

	challenges, err := l.repo.ListChallenges(ctx, domain.ChallengeFilter{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	entries, err := l.repo.ListLedgerEntries(ctx, domain.LedgerEntryFilter{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	custody, err := l.repo.GetCustody(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load custody: %w", err)
	}
	return challenges, entries, custody, nil
}

// Settings returns the current ledger settings
func (l *Ledger) Settings(ctx context.Context) (models.LedgerSettings, error) {
	return l.settings.GetSettings(ctx)
}

// UpdateSettings applies change to the stored settings. Only payouts computed
// afterwards see the new values.
func (l *Ledger) UpdateSettings(ctx context.Context, change func(*models.LedgerSettings)) (models.LedgerSettings, error) {
	l.settingsMu.Lock()
	defer l.settingsMu.Unlock()

	settings, err := l.settings.GetSettings(ctx)
	if err != nil {
		return models.LedgerSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	change(&settings)
	if err := escrow.ValidateSettings(settings); err != nil {
		return models.LedgerSettings{}, err
	}
	settings.UpdatedAt = l.clock.Now()
	if err := l.settings.SaveSettings(ctx, settings); err != nil {
		return models.LedgerSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	l.log.Info("settings updated",
		"fee_bps", settings.FeeBps, "fee_recipient", settings.FeeRecipient.Hex(), "treasury", settings.Treasury.Hex())
	return settings, nil
}

type transitionFunc func(c *models.Challenge, now time.Time, settings models.LedgerSettings) (*escrow.Outcome, error)

// lock takes the challenge's exclusive lock in this process and then across
// processes sharing the store
func (l *Ledger) lock(ctx context.Context, id common.Hash) (func(), error) {
	unlock := l.locks.Lock(id)
	release, err := l.process.Lock(ctx, id.Hex())
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		release()
		unlock()
	}, nil
}

// mutate runs one transition under the challenge's exclusive lock
func (l *Ledger) mutate(ctx context.Context, op string, id common.Hash, caller common.Address, apply transitionFunc) (*TransitionResult, error) {
	unlock, err := l.lock(ctx, id)
	if err != nil {
		return nil, l.fail(op, id, err)
	}
	defer unlock()

	pending, resumed, err := l.resume(ctx, id)
	if err != nil {
		return nil, l.fail(op, id, err)
	}
	if pending != nil && pending.Op == op && pending.Caller == caller {
		return resumed, nil
	}

	current, err := l.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, l.fail(op, id, err)
	}
	settings, err := l.settings.GetSettings(ctx)
	if err != nil {
		return nil, l.fail(op, id, fmt.Errorf("failed to load settings: %w", err))
	}

	now := l.clock.Now()
	next := current.Clone()
	outcome, err := apply(next, now, settings)
	if err != nil {
		return nil, l.fail(op, id, err)
	}

	if err := l.commit(ctx, op, caller, now, next, outcome); err != nil {
		return nil, l.fail(op, id, err)
	}

	result := &TransitionResult{
		Challenge:    next,
		From:         outcome.From,
		To:           outcome.To,
		Disbursement: outcome.Disbursement,
	}
	l.committed(ctx, op, caller, now, result)
	return result, nil
}

// resume finishes a disbursement left pending by an earlier attempt. The
// recorded split is paid and committed whatever the settings say now.
func (l *Ledger) resume(ctx context.Context, id common.Hash) (*models.PendingCommit, *TransitionResult, error) {
	pending, err := l.repo.GetPending(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pending disbursement: %w", err)
	}
	l.log.Warn("resuming pending disbursement",
		"challenge", id.Hex(), "op", pending.Op, "ref", pending.Ref, "recorded_at", pending.At)

	d := &escrow.Disbursement{
		Ref:     pending.Ref,
		Payouts: pending.Payouts,
		Entries: pending.Entries,
		Total:   new(big.Int).Set(pending.Challenge.Amount),
	}
	l.custodyMu.Lock()
	err = l.settle(ctx, pending.Challenge, d)
	l.custodyMu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	result := &TransitionResult{
		Challenge:    pending.Challenge,
		From:         pending.From,
		To:           pending.Challenge.State,
		Disbursement: d,
	}
	l.committed(ctx, pending.Op, pending.Caller, pending.At, result)
	return pending, result, nil
}

// commit records the disbursement, if any, as pending, then settles it
func (l *Ledger) commit(ctx context.Context, op string, caller common.Address, now time.Time, c *models.Challenge, outcome *escrow.Outcome) error {
	d := outcome.Disbursement
	if d == nil {
		if err := l.repo.CommitChallenge(ctx, c); err != nil {
			return fmt.Errorf("failed to commit challenge: %w", err)
		}
		return nil
	}

	l.custodyMu.Lock()
	defer l.custodyMu.Unlock()

	if len(d.Payouts) > 0 {
		if err := l.checkCustody(ctx, d.Payouts); err != nil {
			return err
		}
		pending := &models.PendingCommit{
			Op:        op,
			Caller:    caller,
			From:      outcome.From,
			Challenge: c.Clone(),
			Ref:       d.Ref,
			Payouts:   d.Payouts,
			Entries:   d.Entries,
			At:        now,
		}
		if err := l.repo.SavePending(ctx, pending.Clone()); err != nil {
			return fmt.Errorf("failed to record pending disbursement: %w", err)
		}
	}
	return l.settle(ctx, c, d)
}

// settle pays d and commits c with its entries. The caller holds custodyMu.
func (l *Ledger) settle(ctx context.Context, c *models.Challenge, d *escrow.Disbursement) error {
	if len(d.Payouts) > 0 {
		if err := l.transfer.TransferOut(ctx, d.Ref, d.Payouts...); err != nil {
			return &domain.TransferError{Ref: d.Ref, Cause: err}
		}
	}

	if err := l.repo.CommitChallenge(ctx, c, d.Entries...); err != nil {
		// The pending record stays behind; the next operation on this
		// challenge replays it under the same ref.
		l.log.Error("commit failed after transfer",
			"challenge", c.ID.Hex(), "ref", d.Ref, "error", err)
		return fmt.Errorf("failed to commit challenge: %w", err)
	}

	for _, e := range d.Entries {
		l.metrics.Disbursed(e.Kind, e.Amount)
	}
	return nil
}

// checkCustody refuses a disbursement larger than the unretained balance
func (l *Ledger) checkCustody(ctx context.Context, payouts []models.Payout) error {
	custody, err := l.repo.GetCustody(ctx)
	if err != nil {
		return fmt.Errorf("failed to load custody: %w", err)
	}
	available := new(big.Int).Sub(custody.Held(), custody.Retained)
	total := new(big.Int)
	for _, p := range payouts {
		total.Add(total, p.Amount)
	}
	if total.Cmp(available) > 0 {
		return fmt.Errorf("%w: need %s, available %s", domain.ErrCustodyShortfall, total, available)
	}
	return nil
}

// Create escrows a new deposit and inserts the challenge
func (l *Ledger) Create(ctx context.Context, p escrow.CreateParams) (*TransitionResult, error) {
	now := l.clock.Now()
	if p.ID == (common.Hash{}) && p.Nonce == "" {
		p.Nonce = uuid.NewString()
	}
	c, err := escrow.NewChallenge(p, now)
	if err != nil {
		return nil, l.fail(OpCreate, p.ID, err)
	}

	unlock, err := l.lock(ctx, c.ID)
	if err != nil {
		return nil, l.fail(OpCreate, c.ID, err)
	}
	defer unlock()

	if _, err := l.repo.GetChallenge(ctx, c.ID); err == nil {
		return nil, l.fail(OpCreate, c.ID, fmt.Errorf("%w: %s", domain.ErrDuplicateChallenge, c.ID.Hex()))
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, l.fail(OpCreate, c.ID, err)
	}

	attempt := uuid.NewString()
	ref := models.DepositRef(c.ID, attempt)
	if err := l.transfer.TransferIn(ctx, ref, c.Owner, c.Amount); err != nil {
		return nil, l.fail(OpCreate, c.ID, &domain.TransferError{Ref: ref, Cause: err})
	}

	deposit := models.LedgerEntry{
		Ref:          ref,
		ChallengeID:  c.ID,
		Kind:         models.EntryDeposit,
		Counterparty: c.Owner,
		Amount:       new(big.Int).Set(c.Amount),
		At:           now,
	}
	l.custodyMu.Lock()
	err = l.repo.InsertChallenge(ctx, c, deposit)
	l.custodyMu.Unlock()
	if err != nil {
		l.refund(ctx, c, attempt)
		return nil, l.fail(OpCreate, c.ID, err)
	}

	result := &TransitionResult{Challenge: c, To: c.State}
	l.committed(ctx, OpCreate, c.Owner, now, result)
	return result, nil
}

// refund returns a deposit whose challenge could not be recorded
func (l *Ledger) refund(ctx context.Context, c *models.Challenge, attempt string) {
	ref := models.RefundRef(c.ID, attempt)
	payout := models.Payout{To: c.Owner, Amount: new(big.Int).Set(c.Amount)}
	if err := l.transfer.TransferOut(ctx, ref, payout); err != nil {
		l.log.Error("refund failed", "challenge", c.ID.Hex(), "ref", ref, "error", err)
		return
	}
	l.log.Warn("deposit refunded", "challenge", c.ID.Hex(), "ref", ref)
}

// ReportFailure moves an ended challenge into guarantor voting
func (l *Ledger) ReportFailure(ctx context.Context, id common.Hash, caller common.Address) (*TransitionResult, error) {
	return l.mutate(ctx, OpReportFailure, id, caller, func(c *models.Challenge, now time.Time, _ models.LedgerSettings) (*escrow.Outcome, error) {
		return l.machine.ReportFailure(c, caller, now)
	})
}

// CastVote records a guarantor ballot
func (l *Ledger) CastVote(ctx context.Context, id common.Hash, caller common.Address, approve bool) (*TransitionResult, error) {
	return l.mutate(ctx, OpCastVote, id, caller, func(c *models.Challenge, now time.Time, s models.LedgerSettings) (*escrow.Outcome, error) {
		return l.machine.CastVote(c, caller, approve, now, s)
	})
}

// FinalizeVoting resolves a vote whose deadline has passed
func (l *Ledger) FinalizeVoting(ctx context.Context, id common.Hash, caller common.Address) (*TransitionResult, error) {
	return l.mutate(ctx, OpFinalizeVoting, id, caller, func(c *models.Challenge, now time.Time, s models.LedgerSettings) (*escrow.Outcome, error) {
		return l.machine.FinalizeVoting(c, now, s)
	})
}

// Complete releases a successful challenge to its owner
func (l *Ledger) Complete(ctx context.Context, id common.Hash, caller common.Address) (*TransitionResult, error) {
	return l.mutate(ctx, OpComplete, id, caller, func(c *models.Challenge, now time.Time, s models.LedgerSettings) (*escrow.Outcome, error) {
		return l.machine.Complete(c, caller, now, s)
	})
}

// FinalizeRemediation forfeits a challenge whose remediation has lapsed
func (l *Ledger) FinalizeRemediation(ctx context.Context, id common.Hash, caller common.Address) (*TransitionResult, error) {
	return l.mutate(ctx, OpFinalizeRemediation, id, caller, func(c *models.Challenge, now time.Time, s models.LedgerSettings) (*escrow.Outcome, error) {
		return l.machine.FinalizeRemediation(c, now, s)
	})
}

// committed records a successful operation and mirrors it
func (l *Ledger) committed(ctx context.Context, op string, caller common.Address, now time.Time, r *TransitionResult) {
	if r.Transitioned() {
		l.metrics.Transition(r.From, r.To)
	}
	l.log.Info("operation committed",
		"op", op, "challenge", r.Challenge.ID.Hex(), "from", r.From, "to", r.To, "caller", caller.Hex())

	event := MirrorEvent{
		Type:      "challenge." + op,
		Challenge: r.Challenge.Clone(),
		From:      r.From,
		Caller:    caller,
		At:        now,
	}
	if err := l.mirror.Publish(ctx, event); err != nil {
		l.metrics.MirrorFailed()
		l.log.Warn("mirror publish failed", "op", op, "challenge", r.Challenge.ID.Hex(), "error", err)
	}
}

func (l *Ledger) fail(op string, id common.Hash, err error) error {
	l.metrics.OperationFailed(op, domain.Classify(err))
	l.log.Debug("operation rejected", "op", op, "challenge", id.Hex(), "error", err)
	return err
}
