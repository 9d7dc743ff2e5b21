package escrow

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// FailureReporter decides who may move an ACTIVE challenge into voting.
type FailureReporter interface {
	MayReport(c *models.Challenge, caller common.Address) bool
}

// OwnerReporter only lets the depositor self-report.
type OwnerReporter struct{}

func (OwnerReporter) MayReport(c *models.Challenge, caller common.Address) bool {
	return c.IsOwner(caller)
}

// Outcome describes what a transition did to a challenge.
type Outcome struct {
	From         models.State
	To           models.State
	Disbursement *Disbursement
}

// Transitioned reports whether the state changed.
func (o *Outcome) Transitioned() bool {
	return o.From != o.To
}

// Disbursement is the set of transfers and journal lines that resolve a challenge.
type Disbursement struct {
	// Ref is the idempotency reference for the outgoing transfer
	Ref     string
	Payouts []models.Payout
	Entries []models.LedgerEntry
	// Total is the full escrowed amount leaving the challenge
	Total *big.Int
}

// Machine applies transitions to challenge records.
type Machine struct {
	reporter FailureReporter
}

// Option configures a Machine
type Option func(*Machine)

// WithFailureReporter replaces the owner-only reporting policy.
func WithFailureReporter(r FailureReporter) Option {
	return func(m *Machine) {
		m.reporter = r
	}
}

// NewMachine creates a state machine with the owner-only reporting policy.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{reporter: OwnerReporter{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ReportFailure moves an ended ACTIVE challenge into voting.
func (m *Machine) ReportFailure(c *models.Challenge, caller common.Address, now time.Time) (*Outcome, error) {
	if c.State != models.StateActive {
		return nil, domain.NewStateError(c, models.StateActive)
	}
	if !m.reporter.MayReport(c, caller) {
		return nil, fmt.Errorf("%w: %s may not report failure", domain.ErrNotAuthorized, caller.Hex())
	}
	if !c.HasEnded(now) {
		return nil, fmt.Errorf("%w: ends at %s", domain.ErrChallengeNotEnded, c.EndTime.UTC().Format(time.RFC3339))
	}

	deadline := now.Add(VotingPeriod)
	c.State = models.StateFailedPendingVote
	c.VotingDeadline = &deadline
	c.UpdatedAt = now

	return &Outcome{From: models.StateActive, To: c.State}, nil
}

// CastVote records a guarantor's ballot and resolves voting early when the
// outcome can no longer change.
func (m *Machine) CastVote(c *models.Challenge, caller common.Address, approve bool, now time.Time, settings models.LedgerSettings) (*Outcome, error) {
	if c.State != models.StateFailedPendingVote {
		return nil, domain.NewStateError(c, models.StateFailedPendingVote)
	}
	if c.VotingDeadline != nil && now.After(*c.VotingDeadline) {
		return nil, fmt.Errorf("%w: closed at %s", domain.ErrVotingPeriodEnded, c.VotingDeadline.UTC().Format(time.RFC3339))
	}
	if !c.Voting.IsGuarantor(caller) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotGuarantor, caller.Hex())
	}
	if c.Voting.BallotOf(caller) != models.BallotUnset {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyVoted, caller.Hex())
	}

	if c.Voting.Ballots == nil {
		c.Voting.Ballots = make(map[common.Address]models.Ballot)
	}
	if approve {
		c.Voting.Ballots[caller] = models.BallotYes
		c.Voting.YesCount++
	} else {
		c.Voting.Ballots[caller] = models.BallotNo
		c.Voting.NoCount++
	}
	c.UpdatedAt = now

	v := &c.Voting
	switch {
	case MajorityReached(v.YesCount, v.RequiredVotes):
		return m.enterRemediation(c, now), nil
	case MajorityForeclosed(v.NoCount, len(v.Guarantors), v.RequiredVotes):
		return m.forfeit(c, now, settings), nil
	default:
		return &Outcome{From: c.State, To: c.State}, nil
	}
}

// FinalizeVoting resolves voting once its deadline has passed.
func (m *Machine) FinalizeVoting(c *models.Challenge, now time.Time, settings models.LedgerSettings) (*Outcome, error) {
	if c.State != models.StateFailedPendingVote {
		return nil, domain.NewStateError(c, models.StateFailedPendingVote)
	}
	if c.VotingDeadline == nil || !now.After(*c.VotingDeadline) {
		return nil, fmt.Errorf("%w: closes at %s", domain.ErrVotingPeriodActive, formatDeadline(c.VotingDeadline))
	}

	if MajorityReached(c.Voting.YesCount, c.Voting.RequiredVotes) {
		return m.enterRemediation(c, now), nil
	}
	return m.forfeit(c, now, settings), nil
}

// Complete releases the deposit to the owner minus the platform fee.
func (m *Machine) Complete(c *models.Challenge, caller common.Address, now time.Time, settings models.LedgerSettings) (*Outcome, error) {
	if c.State != models.StateActive && c.State != models.StateRemediationActive {
		return nil, domain.NewStateError(c, models.StateActive, models.StateRemediationActive)
	}
	if !c.Voting.IsGuarantor(caller) && !(c.IsOwner(caller) && c.HasEnded(now)) {
		return nil, fmt.Errorf("%w: %s may not complete this challenge", domain.ErrNotAuthorized, caller.Hex())
	}

	from := c.State
	fee := ComputeFee(c.Amount, settings)
	payout := new(big.Int).Sub(c.Amount, fee)
	ref := models.PayoutRef(c.ID)

	d := &Disbursement{
		Ref:   ref,
		Total: new(big.Int).Set(c.Amount),
		Payouts: []models.Payout{
			{To: c.Owner, Amount: payout},
		},
		Entries: []models.LedgerEntry{
			{Ref: ref, ChallengeID: c.ID, Kind: models.EntryPayout, Counterparty: c.Owner, Amount: new(big.Int).Set(payout), At: now},
		},
	}
	if fee.Sign() > 0 {
		d.Payouts = append(d.Payouts, models.Payout{To: settings.FeeRecipient, Amount: fee})
		d.Entries = append(d.Entries, models.LedgerEntry{
			Ref: ref + "#fee", ChallengeID: c.ID, Kind: models.EntryFee,
			Counterparty: settings.FeeRecipient, Amount: new(big.Int).Set(fee), At: now,
		})
	}

	c.State = models.StateCompleted
	c.UpdatedAt = now
	c.Resolution = &models.Resolution{
		State:      models.StateCompleted,
		Recipient:  c.Owner,
		Amount:     new(big.Int).Set(payout),
		Fee:        new(big.Int).Set(fee),
		ResolvedAt: now,
	}
	if fee.Sign() > 0 {
		c.Resolution.FeeRecipient = settings.FeeRecipient
	}

	return &Outcome{From: from, To: c.State, Disbursement: d}, nil
}

// FinalizeRemediation forfeits a challenge whose second chance has run out.
func (m *Machine) FinalizeRemediation(c *models.Challenge, now time.Time, settings models.LedgerSettings) (*Outcome, error) {
	if c.State != models.StateRemediationActive {
		return nil, domain.NewStateError(c, models.StateRemediationActive)
	}
	if c.RemediationDeadline == nil || !now.After(*c.RemediationDeadline) {
		return nil, fmt.Errorf("%w: closes at %s", domain.ErrRemediationPeriodActive, formatDeadline(c.RemediationDeadline))
	}
	return m.forfeit(c, now, settings), nil
}

// ComputeFee returns amount*feeBps/10000, or zero when no recipient is set.
func ComputeFee(amount *big.Int, settings models.LedgerSettings) *big.Int {
	if settings.FeeBps == 0 || !settings.HasFeeRecipient() {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, big.NewInt(int64(settings.FeeBps)))
	return fee.Quo(fee, big.NewInt(BpsDenominator))
}

// ValidateSettings enforces the fee cap.
func ValidateSettings(s models.LedgerSettings) error {
	if s.FeeBps > MaxFeeBps {
		return fmt.Errorf("%w: %d bps exceeds cap of %d", domain.ErrInvalidFee, s.FeeBps, MaxFeeBps)
	}
	return nil
}

func (m *Machine) enterRemediation(c *models.Challenge, now time.Time) *Outcome {
	from := c.State
	deadline := now.Add(RemediationPeriod)
	c.State = models.StateRemediationActive
	c.RemediationDeadline = &deadline
	c.UpdatedAt = now
	return &Outcome{From: from, To: c.State}
}

func (m *Machine) forfeit(c *models.Challenge, now time.Time, settings models.LedgerSettings) *Outcome {
	from := c.State
	ref := models.ForfeitRef(c.ID)
	retained := !settings.HasTreasury()

	d := &Disbursement{
		Ref:   ref,
		Total: new(big.Int).Set(c.Amount),
		Entries: []models.LedgerEntry{{
			Ref: ref, ChallengeID: c.ID, Kind: models.EntryForfeit,
			Counterparty: settings.Treasury, Amount: new(big.Int).Set(c.Amount),
			Retained: retained, At: now,
		}},
	}
	if !retained {
		d.Payouts = []models.Payout{{To: settings.Treasury, Amount: new(big.Int).Set(c.Amount)}}
	}

	c.State = models.StateFailedFinal
	c.UpdatedAt = now
	c.Resolution = &models.Resolution{
		State:      models.StateFailedFinal,
		Recipient:  settings.Treasury,
		Amount:     new(big.Int).Set(c.Amount),
		Fee:        new(big.Int),
		Retained:   retained,
		ResolvedAt: now,
	}

	return &Outcome{From: from, To: c.State, Disbursement: d}
}

func formatDeadline(t *time.Time) string {
	if t == nil {
		return "unset"
	}
	return t.UTC().Format(time.RFC3339)
}
