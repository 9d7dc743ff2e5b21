package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/escrow"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

const month = 30 * 24 * time.Hour

func TestLedgerScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("owner completes after end time without a report", func(t *testing.T) {
		h := newHarness(t)
		c := h.create(t, 100, g1, g2, g3)
		assert.Equal(t, models.StateActive, c.State)
		assert.Equal(t, epoch.Add(month), c.EndTime)
		assert.Equal(t, 2, c.Voting.RequiredVotes)

		h.clock.Advance(month)
		res, err := h.ledger.Complete(ctx, c.ID, owner)
		require.NoError(t, err)

		assert.Equal(t, models.StateCompleted, res.Challenge.State)
		assert.Equal(t, "100", res.Challenge.Resolution.Amount.String())
		assert.Equal(t, "0", res.Challenge.Resolution.Fee.String())
		assert.Equal(t, "1000000", h.token.Balance(owner).String())
		assert.Equal(t, models.StateCompleted, h.stored(t, c.ID).State)
	})

	t.Run("yes majority opens remediation and a guarantor completes", func(t *testing.T) {
		h := newHarness(t)
		c := h.create(t, 100, g1, g2, g3)

		h.clock.Advance(month)
		reportedAt := h.clock.Now()
		res, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, models.StateFailedPendingVote, res.To)
		require.NotNil(t, res.Challenge.VotingDeadline)
		assert.Equal(t, reportedAt.Add(24*time.Hour), *res.Challenge.VotingDeadline)

		res, err = h.ledger.CastVote(ctx, c.ID, g1, true)
		require.NoError(t, err)
		assert.False(t, res.Transitioned())

		h.clock.Advance(time.Hour)
		votedAt := h.clock.Now()
		res, err = h.ledger.CastVote(ctx, c.ID, g2, true)
		require.NoError(t, err)
		assert.Equal(t, models.StateRemediationActive, res.To)
		require.NotNil(t, res.Challenge.RemediationDeadline)
		assert.Equal(t, votedAt.Add(7*24*time.Hour), *res.Challenge.RemediationDeadline)

		res, err = h.ledger.Complete(ctx, c.ID, g1)
		require.NoError(t, err)
		assert.Equal(t, models.StateCompleted, res.To)
		assert.Equal(t, "1000000", h.token.Balance(owner).String())
		assert.Equal(t, "0", h.token.Balance(treasury).String())
	})

	t.Run("no majority forfeits to treasury", func(t *testing.T) {
		h := newHarness(t)
		h.settings.s.Treasury = treasury
		c := h.create(t, 100, g1, g2, g3)
		h.clock.Advance(month)
		_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.NoError(t, err)

		_, err = h.ledger.CastVote(ctx, c.ID, g1, true)
		require.NoError(t, err)

		res, err := h.ledger.CastVote(ctx, c.ID, g2, false)
		require.NoError(t, err)
		assert.Equal(t, models.StateFailedPendingVote, res.To, "one no vote leaves a yes majority reachable")

		res, err = h.ledger.CastVote(ctx, c.ID, g3, false)
		require.NoError(t, err)
		assert.Equal(t, models.StateFailedFinal, res.To)
		assert.Equal(t, "100", h.token.Balance(treasury).String())
		assert.Equal(t, "999900", h.token.Balance(owner).String())
	})

	t.Run("three no votes of five end voting early", func(t *testing.T) {
		h := newHarness(t)
		h.settings.s.Treasury = treasury
		g4 := common.HexToAddress("0x00000000000000000000000000000000000000b4")
		g5 := common.HexToAddress("0x00000000000000000000000000000000000000b5")
		c := h.create(t, 100, g1, g2, g3, g4, g5)
		h.clock.Advance(month)
		_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.NoError(t, err)

		for _, g := range []common.Address{g1, g2, g3} {
			_, err = h.ledger.CastVote(ctx, c.ID, g, false)
			require.NoError(t, err)
		}
		assert.Equal(t, models.StateFailedFinal, h.stored(t, c.ID).State)

		_, err = h.ledger.CastVote(ctx, c.ID, g4, true)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, 3, h.stored(t, c.ID).Voting.NoCount)
	})

	t.Run("voting deadline without majority forfeits", func(t *testing.T) {
		h := newHarness(t)
		h.settings.s.Treasury = treasury
		c := h.create(t, 100, g1, g2, g3)
		h.clock.Advance(month)
		_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.NoError(t, err)
		_, err = h.ledger.CastVote(ctx, c.ID, g1, true)
		require.NoError(t, err)

		h.clock.Advance(24 * time.Hour)
		_, err = h.ledger.FinalizeVoting(ctx, c.ID, stranger)
		assert.ErrorIs(t, err, domain.ErrVotingPeriodActive)

		h.clock.Advance(time.Second)
		_, err = h.ledger.CastVote(ctx, c.ID, g2, true)
		assert.ErrorIs(t, err, domain.ErrVotingPeriodEnded)

		res, err := h.ledger.FinalizeVoting(ctx, c.ID, stranger)
		require.NoError(t, err)
		assert.Equal(t, models.StateFailedFinal, res.To)
		assert.Equal(t, "100", h.token.Balance(treasury).String())
	})

	t.Run("lapsed remediation forfeits", func(t *testing.T) {
		h := newHarness(t)
		h.settings.s.Treasury = treasury
		c := h.create(t, 100, g1)
		h.clock.Advance(month)
		_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.NoError(t, err)
		res, err := h.ledger.CastVote(ctx, c.ID, g1, true)
		require.NoError(t, err)
		require.Equal(t, models.StateRemediationActive, res.To)

		h.clock.Advance(7 * 24 * time.Hour)
		_, err = h.ledger.FinalizeRemediation(ctx, c.ID, stranger)
		assert.ErrorIs(t, err, domain.ErrRemediationPeriodActive)

		h.clock.Advance(time.Second)
		res, err = h.ledger.FinalizeRemediation(ctx, c.ID, stranger)
		require.NoError(t, err)
		assert.Equal(t, models.StateFailedFinal, res.To)
		assert.Equal(t, "100", h.token.Balance(treasury).String())
	})
}

func TestLedgerReportBoundary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100, g1)

	h.clock.Advance(month - time.Second)
	_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
	assert.ErrorIs(t, err, domain.ErrChallengeNotEnded)
	assert.Equal(t, domain.ClassTemporal, domain.Classify(err))

	_, err = h.ledger.ReportFailure(ctx, c.ID, g1)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	h.clock.Advance(time.Second)
	res, err := h.ledger.ReportFailure(ctx, c.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailedPendingVote, res.To)
}

func TestLedgerVoteRejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100, g1, g2, g3)

	_, err := h.ledger.CastVote(ctx, c.ID, g1, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	h.clock.Advance(month)
	_, err = h.ledger.ReportFailure(ctx, c.ID, owner)
	require.NoError(t, err)

	_, err = h.ledger.CastVote(ctx, c.ID, stranger, true)
	assert.ErrorIs(t, err, domain.ErrNotGuarantor)

	_, err = h.ledger.CastVote(ctx, c.ID, g1, false)
	require.NoError(t, err)
	_, err = h.ledger.CastVote(ctx, c.ID, g1, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	stored := h.stored(t, c.ID)
	assert.Equal(t, models.BallotNo, stored.Voting.BallotOf(g1))
	assert.Equal(t, 0, stored.Voting.YesCount)
	assert.Equal(t, 1, stored.Voting.NoCount)

	_, err = h.ledger.CastVote(ctx, common.HexToHash("0xdead"), g1, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerTerminalStatesAreFinal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100, g1, g2, g3)
	_, err := h.ledger.Complete(ctx, c.ID, g2)
	require.NoError(t, err)

	commits, outCalls := h.repo.commits, h.token.outCalls
	h.clock.Advance(365 * 24 * time.Hour)

	ops := map[string]func() error{
		"report": func() error { _, err := h.ledger.ReportFailure(ctx, c.ID, owner); return err },
		"vote":   func() error { _, err := h.ledger.CastVote(ctx, c.ID, g1, true); return err },
		"finalize voting": func() error {
			_, err := h.ledger.FinalizeVoting(ctx, c.ID, stranger)
			return err
		},
		"complete": func() error { _, err := h.ledger.Complete(ctx, c.ID, g1); return err },
		"finalize remediation": func() error {
			_, err := h.ledger.FinalizeRemediation(ctx, c.ID, stranger)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			var stateErr *domain.StateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, models.StateCompleted, stateErr.Actual)
		})
	}

	assert.Equal(t, commits, h.repo.commits)
	assert.Equal(t, outCalls, h.token.outCalls)
	assert.Equal(t, "1000000", h.token.Balance(owner).String())
}

func TestLedgerCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected guarantor sets create nothing", func(t *testing.T) {
		h := newHarness(t)
		eleven := make([]common.Address, 11)
		for i := range eleven {
			eleven[i] = common.BigToAddress(big.NewInt(int64(0x100 + i)))
		}
		for name, gs := range map[string][]common.Address{
			"owner":     {g1, owner},
			"duplicate": {g1, g1},
			"eleven":    eleven,
		} {
			_, err := h.ledger.Create(ctx, escrow.CreateParams{
				Owner: owner, Guarantors: gs, Amount: big.NewInt(100), Duration: month,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidGuarantors, name)
		}
		assert.Empty(t, h.repo.challenges)
		assert.Equal(t, "1000000", h.token.Balance(owner).String())
		assert.Equal(t, 3, h.metrics.failures[domain.ClassValidation])
	})

	t.Run("duplicate id", func(t *testing.T) {
		h := newHarness(t)
		id := common.HexToHash("0x01")
		params := escrow.CreateParams{ID: id, Owner: owner, Guarantors: []common.Address{g1}, Amount: big.NewInt(100), Duration: month}
		_, err := h.ledger.Create(ctx, params)
		require.NoError(t, err)

		_, err = h.ledger.Create(ctx, params)
		assert.ErrorIs(t, err, domain.ErrDuplicateChallenge)
		assert.Equal(t, "999900", h.token.Balance(owner).String())
	})

	t.Run("derived ids are unique", func(t *testing.T) {
		h := newHarness(t)
		a := h.create(t, 100, g1)
		b := h.create(t, 100, g1)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("ledgers sharing a store derive distinct ids", func(t *testing.T) {
		h := newHarness(t)
		other := h.newLedger(h.token)
		params := escrow.CreateParams{Owner: owner, Guarantors: []common.Address{g1}, Amount: big.NewInt(100), Duration: month}

		a, err := h.ledger.Create(ctx, params)
		require.NoError(t, err)
		b, err := other.Create(ctx, params)
		require.NoError(t, err)

		assert.NotEqual(t, a.Challenge.ID, b.Challenge.ID)
		assert.Equal(t, a.Challenge.CreatedAt, b.Challenge.CreatedAt)
		assert.Len(t, h.repo.challenges, 2)
		assert.Equal(t, "999800", h.token.Balance(owner).String())
	})

	t.Run("failed deposit creates nothing", func(t *testing.T) {
		h := newHarness(t)
		token := new(MockTokenTransfer)
		token.On("TransferIn", mock.Anything, mock.Anything, owner, mock.Anything).Return(errors.New("allowance too low"))
		ledger := h.newLedger(token)

		_, err := ledger.Create(ctx, escrow.CreateParams{
			Owner: owner, Guarantors: []common.Address{g1}, Amount: big.NewInt(100), Duration: month,
		})
		assert.ErrorIs(t, err, domain.ErrTransferFailed)
		assert.Contains(t, err.Error(), "allowance too low")
		assert.Empty(t, h.repo.challenges)
		assert.Empty(t, h.repo.entries)
		token.AssertExpectations(t)
	})

	t.Run("failed insert refunds the deposit", func(t *testing.T) {
		h := newHarness(t)
		h.repo.insertErr = errors.New("disk full")
		token := new(MockTokenTransfer)
		token.On("TransferIn", mock.Anything, mock.MatchedBy(func(ref string) bool {
			return strings.HasPrefix(ref, "deposit:")
		}), owner, mock.Anything).Return(nil)
		token.On("TransferOut", mock.Anything, mock.MatchedBy(func(ref string) bool {
			return strings.HasPrefix(ref, "refund:")
		}), []models.Payout{{To: owner, Amount: big.NewInt(100)}}).Return(nil)
		ledger := h.newLedger(token)

		_, err := ledger.Create(ctx, escrow.CreateParams{
			Owner: owner, Guarantors: []common.Address{g1}, Amount: big.NewInt(100), Duration: month,
		})
		assert.ErrorContains(t, err, "disk full")
		token.AssertExpectations(t)
	})
}

func TestLedgerTransferFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100, g1)

	token := new(MockTokenTransfer)
	token.On("TransferOut", mock.Anything, models.PayoutRef(c.ID), mock.Anything).Return(errors.New("paused"))
	ledger := h.newLedger(token)

	_, err := ledger.Complete(ctx, c.ID, g1)
	var transferErr *domain.TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, models.PayoutRef(c.ID), transferErr.Ref)
	assert.Equal(t, domain.ClassResource, domain.Classify(err))

	stored := h.stored(t, c.ID)
	assert.Equal(t, models.StateActive, stored.State)
	assert.Nil(t, stored.Resolution)
	assert.Len(t, h.repo.entries, 1)
	token.AssertExpectations(t)
}

func TestLedgerRetryAfterFailedCommitPaysOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100, g1)

	h.repo.commitErr = errors.New("write failed")
	_, err := h.ledger.Complete(ctx, c.ID, g1)
	require.Error(t, err)
	assert.Equal(t, models.StateActive, h.stored(t, c.ID).State)
	assert.Equal(t, 1, h.token.outCalls)

	// Settings change between the attempts
	_, err = h.ledger.UpdateSettings(ctx, func(s *models.LedgerSettings) {
		s.FeeBps = 1000
		s.FeeRecipient = feeTaker
	})
	require.NoError(t, err)

	h.repo.commitErr = nil
	res, err := h.ledger.Complete(ctx, c.ID, g1)
	require.NoError(t, err)

	assert.Equal(t, 1, h.token.outCalls)
	assert.Equal(t, "1000000", h.token.Balance(owner).String())
	assert.Equal(t, "0", h.token.Balance(feeTaker).String())
	assert.Equal(t, models.StateActive, res.From)
	assert.Equal(t, models.StateCompleted, res.To)

	stored := h.stored(t, c.ID)
	assert.Equal(t, models.StateCompleted, stored.State)
	require.NotNil(t, stored.Resolution)
	assert.Equal(t, "100", stored.Resolution.Amount.String())
	assert.Equal(t, "0", stored.Resolution.Fee.String())

	payouts, err := h.ledger.Entries(ctx, domain.LedgerEntryFilter{ChallengeID: &c.ID, Kind: models.EntryPayout})
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, "100", payouts[0].Amount.String())
	fees, err := h.ledger.Entries(ctx, domain.LedgerEntryFilter{ChallengeID: &c.ID, Kind: models.EntryFee})
	require.NoError(t, err)
	assert.Empty(t, fees)
	assert.Empty(t, h.repo.pending)

	custody, err := h.ledger.Custody(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.token.custody.String(), custody.Held().String())
	assert.Equal(t, []string{"challenge.create", "challenge.complete"}, h.mirror.Types())
}

func TestLedgerPendingDisbursementBlocksOtherOutcomes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100, g1, g2)

	h.repo.commitErr = errors.New("write failed")
	_, err := h.ledger.Complete(ctx, c.ID, g1)
	require.Error(t, err)
	h.repo.commitErr = nil

	// A different guarantor finishes the recorded payout and is told the
	// challenge is already resolved
	_, err = h.ledger.Complete(ctx, c.ID, g2)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	stored := h.stored(t, c.ID)
	assert.Equal(t, models.StateCompleted, stored.State)
	assert.Equal(t, 1, h.token.outCalls)
	assert.Equal(t, "1000000", h.token.Balance(owner).String())
	assert.Empty(t, h.repo.pending)
}

func TestLedgerConcurrentVotes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100, g1, g2, g3)
	h.clock.Advance(month)
	_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, g := range []common.Address{g1, g2, g3} {
		wg.Add(1)
		go func(i int, g common.Address) {
			defer wg.Done()
			_, errs[i] = h.ledger.CastVote(ctx, c.ID, g, true)
		}(i, g)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInvalidState):
			rejected++
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, rejected)

	stored := h.stored(t, c.ID)
	assert.Equal(t, models.StateRemediationActive, stored.State)
	yes, no := stored.Voting.Recount()
	assert.Equal(t, stored.Voting.YesCount, yes)
	assert.Equal(t, stored.Voting.NoCount, no)
	assert.Equal(t, 2, yes)
}

func TestLedgerCustody(t *testing.T) {
	ctx := context.Background()

	t.Run("forfeit without treasury is retained", func(t *testing.T) {
		h := newHarness(t)
		c := h.create(t, 100, g1)
		h.clock.Advance(month)
		_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.NoError(t, err)

		res, err := h.ledger.CastVote(ctx, c.ID, g1, false)
		require.NoError(t, err)
		assert.Equal(t, models.StateFailedFinal, res.To)
		assert.True(t, res.Challenge.Resolution.Retained)
		assert.Equal(t, 0, h.token.outCalls)

		custody, err := h.ledger.Custody(ctx)
		require.NoError(t, err)
		assert.Equal(t, "100", custody.Held().String())
		assert.Equal(t, "100", custody.Retained.String())
	})

	t.Run("shortfall blocks disbursement", func(t *testing.T) {
		h := newHarness(t)
		c := h.create(t, 100, g1)
		h.repo.custody.Disbursed = big.NewInt(50)

		_, err := h.ledger.Complete(ctx, c.ID, g1)
		assert.ErrorIs(t, err, domain.ErrCustodyShortfall)
		assert.Equal(t, models.StateActive, h.stored(t, c.ID).State)
		assert.Equal(t, 0, h.token.outCalls)
	})

	t.Run("retained forfeits are not spendable", func(t *testing.T) {
		h := newHarness(t)
		forfeited := h.create(t, 100, g1)
		c := h.create(t, 100, g1)
		h.clock.Advance(month)
		_, err := h.ledger.ReportFailure(ctx, forfeited.ID, owner)
		require.NoError(t, err)
		_, err = h.ledger.CastVote(ctx, forfeited.ID, g1, false)
		require.NoError(t, err)

		// Drop c's deposit from custody so only the retained funds remain
		h.repo.custody.Received = big.NewInt(100)
		_, err = h.ledger.Complete(ctx, c.ID, g1)
		assert.ErrorIs(t, err, domain.ErrCustodyShortfall)
	})
}

func TestLedgerFeeSplit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.create(t, 100_000, g1)

	_, err := h.ledger.UpdateSettings(ctx, func(s *models.LedgerSettings) {
		s.FeeBps = 250
		s.FeeRecipient = feeTaker
	})
	require.NoError(t, err)

	res, err := h.ledger.Complete(ctx, c.ID, g1)
	require.NoError(t, err)
	assert.Equal(t, "97500", res.Challenge.Resolution.Amount.String())
	assert.Equal(t, "2500", res.Challenge.Resolution.Fee.String())
	assert.Equal(t, "2500", h.token.Balance(feeTaker).String())
	assert.Equal(t, "997500", h.token.Balance(owner).String())

	kinds := make([]models.EntryKind, 0)
	for _, e := range h.repo.entries {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []models.EntryKind{models.EntryDeposit, models.EntryPayout, models.EntryFee}, kinds)

	_, err = h.ledger.UpdateSettings(ctx, func(s *models.LedgerSettings) { s.FeeBps = 1001 })
	assert.ErrorIs(t, err, domain.ErrInvalidFee)
	settings, err := h.ledger.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(250), settings.FeeBps)
}

func TestLedgerMirror(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes committed operations", func(t *testing.T) {
		h := newHarness(t)
		c := h.create(t, 100, g1)
		h.clock.Advance(month)
		_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.NoError(t, err)
		_, err = h.ledger.CastVote(ctx, c.ID, g1, true)
		require.NoError(t, err)

		assert.Equal(t, []string{"challenge.create", "challenge.report_failure", "challenge.cast_vote"}, h.mirror.Types())
		assert.Equal(t, []string{
			"->ACTIVE",
			"ACTIVE->FAILED_PENDING_VOTE",
			"FAILED_PENDING_VOTE->REMEDIATION_ACTIVE",
		}, h.metrics.transitions)
	})

	t.Run("publish failure does not fail the operation", func(t *testing.T) {
		h := newHarness(t)
		h.mirror.err = errors.New("nats: no servers available")
		c := h.create(t, 100, g1)
		_, err := h.ledger.Complete(ctx, c.ID, g1)
		require.NoError(t, err)
		assert.Equal(t, 2, h.metrics.mirrorFailed)
		assert.Equal(t, models.StateCompleted, h.stored(t, c.ID).State)
	})

	t.Run("rejected operations are not published", func(t *testing.T) {
		h := newHarness(t)
		c := h.create(t, 100, g1)
		_, err := h.ledger.ReportFailure(ctx, c.ID, owner)
		require.Error(t, err)
		assert.Equal(t, []string{"challenge.create"}, h.mirror.Types())
	})
}

var _ usecase.TokenTransfer = (*fakeToken)(nil)
var _ usecase.CustodyReporter = (*fakeToken)(nil)
