package challenges_test

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/pledge/internal/adapters/repository/challenges"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	g1    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	g2    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newChallenge(id byte, owner common.Address, guarantors ...common.Address) *models.Challenge {
	return &models.Challenge{
		ID:        common.BytesToHash([]byte{id}),
		Owner:     owner,
		Amount:    big.NewInt(1000),
		State:     models.StateActive,
		CreatedAt: created,
		EndTime:   created.Add(30 * 24 * time.Hour),
		Voting: models.VotingRecord{
			Guarantors:    guarantors,
			RequiredVotes: len(guarantors)/2 + 1,
			Ballots:       map[common.Address]models.Ballot{},
		},
		UpdatedAt: created,
	}
}

func deposit(c *models.Challenge) models.LedgerEntry {
	return models.LedgerEntry{
		Ref:          models.DepositRef(c.ID, "attempt"),
		ChallengeID:  c.ID,
		Kind:         models.EntryDeposit,
		Counterparty: c.Owner,
		Amount:       new(big.Int).Set(c.Amount),
		At:           c.CreatedAt,
	}
}

func TestFileRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("insert and get challenge", func(t *testing.T) {
		repo, err := challenges.NewFileRepository(t.TempDir(), models.LedgerSettings{})
		require.NoError(t, err)

		c := newChallenge(1, alice, g1, g2)
		require.NoError(t, repo.InsertChallenge(ctx, c, deposit(c)))

		got, err := repo.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Owner, got.Owner)
		assert.Equal(t, "1000", got.Amount.String())
		assert.Equal(t, []common.Address{g1, g2}, got.Voting.Guarantors)

		// Returned values are copies
		got.Amount.SetInt64(1)
		again, err := repo.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "1000", again.Amount.String())
	})

	t.Run("duplicate insert", func(t *testing.T) {
		repo, err := challenges.NewFileRepository(t.TempDir(), models.LedgerSettings{})
		require.NoError(t, err)

		c := newChallenge(1, alice, g1)
		require.NoError(t, repo.InsertChallenge(ctx, c, deposit(c)))
		err = repo.InsertChallenge(ctx, c, deposit(c))
		assert.ErrorIs(t, err, domain.ErrDuplicateChallenge)

		entries, err := repo.ListLedgerEntries(ctx, domain.LedgerEntryFilter{})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("missing challenge", func(t *testing.T) {
		repo, err := challenges.NewFileRepository(t.TempDir(), models.LedgerSettings{})
		require.NoError(t, err)

		_, err = repo.GetChallenge(ctx, common.BytesToHash([]byte{9}))
		assert.ErrorIs(t, err, domain.ErrNotFound)

		err = repo.CommitChallenge(ctx, newChallenge(9, alice, g1))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("commit updates state, journal and custody", func(t *testing.T) {
		repo, err := challenges.NewFileRepository(t.TempDir(), models.LedgerSettings{})
		require.NoError(t, err)

		c := newChallenge(1, alice, g1)
		require.NoError(t, repo.InsertChallenge(ctx, c, deposit(c)))

		c.State = models.StateCompleted
		payout := models.LedgerEntry{
			Ref:          models.PayoutRef(c.ID),
			ChallengeID:  c.ID,
			Kind:         models.EntryPayout,
			Counterparty: alice,
			Amount:       big.NewInt(1000),
			At:           c.EndTime,
		}
		require.NoError(t, repo.CommitChallenge(ctx, c, payout))

		got, err := repo.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateCompleted, got.State)

		custody, err := repo.GetCustody(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1000", custody.Received.String())
		assert.Equal(t, "1000", custody.Disbursed.String())
		assert.Equal(t, "0", custody.Held().String())

		payouts, err := repo.ListLedgerEntries(ctx, domain.LedgerEntryFilter{Kind: models.EntryPayout})
		require.NoError(t, err)
		require.Len(t, payouts, 1)
		assert.Equal(t, models.PayoutRef(c.ID), payouts[0].Ref)
	})

	t.Run("state survives reopen", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		require.NoError(t, err)

		c := newChallenge(1, alice, g1, g2)
		c.Voting.Ballots[g1] = models.BallotYes
		require.NoError(t, repo.InsertChallenge(ctx, c, deposit(c)))

		reopened, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		require.NoError(t, err)

		got, err := reopened.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BallotYes, got.Voting.BallotOf(g1))
		assert.True(t, got.CreatedAt.Equal(created))

		custody, err := reopened.GetCustody(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1000", custody.Received.String())

		_, err = os.Stat(filepath.Join(dir, challenges.LedgerFile+".tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("list with filters", func(t *testing.T) {
		repo, err := challenges.NewFileRepository(t.TempDir(), models.LedgerSettings{})
		require.NoError(t, err)

		c1 := newChallenge(1, alice, g1)
		c2 := newChallenge(2, alice, g2)
		c3 := newChallenge(3, bob, g1, g2)
		c3.State = models.StateFailedFinal
		for _, c := range []*models.Challenge{c1, c2, c3} {
			require.NoError(t, repo.InsertChallenge(ctx, c, deposit(c)))
		}

		tests := []struct {
			name     string
			filter   domain.ChallengeFilter
			expected int
		}{
			{name: "all", filter: domain.ChallengeFilter{}, expected: 3},
			{name: "by owner", filter: domain.ChallengeFilter{Owner: &alice}, expected: 2},
			{name: "by guarantor", filter: domain.ChallengeFilter{Guarantor: &g2}, expected: 2},
			{name: "open only", filter: domain.ChallengeFilter{Open: true}, expected: 2},
			{name: "by state", filter: domain.ChallengeFilter{States: []models.State{models.StateFailedFinal}}, expected: 1},
			{name: "owner and guarantor", filter: domain.ChallengeFilter{Owner: &bob, Guarantor: &g1}, expected: 1},
			{name: "unknown owner", filter: domain.ChallengeFilter{Owner: &g1}, expected: 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.ListChallenges(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, got, tt.expected)
			})
		}
	})

	t.Run("settings default until saved", func(t *testing.T) {
		dir := t.TempDir()
		seed := models.LedgerSettings{FeeBps: 250, FeeRecipient: g1}
		repo, err := challenges.NewFileRepository(dir, seed)
		require.NoError(t, err)

		got, err := repo.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint16(250), got.FeeBps)

		require.NoError(t, repo.SaveSettings(ctx, models.LedgerSettings{FeeBps: 100, Treasury: bob}))

		// A reopened store ignores the seed once settings exist
		reopened, err := challenges.NewFileRepository(dir, seed)
		require.NoError(t, err)
		got, err = reopened.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint16(100), got.FeeBps)
		assert.Equal(t, bob, got.Treasury)
		assert.False(t, got.HasFeeRecipient())
	})

	t.Run("two stores on one directory keep each other's commits", func(t *testing.T) {
		dir := t.TempDir()
		first, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		require.NoError(t, err)
		second, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		require.NoError(t, err)

		c1 := newChallenge(1, alice, g1)
		c2 := newChallenge(2, bob, g2)
		require.NoError(t, first.InsertChallenge(ctx, c1, deposit(c1)))
		require.NoError(t, second.InsertChallenge(ctx, c2, deposit(c2)))

		// first opened before c2 existed and still sees it
		got, err := first.GetChallenge(ctx, c2.ID)
		require.NoError(t, err)
		assert.Equal(t, bob, got.Owner)

		c1.State = models.StateCompleted
		payout := models.LedgerEntry{
			Ref: models.PayoutRef(c1.ID), ChallengeID: c1.ID, Kind: models.EntryPayout,
			Counterparty: alice, Amount: big.NewInt(1000), At: c1.EndTime,
		}
		require.NoError(t, first.CommitChallenge(ctx, c1, payout))

		err = first.InsertChallenge(ctx, c2, deposit(c2))
		assert.ErrorIs(t, err, domain.ErrDuplicateChallenge)

		reopened, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		require.NoError(t, err)
		all, err := reopened.ListChallenges(ctx, domain.ChallengeFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		entries, err := reopened.ListLedgerEntries(ctx, domain.LedgerEntryFilter{})
		require.NoError(t, err)
		assert.Len(t, entries, 3)

		custody, err := reopened.GetCustody(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2000", custody.Received.String())
		assert.Equal(t, "1000", custody.Disbursed.String())
		assert.Equal(t, "1000", custody.Held().String())
	})

	t.Run("concurrent inserts from two stores", func(t *testing.T) {
		dir := t.TempDir()
		first, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		require.NoError(t, err)
		second, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 20)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				repo := first
				if i%2 == 1 {
					repo = second
				}
				c := newChallenge(byte(i+1), alice, g1)
				errs[i] = repo.InsertChallenge(ctx, c, deposit(c))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		all, err := first.ListChallenges(ctx, domain.ChallengeFilter{Owner: &alice})
		require.NoError(t, err)
		assert.Len(t, all, 20)
		custody, err := second.GetCustody(ctx)
		require.NoError(t, err)
		assert.Equal(t, "20000", custody.Received.String())
	})

	t.Run("settings saved by another store are read back", func(t *testing.T) {
		dir := t.TempDir()
		first, err := challenges.NewFileRepository(dir, models.LedgerSettings{FeeBps: 10})
		require.NoError(t, err)
		second, err := challenges.NewFileRepository(dir, models.LedgerSettings{FeeBps: 10})
		require.NoError(t, err)

		require.NoError(t, second.SaveSettings(ctx, models.LedgerSettings{FeeBps: 300, FeeRecipient: g2}))
		got, err := first.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint16(300), got.FeeBps)
		assert.Equal(t, g2, got.FeeRecipient)
	})

	t.Run("pending disbursement cleared by commit", func(t *testing.T) {
		repo, err := challenges.NewFileRepository(t.TempDir(), models.LedgerSettings{})
		require.NoError(t, err)

		c := newChallenge(1, alice, g1)
		_, err = repo.GetPending(ctx, c.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.SavePending(ctx, &models.PendingCommit{Challenge: c}), domain.ErrNotFound)

		require.NoError(t, repo.InsertChallenge(ctx, c, deposit(c)))
		next := c.Clone()
		next.State = models.StateCompleted
		payout := models.LedgerEntry{
			Ref: models.PayoutRef(c.ID), ChallengeID: c.ID, Kind: models.EntryPayout,
			Counterparty: alice, Amount: big.NewInt(1000), At: c.EndTime,
		}
		pending := &models.PendingCommit{
			Op:        "complete",
			Caller:    g1,
			From:      models.StateActive,
			Challenge: next,
			Ref:       models.PayoutRef(c.ID),
			Payouts:   []models.Payout{{To: alice, Amount: big.NewInt(1000)}},
			Entries:   []models.LedgerEntry{payout},
			At:        c.EndTime,
		}
		require.NoError(t, repo.SavePending(ctx, pending))

		got, err := repo.GetPending(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "complete", got.Op)
		assert.Equal(t, models.StateCompleted, got.Challenge.State)
		require.Len(t, got.Payouts, 1)
		assert.Equal(t, "1000", got.Payouts[0].Amount.String())

		// The stored challenge is untouched until the commit
		stored, err := repo.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateActive, stored.State)

		require.NoError(t, repo.CommitChallenge(ctx, got.Challenge, got.Entries...))
		_, err = repo.GetPending(ctx, c.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("corrupt ledger file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, challenges.LedgerFile), []byte("{not json"), 0644))

		_, err := challenges.NewFileRepository(dir, models.LedgerSettings{})
		assert.ErrorContains(t, err, "failed to parse ledger.json")
	})
}
