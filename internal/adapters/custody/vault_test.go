package custody_test

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/pledge/internal/adapters/custody"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	treasury = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	feeTaker = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newVault(t *testing.T, dir string) *custody.Vault {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	v, err := custody.NewVault(dir, fixedClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}, log)
	require.NoError(t, err)
	return v
}

func balance(t *testing.T, v *custody.Vault, addr common.Address) string {
	t.Helper()
	bal, err := v.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return bal.String()
}

func held(t *testing.T, v *custody.Vault) string {
	t.Helper()
	bal, err := v.CustodyBalance(context.Background())
	require.NoError(t, err)
	return bal.String()
}

func TestVault(t *testing.T) {
	ctx := context.Background()

	t.Run("deposit and payout", func(t *testing.T) {
		v := newVault(t, t.TempDir())
		require.NoError(t, v.Fund(ctx, owner, big.NewInt(1000)))

		require.NoError(t, v.TransferIn(ctx, "deposit:1", owner, big.NewInt(600)))
		assert.Equal(t, "400", balance(t, v, owner))
		assert.Equal(t, "600", held(t, v))

		require.NoError(t, v.TransferOut(ctx, "payout:1",
			models.Payout{To: owner, Amount: big.NewInt(585)},
			models.Payout{To: feeTaker, Amount: big.NewInt(15)},
		))
		assert.Equal(t, "985", balance(t, v, owner))
		assert.Equal(t, "15", balance(t, v, feeTaker))
		assert.Equal(t, "0", held(t, v))
	})

	t.Run("repeated refs are no-ops", func(t *testing.T) {
		v := newVault(t, t.TempDir())
		require.NoError(t, v.Fund(ctx, owner, big.NewInt(1000)))

		require.NoError(t, v.TransferIn(ctx, "deposit:1", owner, big.NewInt(500)))
		require.NoError(t, v.TransferIn(ctx, "deposit:1", owner, big.NewInt(500)))
		assert.Equal(t, "500", held(t, v))

		require.NoError(t, v.TransferOut(ctx, "forfeit:1", models.Payout{To: treasury, Amount: big.NewInt(500)}))
		require.NoError(t, v.TransferOut(ctx, "forfeit:1", models.Payout{To: treasury, Amount: big.NewInt(500)}))
		assert.Equal(t, "500", balance(t, v, treasury))
	})

	t.Run("insufficient balance leaves state untouched", func(t *testing.T) {
		v := newVault(t, t.TempDir())
		require.NoError(t, v.Fund(ctx, owner, big.NewInt(10)))

		err := v.TransferIn(ctx, "deposit:1", owner, big.NewInt(11))
		assert.ErrorIs(t, err, custody.ErrInsufficientBalance)
		assert.Equal(t, "10", balance(t, v, owner))

		// A failed ref may be retried
		require.NoError(t, v.Fund(ctx, owner, big.NewInt(1)))
		require.NoError(t, v.TransferIn(ctx, "deposit:1", owner, big.NewInt(11)))
		assert.Equal(t, "11", held(t, v))
	})

	t.Run("payouts are all or nothing", func(t *testing.T) {
		v := newVault(t, t.TempDir())
		require.NoError(t, v.Fund(ctx, owner, big.NewInt(100)))
		require.NoError(t, v.TransferIn(ctx, "deposit:1", owner, big.NewInt(100)))

		err := v.TransferOut(ctx, "payout:1",
			models.Payout{To: owner, Amount: big.NewInt(90)},
			models.Payout{To: feeTaker, Amount: big.NewInt(20)},
		)
		assert.ErrorIs(t, err, custody.ErrInsufficientCustody)
		assert.Equal(t, "0", balance(t, v, owner))
		assert.Equal(t, "0", balance(t, v, feeTaker))
		assert.Equal(t, "100", held(t, v))
	})

	t.Run("state survives reopen", func(t *testing.T) {
		dir := t.TempDir()
		v := newVault(t, dir)
		require.NoError(t, v.Fund(ctx, owner, big.NewInt(70)))
		require.NoError(t, v.TransferIn(ctx, "deposit:1", owner, big.NewInt(20)))

		reopened := newVault(t, dir)
		assert.Equal(t, "50", balance(t, reopened, owner))
		assert.Equal(t, "20", held(t, reopened))

		// The processed ref is remembered across restarts
		require.NoError(t, reopened.TransferIn(ctx, "deposit:1", owner, big.NewInt(20)))
		assert.Equal(t, "50", balance(t, reopened, owner))
	})

	t.Run("two vaults on one directory share balances and refs", func(t *testing.T) {
		dir := t.TempDir()
		first := newVault(t, dir)
		second := newVault(t, dir)

		require.NoError(t, first.Fund(ctx, owner, big.NewInt(1000)))
		require.NoError(t, second.TransferIn(ctx, "deposit:1", owner, big.NewInt(300)))
		require.NoError(t, first.TransferIn(ctx, "deposit:2", owner, big.NewInt(200)))

		assert.Equal(t, "500", balance(t, first, owner))
		assert.Equal(t, "500", held(t, second))

		// A ref processed by one vault is a no-op for the other
		require.NoError(t, first.TransferOut(ctx, "payout:1", models.Payout{To: feeTaker, Amount: big.NewInt(300)}))
		require.NoError(t, second.TransferOut(ctx, "payout:1", models.Payout{To: feeTaker, Amount: big.NewInt(300)}))
		assert.Equal(t, "300", balance(t, second, feeTaker))

		reopened := newVault(t, dir)
		assert.Equal(t, "500", balance(t, reopened, owner))
		assert.Equal(t, "200", held(t, reopened))
	})

	t.Run("concurrent transfers from two vaults", func(t *testing.T) {
		dir := t.TempDir()
		first := newVault(t, dir)
		second := newVault(t, dir)
		require.NoError(t, first.Fund(ctx, owner, big.NewInt(100)))

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v := first
				if i%2 == 1 {
					v = second
				}
				errs[i] = v.TransferIn(ctx, fmt.Sprintf("deposit:%d", i), owner, big.NewInt(10))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		assert.Equal(t, "0", balance(t, first, owner))
		assert.Equal(t, "100", held(t, second))
	})

	t.Run("fund rejects non-positive amounts", func(t *testing.T) {
		v := newVault(t, t.TempDir())
		assert.Error(t, v.Fund(ctx, owner, big.NewInt(0)))
		assert.Equal(t, "0", balance(t, v, owner))
	})
}
