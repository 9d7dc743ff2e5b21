package custody

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/adapters/lock"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

const (
	// VaultFile is the vault document inside the data directory
	VaultFile = "vault.json"
	// VaultLockFile guards vault.json across processes
	VaultLockFile = "vault.lock"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientCustody = errors.New("insufficient custody")
)

// vaultState is the persisted token ledger
type vaultState struct {
	Balances  map[common.Address]*big.Int `json:"balances"`
	Custody   *big.Int                    `json:"custody"`
	Processed map[string]time.Time        `json:"processed"`
}

func (s vaultState) balance(addr common.Address) *big.Int {
	bal, ok := s.Balances[addr]
	if !ok {
		bal = new(big.Int)
		s.Balances[addr] = bal
	}
	return bal
}

// Vault is a file-backed token ledger for local and devnet use. Transfers are
// idempotent per ref. Every call re-reads vault.json under an advisory lock
// on vault.lock and writes with a single rename, so processes sharing a data
// directory see each other's transfers.
type Vault struct {
	path     string
	lockPath string
	clock    usecase.Clock
	log      *slog.Logger

	mu sync.Mutex
}

// NewVault opens (or creates) the vault under dataDir
func NewVault(dataDir string, clock usecase.Clock, log *slog.Logger) (*Vault, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v := &Vault{
		path:     filepath.Join(dataDir, VaultFile),
		lockPath: filepath.Join(dataDir, VaultLockFile),
		clock:    clock,
		log:      log.With("component", "vault"),
	}
	if err := v.view(context.Background(), func(vaultState) error { return nil }); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vault) load() (vaultState, error) {
	s := vaultState{
		Balances:  make(map[common.Address]*big.Int),
		Custody:   new(big.Int),
		Processed: make(map[string]time.Time),
	}
	data, err := os.ReadFile(v.path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return s, fmt.Errorf("failed to read vault: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse vault: %w", err)
	}
	if s.Balances == nil {
		s.Balances = make(map[common.Address]*big.Int)
	}
	if s.Custody == nil {
		s.Custody = new(big.Int)
	}
	if s.Processed == nil {
		s.Processed = make(map[string]time.Time)
	}
	return s, nil
}

// view runs fn against the current vault under a shared lock
func (v *Vault) view(ctx context.Context, fn func(vaultState) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return lock.With(ctx, v.lockPath, true, func() error {
		s, err := v.load()
		if err != nil {
			return err
		}
		return fn(s)
	})
}

// TransferIn moves amount from a participant into custody
func (v *Vault) TransferIn(ctx context.Context, ref string, from common.Address, amount *big.Int) error {
	return v.update(ctx, ref, func(s vaultState) error {
		bal := s.balance(from)
		if bal.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), bal, amount)
		}
		bal.Sub(bal, amount)
		s.Custody.Add(s.Custody, amount)
		return nil
	})
}

// TransferOut pays every leg out of custody, or none of them
func (v *Vault) TransferOut(ctx context.Context, ref string, payouts ...models.Payout) error {
	return v.update(ctx, ref, func(s vaultState) error {
		total := new(big.Int)
		for _, p := range payouts {
			total.Add(total, p.Amount)
		}
		if s.Custody.Cmp(total) < 0 {
			return fmt.Errorf("%w: holding %s, paying %s", ErrInsufficientCustody, s.Custody, total)
		}
		s.Custody.Sub(s.Custody, total)
		for _, p := range payouts {
			bal := s.balance(p.To)
			bal.Add(bal, p.Amount)
		}
		return nil
	})
}

// Fund credits an account out of thin air
func (v *Vault) Fund(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("fund amount must be positive, got %s", amount)
	}
	return v.update(ctx, "", func(s vaultState) error {
		bal := s.balance(to)
		bal.Add(bal, amount)
		return nil
	})
}

// BalanceOf returns an account balance
func (v *Vault) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal := new(big.Int)
	err := v.view(ctx, func(s vaultState) error {
		if held, ok := s.Balances[addr]; ok {
			bal.Set(held)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bal, nil
}

// CustodyBalance returns the amount the vault holds for the ledger
func (v *Vault) CustodyBalance(ctx context.Context) (*big.Int, error) {
	held := new(big.Int)
	err := v.view(ctx, func(s vaultState) error {
		held.Set(s.Custody)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return held, nil
}

// update applies change to the current vault under an exclusive lock and
// persists it. A ref that was already processed is a no-op; an empty ref is
// never recorded.
func (v *Vault) update(ctx context.Context, ref string, change func(vaultState) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return lock.With(ctx, v.lockPath, false, func() error {
		s, err := v.load()
		if err != nil {
			return err
		}
		if ref != "" {
			if at, done := s.Processed[ref]; done {
				v.log.Debug("transfer already processed", "ref", ref, "at", at)
				return nil
			}
		}

		if err := change(s); err != nil {
			return err
		}
		if ref != "" {
			s.Processed[ref] = v.clock.Now()
		}
		return v.save(s)
	})
}

func (v *Vault) save(s vaultState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	tmp := v.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := os.Rename(tmp, v.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	return nil
}

// Ensure Vault implements the token ports
var (
	_ usecase.TokenTransfer   = (*Vault)(nil)
	_ usecase.CustodyReporter = (*Vault)(nil)
	_ usecase.AccountFunder   = (*Vault)(nil)
)
