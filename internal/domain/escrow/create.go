package escrow

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

const (
	VotingPeriod      = 24 * time.Hour
	RemediationPeriod = 7 * 24 * time.Hour

	MinGuarantors = 1
	MaxGuarantors = 10

	MaxFeeBps      = 1000
	BpsDenominator = 10000

	// Deposit bounds in the smallest unit of the escrowed asset.
	MinDepositUnits = 1
	MaxDepositUnits = 1_000_000_000_000
)

// MinDeposit returns the smallest accepted deposit.
func MinDeposit() *big.Int { return big.NewInt(MinDepositUnits) }

// MaxDeposit returns the largest accepted deposit.
func MaxDeposit() *big.Int { return big.NewInt(MaxDepositUnits) }

// CreateParams describes a new deposit
type CreateParams struct {
	// ID is optional; a zero hash derives a content-addressed id
	ID          common.Hash
	Owner       common.Address
	Guarantors  []common.Address
	Amount      *big.Int
	Duration    time.Duration
	MetadataRef string
	// Nonce salts the derived id. Callers sharing a store must not reuse one.
	Nonce string
}

// ValidateAmount checks a deposit against the bounds.
func ValidateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: amount must be a non-negative integer", domain.ErrInvalidAmount)
	}
	if amount.Cmp(MinDeposit()) < 0 || amount.Cmp(MaxDeposit()) > 0 {
		return fmt.Errorf("%w: %s outside [%d, %d]", domain.ErrInvalidAmount, amount, MinDepositUnits, MaxDepositUnits)
	}
	return nil
}

// ValidateGuarantors checks count, uniqueness and self-reference.
func ValidateGuarantors(owner common.Address, guarantors []common.Address) error {
	if n := len(guarantors); n < MinGuarantors || n > MaxGuarantors {
		return fmt.Errorf("%w: need between %d and %d guarantors, got %d",
			domain.ErrInvalidGuarantors, MinGuarantors, MaxGuarantors, n)
	}
	if lo.Contains(guarantors, common.Address{}) {
		return fmt.Errorf("%w: zero address", domain.ErrInvalidGuarantors)
	}
	if lo.Contains(guarantors, owner) {
		return fmt.Errorf("%w: owner %s cannot guarantee their own challenge", domain.ErrInvalidGuarantors, owner.Hex())
	}
	if dups := lo.FindDuplicates(guarantors); len(dups) > 0 {
		return fmt.Errorf("%w: duplicate guarantor %s", domain.ErrInvalidGuarantors, dups[0].Hex())
	}
	return nil
}

// DeriveID computes the content-addressed id of a deposit.
func DeriveID(owner common.Address, metadataRef string, createdAt time.Time, nonce string) common.Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAt.Unix()))
	return crypto.Keccak256Hash(owner.Bytes(), []byte(metadataRef), ts[:], []byte(nonce))
}

// NewChallenge validates p and builds an ACTIVE challenge with its voting record.
func NewChallenge(p CreateParams, now time.Time) (*models.Challenge, error) {
	if err := ValidateAmount(p.Amount); err != nil {
		return nil, err
	}
	if err := ValidateGuarantors(p.Owner, p.Guarantors); err != nil {
		return nil, err
	}
	if p.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDuration, p.Duration)
	}

	id := p.ID
	if id == (common.Hash{}) {
		id = DeriveID(p.Owner, p.MetadataRef, now, p.Nonce)
	}

	return &models.Challenge{
		ID:          id,
		Owner:       p.Owner,
		Amount:      new(big.Int).Set(p.Amount),
		MetadataRef: p.MetadataRef,
		State:       models.StateActive,
		CreatedAt:   now,
		EndTime:     now.Add(p.Duration),
		Voting: models.VotingRecord{
			Guarantors:    append([]common.Address(nil), p.Guarantors...),
			RequiredVotes: RequiredVotes(len(p.Guarantors)),
			Ballots:       make(map[common.Address]models.Ballot),
		},
		UpdatedAt: now,
	}, nil
}
