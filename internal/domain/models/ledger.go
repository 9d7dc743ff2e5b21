package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EntryKind classifies a movement of escrowed funds
type EntryKind string

const (
	EntryDeposit EntryKind = "DEPOSIT"
	EntryPayout  EntryKind = "PAYOUT"
	EntryFee     EntryKind = "FEE"
	EntryForfeit EntryKind = "FORFEIT"
	EntryRefund  EntryKind = "REFUND"
)

// Outgoing references are deterministic per challenge so a retried
// operation reuses the same reference with the token collaborator.
func PayoutRef(id common.Hash) string  { return "payout:" + id.Hex() }
func ForfeitRef(id common.Hash) string { return "forfeit:" + id.Hex() }

// Deposits are refunded when the record cannot be written, so each attempt
// carries its own reference.
func DepositRef(id common.Hash, attempt string) string {
	return "deposit:" + id.Hex() + ":" + attempt
}

func RefundRef(id common.Hash, attempt string) string {
	return "refund:" + id.Hex() + ":" + attempt
}

// Payout is one leg of an outgoing transfer
type Payout struct {
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

func (p Payout) String() string {
	return fmt.Sprintf("%s -> %s", p.Amount, p.To.Hex())
}

// LedgerEntry is an append-only journal line recorded with the challenge commit
type LedgerEntry struct {
	Ref          string         `json:"ref"`
	ChallengeID  common.Hash    `json:"challengeId"`
	Kind         EntryKind      `json:"kind"`
	Counterparty common.Address `json:"counterparty"`
	Amount       *big.Int       `json:"amount"`
	Retained     bool           `json:"retained,omitempty"`
	At           time.Time      `json:"at"`
}

// Custody holds running totals of funds moved through the ledger
type Custody struct {
	Received  *big.Int `json:"received"`
	Disbursed *big.Int `json:"disbursed"`
	Retained  *big.Int `json:"retained"` // forfeited with no treasury, still held
}

// NewCustody returns zeroed totals
func NewCustody() *Custody {
	return &Custody{
		Received:  new(big.Int),
		Disbursed: new(big.Int),
		Retained:  new(big.Int),
	}
}

// Held returns received minus disbursed
func (c *Custody) Held() *big.Int {
	return new(big.Int).Sub(c.Received, c.Disbursed)
}

// Apply folds one journal entry into the totals
func (c *Custody) Apply(e LedgerEntry) {
	c.normalize()
	switch e.Kind {
	case EntryDeposit:
		c.Received.Add(c.Received, e.Amount)
	case EntryForfeit:
		if e.Retained {
			c.Retained.Add(c.Retained, e.Amount)
			return
		}
		c.Disbursed.Add(c.Disbursed, e.Amount)
	default:
		c.Disbursed.Add(c.Disbursed, e.Amount)
	}
}

// Clone returns a deep copy
func (c *Custody) Clone() *Custody {
	c.normalize()
	return &Custody{
		Received:  new(big.Int).Set(c.Received),
		Disbursed: new(big.Int).Set(c.Disbursed),
		Retained:  new(big.Int).Set(c.Retained),
	}
}

func (c *Custody) normalize() {
	if c.Received == nil {
		c.Received = new(big.Int)
	}
	if c.Disbursed == nil {
		c.Disbursed = new(big.Int)
	}
	if c.Retained == nil {
		c.Retained = new(big.Int)
	}
}

// PendingCommit is a terminal transition whose payout has been handed to the
// token collaborator but whose challenge commit has not landed yet. A retry
// replays it verbatim instead of recomputing the split.
type PendingCommit struct {
	Op        string         `json:"op"`
	Caller    common.Address `json:"caller"`
	From      State          `json:"from"`
	Challenge *Challenge     `json:"challenge"`
	Ref       string         `json:"ref"`
	Payouts   []Payout       `json:"payouts"`
	Entries   []LedgerEntry  `json:"entries"`
	At        time.Time      `json:"at"`
}

// Clone returns a deep copy
func (p *PendingCommit) Clone() *PendingCommit {
	next := *p
	next.Challenge = p.Challenge.Clone()
	next.Payouts = make([]Payout, len(p.Payouts))
	for i, leg := range p.Payouts {
		next.Payouts[i] = Payout{To: leg.To, Amount: new(big.Int).Set(leg.Amount)}
	}
	next.Entries = make([]LedgerEntry, len(p.Entries))
	for i, e := range p.Entries {
		e.Amount = new(big.Int).Set(e.Amount)
		next.Entries[i] = e
	}
	return &next
}
