package models

import (
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// State represents the lifecycle state of a challenge
type State string

const (
	StateActive            State = "ACTIVE"
	StateCompleted         State = "COMPLETED"
	StateFailedPendingVote State = "FAILED_PENDING_VOTE"
	StateRemediationActive State = "REMEDIATION_ACTIVE"
	StateFailedFinal       State = "FAILED_FINAL"
)

// AllStates lists every state in lifecycle order
func AllStates() []State {
	return []State{
		StateActive,
		StateFailedPendingVote,
		StateRemediationActive,
		StateCompleted,
		StateFailedFinal,
	}
}

// IsTerminal reports whether no transition leaves this state
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailedFinal
}

// IsValid reports whether s is a known state
func (s State) IsValid() bool {
	return slices.Contains(AllStates(), s)
}

// Ballot is a guarantor's vote on a failed challenge
type Ballot string

const (
	BallotUnset Ballot = ""
	BallotYes   Ballot = "YES"
	BallotNo    Ballot = "NO"
)

// Challenge represents one escrowed commitment
type Challenge struct {
	// Core identification
	ID          common.Hash    `json:"id"`
	Owner       common.Address `json:"owner"`
	Amount      *big.Int       `json:"amount"` // smallest unit of the escrowed asset
	MetadataRef string         `json:"metadataRef,omitempty"`

	// Lifecycle
	State               State      `json:"state"`
	CreatedAt           time.Time  `json:"createdAt"`
	EndTime             time.Time  `json:"endTime"`
	VotingDeadline      *time.Time `json:"votingDeadline,omitempty"`
	RemediationDeadline *time.Time `json:"remediationDeadline,omitempty"`

	// Path of Redemption voting
	Voting VotingRecord `json:"voting"`

	// Set once the challenge reaches a terminal state
	Resolution *Resolution `json:"resolution,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Resolution records how the escrowed amount left custody
type Resolution struct {
	State        State          `json:"state"`
	Recipient    common.Address `json:"recipient"` // owner or treasury, zero when retained
	Amount       *big.Int       `json:"amount"`
	Fee          *big.Int       `json:"fee"`
	FeeRecipient common.Address `json:"feeRecipient,omitempty"`
	Retained     bool           `json:"retained,omitempty"` // forfeited with no treasury configured
	ResolvedAt   time.Time      `json:"resolvedAt"`
}

// IsOwner reports whether addr deposited the challenge
func (c *Challenge) IsOwner(addr common.Address) bool {
	return c.Owner == addr
}

// HasEnded reports whether the end time has been reached
func (c *Challenge) HasEnded(now time.Time) bool {
	return !now.Before(c.EndTime)
}

// Clone returns a deep copy so callers can mutate it freely
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Amount = cloneInt(c.Amount)
	clone.VotingDeadline = cloneTime(c.VotingDeadline)
	clone.RemediationDeadline = cloneTime(c.RemediationDeadline)
	clone.Voting = *c.Voting.Clone()
	if c.Resolution != nil {
		res := *c.Resolution
		res.Amount = cloneInt(c.Resolution.Amount)
		res.Fee = cloneInt(c.Resolution.Fee)
		clone.Resolution = &res
	}
	return &clone
}

// VotingRecord tracks Path of Redemption ballots for one challenge
type VotingRecord struct {
	Guarantors    []common.Address          `json:"guarantors"`
	RequiredVotes int                       `json:"requiredVotes"`
	Ballots       map[common.Address]Ballot `json:"ballots"`
	YesCount      int                       `json:"yesCount"`
	NoCount       int                       `json:"noCount"`
}

// IsGuarantor reports whether addr may vote on this record
func (v *VotingRecord) IsGuarantor(addr common.Address) bool {
	return slices.Contains(v.Guarantors, addr)
}

// BallotOf returns the ballot cast by addr, BallotUnset if none
func (v *VotingRecord) BallotOf(addr common.Address) Ballot {
	if v.Ballots == nil {
		return BallotUnset
	}
	return v.Ballots[addr]
}

// Recount tallies ballots from scratch
func (v *VotingRecord) Recount() (yes, no int) {
	for _, b := range v.Ballots {
		switch b {
		case BallotYes:
			yes++
		case BallotNo:
			no++
		}
	}
	return yes, no
}

// Clone returns a deep copy of the record
func (v *VotingRecord) Clone() *VotingRecord {
	clone := *v
	clone.Guarantors = slices.Clone(v.Guarantors)
	clone.Ballots = make(map[common.Address]Ballot, len(v.Ballots))
	for k, b := range v.Ballots {
		clone.Ballots[k] = b
	}
	return &clone
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
