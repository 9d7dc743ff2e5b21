package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// ChallengeFilter defines filtering options for challenges
type ChallengeFilter struct {
	Owner     *common.Address
	Guarantor *common.Address
	States    []models.State
	// Open restricts results to challenges that are not terminal
	Open bool
}

// Matches reports whether the challenge passes every set criterion
func (f ChallengeFilter) Matches(c *models.Challenge) bool {
	if f.Owner != nil && c.Owner != *f.Owner {
		return false
	}
	if f.Guarantor != nil && !c.Voting.IsGuarantor(*f.Guarantor) {
		return false
	}
	if f.Open && c.State.IsTerminal() {
		return false
	}
	if len(f.States) > 0 {
		for _, s := range f.States {
			if c.State == s {
				return true
			}
		}
		return false
	}
	return true
}

// LedgerEntryFilter defines filtering options for journal entries
type LedgerEntryFilter struct {
	ChallengeID *common.Hash
	Kind        models.EntryKind
}

// Matches reports whether the entry passes every set criterion
func (f LedgerEntryFilter) Matches(e models.LedgerEntry) bool {
	if f.ChallengeID != nil && e.ChallengeID != *f.ChallengeID {
		return false
	}
	return f.Kind == "" || e.Kind == f.Kind
}
