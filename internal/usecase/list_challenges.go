package usecase

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// ListChallengesParams contains parameters for listing challenges
type ListChallengesParams struct {
	Owner     *common.Address
	Guarantor *common.Address
	States    []models.State
	Open      bool
}

// ChallengeListResult contains the matching challenges and a summary
type ChallengeListResult struct {
	Challenges []*models.Challenge
	Summary    ChallengeSummary
	// Now is the ledger clock reading the list was taken at
	Now time.Time
}

// ChallengeSummary aggregates a challenge listing
type ChallengeSummary struct {
	Total   int
	ByState map[models.State]int
	// Escrowed sums the amounts of challenges that still hold funds
	Escrowed *big.Int
}

// ListChallenges is the use case for listing challenges
type ListChallenges struct {
	ledger *Ledger
	sink   ProgressSink
}

// NewListChallenges creates a new ListChallenges use case
func NewListChallenges(ledger *Ledger, sink ProgressSink) *ListChallenges {
	return &ListChallenges{
		ledger: ledger,
		sink:   sink,
	}
}

// Run executes the list challenges use case
func (uc *ListChallenges) Run(ctx context.Context, params ListChallengesParams) (*ChallengeListResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading challenges",
		Spinner: true,
	})

	challenges, err := uc.ledger.Challenges(ctx, domain.ChallengeFilter{
		Owner:     params.Owner,
		Guarantor: params.Guarantor,
		States:    params.States,
		Open:      params.Open,
	})
	if err != nil {
		return nil, err
	}

	sortChallenges(challenges)
	summary := summarizeChallenges(challenges)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(challenges),
		Total:   len(challenges),
		Message: "Challenges loaded",
	})

	return &ChallengeListResult{
		Challenges: challenges,
		Summary:    summary,
		Now:        uc.ledger.Now(),
	}, nil
}

// sortChallenges orders challenges by creation time, newest first, then id
func sortChallenges(challenges []*models.Challenge) {
	sort.Slice(challenges, func(i, j int) bool {
		a, b := challenges[i], challenges[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}

func summarizeChallenges(challenges []*models.Challenge) ChallengeSummary {
	summary := ChallengeSummary{
		Total:   len(challenges),
		ByState: make(map[models.State]int),
	}
	for _, c := range challenges {
		summary.ByState[c.State]++
	}
	summary.Escrowed = escrowedAmount(challenges)
	return summary
}
