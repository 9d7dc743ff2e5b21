package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// ShowChallengeParams contains parameters for showing a challenge
type ShowChallengeParams struct {
	Reference   string
	Interactive bool
	// WithEntries also loads the challenge's journal lines
	WithEntries bool
}

// ChallengeDetails is a committed snapshot of one challenge
type ChallengeDetails struct {
	Challenge *models.Challenge
	Entries   []models.LedgerEntry
	// Now is the ledger clock reading the snapshot was taken at
	Now time.Time
}

// ShowChallenge is the use case for showing challenge details
type ShowChallenge struct {
	ledger   *Ledger
	resolver ChallengeResolver
}

// NewShowChallenge creates a new ShowChallenge use case
func NewShowChallenge(ledger *Ledger, resolver ChallengeResolver) *ShowChallenge {
	return &ShowChallenge{
		ledger:   ledger,
		resolver: resolver,
	}
}

// Run executes the show challenge use case
func (uc *ShowChallenge) Run(ctx context.Context, params ShowChallengeParams) (*ChallengeDetails, error) {
	challenge, err := uc.resolver.ResolveChallenge(ctx, domain.ChallengeQuery{
		Reference:   params.Reference,
		Interactive: params.Interactive,
	})
	if err != nil {
		return nil, err
	}

	details := &ChallengeDetails{
		Challenge: challenge,
		Now:       uc.ledger.Now(),
	}
	if params.WithEntries {
		id := challenge.ID
		details.Entries, err = uc.ledger.Entries(ctx, domain.LedgerEntryFilter{ChallengeID: &id})
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger entries: %w", err)
		}
	}
	return details, nil
}

// VotingRecord returns the voting record of one challenge
func (uc *ShowChallenge) VotingRecord(ctx context.Context, id common.Hash) (*models.VotingRecord, error) {
	challenge, err := uc.ledger.Challenge(ctx, id)
	if err != nil {
		return nil, err
	}
	return challenge.Voting.Clone(), nil
}

// BallotResult reports whether a guarantor has voted and how
type BallotResult struct {
	ChallengeID common.Hash
	Guarantor   common.Address
	IsGuarantor bool
	HasVoted    bool
	Ballot      models.Ballot
}

// GetBallot is the use case for looking up a single guarantor's ballot
type GetBallot struct {
	resolver ChallengeResolver
}

// NewGetBallot creates a new GetBallot use case
func NewGetBallot(resolver ChallengeResolver) *GetBallot {
	return &GetBallot{resolver: resolver}
}

// GetBallotParams contains parameters for a ballot lookup
type GetBallotParams struct {
	Reference string
	Guarantor common.Address
}

// Run executes the ballot lookup
func (uc *GetBallot) Run(ctx context.Context, params GetBallotParams) (*BallotResult, error) {
	challenge, err := uc.resolver.ResolveChallenge(ctx, domain.ChallengeQuery{Reference: params.Reference})
	if err != nil {
		return nil, err
	}
	ballot := challenge.Voting.BallotOf(params.Guarantor)
	return &BallotResult{
		ChallengeID: challenge.ID,
		Guarantor:   params.Guarantor,
		IsGuarantor: challenge.Voting.IsGuarantor(params.Guarantor),
		HasVoted:    ballot != models.BallotUnset,
		Ballot:      ballot,
	}, nil
}
