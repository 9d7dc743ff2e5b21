package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
)

// CastVote records a guarantor's ballot on a failed challenge
type CastVote struct {
	ledger   *Ledger
	resolver ChallengeResolver
	prompter BallotPrompter
}

// NewCastVote creates a new cast vote use case
func NewCastVote(ledger *Ledger, resolver ChallengeResolver, prompter BallotPrompter) *CastVote {
	return &CastVote{
		ledger:   ledger,
		resolver: resolver,
		prompter: prompter,
	}
}

// CastVoteParams contains parameters for voting
type CastVoteParams struct {
	Reference string
	Caller    common.Address
	// Approve is nil when the ballot should be asked for interactively
	Approve     *bool
	Interactive bool
}

// Execute casts the ballot and applies any resolution it triggers
func (uc *CastVote) Execute(ctx context.Context, params CastVoteParams) (*TransitionResult, error) {
	challenge, err := uc.resolver.ResolveChallenge(ctx, domain.ChallengeQuery{
		Reference:   params.Reference,
		Interactive: params.Interactive,
	})
	if err != nil {
		return nil, err
	}

	var approve bool
	switch {
	case params.Approve != nil:
		approve = *params.Approve
	case params.Interactive && uc.prompter != nil:
		approve, err = uc.prompter.PromptBallot(ctx, challenge)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("ballot required: pass --approve or --reject")
	}

	return uc.ledger.CastVote(ctx, challenge.ID, params.Caller, approve)
}
