package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
)

// CompleteChallenge pays a successful challenge back to its owner
type CompleteChallenge struct {
	ledger   *Ledger
	resolver ChallengeResolver
	progress ProgressSink
}

// NewCompleteChallenge creates a new complete challenge use case
func NewCompleteChallenge(ledger *Ledger, resolver ChallengeResolver, progress ProgressSink) *CompleteChallenge {
	return &CompleteChallenge{
		ledger:   ledger,
		resolver: resolver,
		progress: progress,
	}
}

// CompleteChallengeParams contains parameters for completing a challenge
type CompleteChallengeParams struct {
	Reference   string
	Caller      common.Address
	Interactive bool
}

// Execute marks the challenge COMPLETED and disburses the deposit
func (uc *CompleteChallenge) Execute(ctx context.Context, params CompleteChallengeParams) (*TransitionResult, error) {
	challenge, err := uc.resolver.ResolveChallenge(ctx, domain.ChallengeQuery{
		Reference:   params.Reference,
		Interactive: params.Interactive,
	})
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "payout",
		Message: "Releasing deposit",
		Spinner: true,
	})
	result, err := uc.ledger.Complete(ctx, challenge.ID, params.Caller)
	if err != nil {
		return nil, err
	}
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: "Deposit released",
	})
	return result, nil
}
