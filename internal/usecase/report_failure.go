package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
)

// ReportFailure opens guarantor voting on an ended challenge
type ReportFailure struct {
	ledger   *Ledger
	resolver ChallengeResolver
}

// NewReportFailure creates a new report failure use case
func NewReportFailure(ledger *Ledger, resolver ChallengeResolver) *ReportFailure {
	return &ReportFailure{
		ledger:   ledger,
		resolver: resolver,
	}
}

// ReportFailureParams contains parameters for reporting a failure
type ReportFailureParams struct {
	Reference   string
	Caller      common.Address
	Interactive bool
}

// Execute moves the challenge to FAILED_PENDING_VOTE
func (uc *ReportFailure) Execute(ctx context.Context, params ReportFailureParams) (*TransitionResult, error) {
	challenge, err := uc.resolver.ResolveChallenge(ctx, domain.ChallengeQuery{
		Reference:   params.Reference,
		Interactive: params.Interactive,
	})
	if err != nil {
		return nil, err
	}
	return uc.ledger.ReportFailure(ctx, challenge.ID, params.Caller)
}
