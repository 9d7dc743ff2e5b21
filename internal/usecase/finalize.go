package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
)

// FinalizePhase names the deadline being finalized
type FinalizePhase string

const (
	PhaseVoting      FinalizePhase = "voting"
	PhaseRemediation FinalizePhase = "remediation"
)

// Finalize applies a lapsed voting or remediation deadline. Anyone may call it.
type Finalize struct {
	ledger   *Ledger
	resolver ChallengeResolver
}

// NewFinalize creates a new finalize use case
func NewFinalize(ledger *Ledger, resolver ChallengeResolver) *Finalize {
	return &Finalize{
		ledger:   ledger,
		resolver: resolver,
	}
}

// FinalizeParams contains parameters for finalizing a deadline
type FinalizeParams struct {
	Reference   string
	Phase       FinalizePhase
	Caller      common.Address
	Interactive bool
}

// Execute resolves the challenge past the given phase's deadline
func (uc *Finalize) Execute(ctx context.Context, params FinalizeParams) (*TransitionResult, error) {
	challenge, err := uc.resolver.ResolveChallenge(ctx, domain.ChallengeQuery{
		Reference:   params.Reference,
		Interactive: params.Interactive,
	})
	if err != nil {
		return nil, err
	}

	switch params.Phase {
	case PhaseVoting:
		return uc.ledger.FinalizeVoting(ctx, challenge.ID, params.Caller)
	case PhaseRemediation:
		return uc.ledger.FinalizeRemediation(ctx, challenge.ID, params.Caller)
	default:
		return nil, fmt.Errorf("unknown phase %q: expected voting or remediation", params.Phase)
	}
}
