package usecase

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain/escrow"
)

// CreateChallenge escrows a deposit and opens a challenge
type CreateChallenge struct {
	ledger   *Ledger
	progress ProgressSink
}

// NewCreateChallenge creates a new create challenge use case
func NewCreateChallenge(ledger *Ledger, progress ProgressSink) *CreateChallenge {
	return &CreateChallenge{
		ledger:   ledger,
		progress: progress,
	}
}

// CreateChallengeParams contains parameters for opening a challenge
type CreateChallengeParams struct {
	// ID is optional; when zero a content-addressed id is derived
	ID          common.Hash
	Owner       common.Address
	Guarantors  []common.Address
	Amount      *big.Int
	Duration    time.Duration
	MetadataRef string
}

// Execute transfers the deposit in and records the challenge
func (uc *CreateChallenge) Execute(ctx context.Context, params CreateChallengeParams) (*TransitionResult, error) {
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "deposit",
		Message: fmt.Sprintf("Escrowing %s from %s", params.Amount, params.Owner.Hex()),
		Spinner: true,
	})

	result, err := uc.ledger.Create(ctx, escrow.CreateParams{
		ID:          params.ID,
		Owner:       params.Owner,
		Guarantors:  params.Guarantors,
		Amount:      params.Amount,
		Duration:    params.Duration,
		MetadataRef: params.MetadataRef,
	})
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: "Challenge created",
	})
	return result, nil
}
