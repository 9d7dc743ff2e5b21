package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// SweepDeadlines finalizes every challenge whose voting or remediation
// deadline has lapsed. Finalization is also applied lazily by callers, so a
// missed sweep never changes an outcome.
type SweepDeadlines struct {
	ledger   *Ledger
	progress ProgressSink
}

// NewSweepDeadlines creates a new sweep use case
func NewSweepDeadlines(ledger *Ledger, progress ProgressSink) *SweepDeadlines {
	return &SweepDeadlines{
		ledger:   ledger,
		progress: progress,
	}
}

// SweepDeadlinesParams contains parameters for a sweep
type SweepDeadlinesParams struct {
	Caller common.Address
}

// SweepFailure records a challenge the sweep could not finalize
type SweepFailure struct {
	ChallengeID common.Hash
	Err         error
}

// SweepResult summarizes one sweep pass
type SweepResult struct {
	Scanned   int
	Finalized []*TransitionResult
	// Skipped counts challenges that moved on before the sweep reached them
	Skipped  int
	Failures []SweepFailure
}

// Run executes one sweep pass
func (uc *SweepDeadlines) Run(ctx context.Context, params SweepDeadlinesParams) (*SweepResult, error) {
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "scanning",
		Message: "Scanning for lapsed deadlines",
		Spinner: true,
	})

	candidates, err := uc.ledger.Challenges(ctx, domain.ChallengeFilter{
		States: []models.State{models.StateFailedPendingVote, models.StateRemediationActive},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	sortChallenges(candidates)

	now := uc.ledger.Now()
	result := &SweepResult{Scanned: len(candidates)}
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var finalize func(context.Context, common.Hash, common.Address) (*TransitionResult, error)
		switch {
		case c.State == models.StateFailedPendingVote && lapsed(c.VotingDeadline, now):
			finalize = uc.ledger.FinalizeVoting
		case c.State == models.StateRemediationActive && lapsed(c.RemediationDeadline, now):
			finalize = uc.ledger.FinalizeRemediation
		default:
			continue
		}

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "finalizing",
			Current: i + 1,
			Total:   len(candidates),
			Message: fmt.Sprintf("Finalizing %s", c.ID.TerminalString()),
			Spinner: true,
		})

		tr, err := finalize(ctx, c.ID, params.Caller)
		switch {
		case err == nil:
			result.Finalized = append(result.Finalized, tr)
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    "finalized",
				Current:  i + 1,
				Total:    len(candidates),
				Message:  fmt.Sprintf("%s %s -> %s", c.ID.TerminalString(), tr.From, tr.To),
				Metadata: tr,
			})
		case errors.Is(err, domain.ErrInvalidState):
			result.Skipped++
		default:
			result.Failures = append(result.Failures, SweepFailure{ChallengeID: c.ID, Err: err})
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(candidates),
		Total:   len(candidates),
		Message: fmt.Sprintf("Finalized %d challenges", len(result.Finalized)),
	})
	return result, nil
}

func lapsed(deadline *time.Time, now time.Time) bool {
	return deadline != nil && now.After(*deadline)
}
