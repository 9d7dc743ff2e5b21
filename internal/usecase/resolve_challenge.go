package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// ResolveChallenge turns a user-supplied reference into a challenge.
// References are full ids, unique hex prefixes of an id, or an exact
// metadata reference.
type ResolveChallenge struct {
	ledger   *Ledger
	selector ChallengeSelector
}

// NewResolveChallenge creates a new resolver use case
func NewResolveChallenge(ledger *Ledger, selector ChallengeSelector) *ResolveChallenge {
	return &ResolveChallenge{
		ledger:   ledger,
		selector: selector,
	}
}

// ResolveChallenge finds the single challenge a query points at
func (uc *ResolveChallenge) ResolveChallenge(ctx context.Context, query domain.ChallengeQuery) (*models.Challenge, error) {
	ref := strings.TrimSpace(query.Reference)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty challenge reference", domain.ErrNotFound)
	}

	if id, ok := parseFullID(ref); ok {
		return uc.ledger.Challenge(ctx, id)
	}

	all, err := uc.ledger.Challenges(ctx, domain.ChallengeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	prefix := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(ref, "0x"), "0X"))
	matches := lo.Filter(all, func(c *models.Challenge, _ int) bool {
		return c.MetadataRef == ref || strings.HasPrefix(strings.TrimPrefix(c.ID.Hex(), "0x"), prefix)
	})

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no challenge matches %q", domain.ErrNotFound, ref)
	case 1:
		// Re-read under the challenge lock so the caller gets a settled snapshot
		return uc.ledger.Challenge(ctx, matches[0].ID)
	}

	if query.Interactive && uc.selector != nil {
		picked, err := uc.selector.SelectChallenge(ctx, matches, fmt.Sprintf("Multiple challenges match %q", ref))
		if err != nil {
			return nil, err
		}
		return uc.ledger.Challenge(ctx, picked.ID)
	}
	return nil, domain.AmbiguousReferenceErr{Reference: ref, Matches: matches}
}

func parseFullID(ref string) (common.Hash, bool) {
	if len(ref) != 66 || !strings.HasPrefix(strings.ToLower(ref), "0x") {
		return common.Hash{}, false
	}
	b, err := hexutil.Decode("0x" + ref[2:])
	if err != nil {
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}
