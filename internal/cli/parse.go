package cli

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// parseUnits converts a token amount such as "12.5" into the smallest unit
// given the token's decimals. More fractional digits than decimals is an error.
func parseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("%w: %q is not a positive token amount", domain.ErrInvalidAmount, s)
	}
	if strings.HasSuffix(s, ".") {
		return nil, fmt.Errorf("%w: %q has a trailing decimal point", domain.ErrInvalidAmount, s)
	}
	// Exponent notation is accepted by the decimal parser but not by us
	if strings.ContainsAny(s, "eE") {
		return nil, fmt.Errorf("%w: %q is not a decimal number", domain.ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a decimal number", domain.ErrInvalidAmount, s)
	}
	units := d.Shift(int32(decimals))
	if !units.Equal(units.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", domain.ErrInvalidAmount, s, decimals)
	}
	return units.BigInt(), nil
}

// parseDuration accepts time.ParseDuration syntax plus whole days and weeks ("30d", "2w")
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if n, ok := strings.CutSuffix(s, suffix); ok {
			count, err := strconv.Atoi(n)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, s)
			}
			return time.Duration(count) * unit, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, s)
	}
	return d, nil
}

// parseAddresses parses every entry, failing on the first bad one
func parseAddresses(raw []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		addr, err := config.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// parseChallengeID parses an explicit 32-byte challenge id
func parseChallengeID(s string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, usageErrorf("invalid challenge id %q: expected 0x followed by 64 hex characters", s)
	}
	return common.BytesToHash(b), nil
}

// parseStates maps user input like "failed_pending_vote" or "active" to states
func parseStates(raw []string) ([]models.State, error) {
	states := make([]models.State, 0, len(raw))
	for _, s := range raw {
		state := models.State(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
		if !state.IsValid() {
			return nil, usageErrorf("unknown state %q (valid: active, failed_pending_vote, remediation_active, completed, failed_final)", s)
		}
		states = append(states, state)
	}
	return states, nil
}
