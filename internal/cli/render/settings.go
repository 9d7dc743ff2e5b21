package render

import (
	"fmt"
	"io"
	"math/big"

	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// SettingsRenderer renders the ledger fee and treasury settings
type SettingsRenderer struct {
	out io.Writer
}

// NewSettingsRenderer creates a new settings renderer
func NewSettingsRenderer(out io.Writer) *SettingsRenderer {
	return &SettingsRenderer{out: out}
}

// Render implements Renderer for ledger settings
func (r *SettingsRenderer) Render(s models.LedgerSettings) error {
	fmt.Fprintln(r.out, "⚙️  Ledger settings:")
	fmt.Fprintf(r.out, "Fee:           %d bps (%s%%)\n", s.FeeBps, FormatUnits(big.NewInt(int64(s.FeeBps)), 2))
	fmt.Fprintf(r.out, "Fee recipient: %s\n", formatAddress(s.FeeRecipient))
	fmt.Fprintf(r.out, "Treasury:      %s\n", formatAddress(s.Treasury))

	if s.FeeBps > 0 && !s.HasFeeRecipient() {
		fmt.Fprintln(r.out, FormatWarning("No fee recipient: fees are not charged"))
	}
	if !s.HasTreasury() {
		fmt.Fprintln(r.out, FormatWarning("No treasury: forfeited deposits are retained in custody"))
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintln(r.out, timestampStyle.Sprintf("Updated: %s", formatTime(s.UpdatedAt)))
	}
	return nil
}

// FundRenderer renders the result of funding a local account
type FundRenderer struct {
	out   io.Writer
	token config.TokenConfig
}

// NewFundRenderer creates a new fund renderer
func NewFundRenderer(out io.Writer, token config.TokenConfig) *FundRenderer {
	return &FundRenderer{out: out, token: token}
}

// Render implements Renderer for fund results
func (r *FundRenderer) Render(result *usecase.FundAccountResult) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Credited %s to %s",
		FormatAmount(result.Credited, r.token), result.Address.Hex())))
	fmt.Fprintf(r.out, "   Balance: %s\n", amountStyle.Sprint(FormatAmount(result.Balance, r.token)))
	return nil
}

// BallotRenderer renders a guarantor's ballot on a challenge
type BallotRenderer struct {
	out io.Writer
}

// NewBallotRenderer creates a new ballot renderer
func NewBallotRenderer(out io.Writer) *BallotRenderer {
	return &BallotRenderer{out: out}
}

// Render implements Renderer for ballot lookups
func (r *BallotRenderer) Render(result *usecase.BallotResult) error {
	fmt.Fprintf(r.out, "Challenge: %s\n", idStyle.Sprint(result.ChallengeID.Hex()))
	fmt.Fprintf(r.out, "Guarantor: %s\n", result.Guarantor.Hex())
	switch {
	case !result.IsGuarantor:
		fmt.Fprintln(r.out, FormatWarning("Not a guarantor of this challenge"))
	case !result.HasVoted:
		fmt.Fprintf(r.out, "Ballot:    %s\n", formatBallot(models.BallotUnset))
	default:
		fmt.Fprintf(r.out, "Ballot:    %s\n", formatBallot(result.Ballot))
	}
	return nil
}

var (
	_ Renderer[models.LedgerSettings]      = (*SettingsRenderer)(nil)
	_ Renderer[*usecase.FundAccountResult] = (*FundRenderer)(nil)
	_ Renderer[*usecase.BallotResult]      = (*BallotRenderer)(nil)
)
