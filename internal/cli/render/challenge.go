package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// ChallengeRenderer renders detailed information about a single challenge
type ChallengeRenderer struct {
	out   io.Writer
	token config.TokenConfig
}

// NewChallengeRenderer creates a new challenge renderer
func NewChallengeRenderer(out io.Writer, token config.TokenConfig) *ChallengeRenderer {
	return &ChallengeRenderer{
		out:   out,
		token: token,
	}
}

// Render implements Renderer for challenge details
func (r *ChallengeRenderer) Render(details *usecase.ChallengeDetails) error {
	c := details.Challenge

	// Header
	headerStyle.Fprintf(r.out, "Challenge: %s\n", c.ID.Hex())
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintln(r.out, "\nBasic Information:")
	fmt.Fprintf(r.out, "  State: %s\n", ColoredState(c.State))
	fmt.Fprintf(r.out, "  Owner: %s\n", c.Owner.Hex())
	fmt.Fprintf(r.out, "  Amount: %s\n", amountStyle.Sprint(FormatAmount(c.Amount, r.token)))
	if c.MetadataRef != "" {
		fmt.Fprintf(r.out, "  Metadata: %s\n", color.New(color.FgMagenta).Sprint(c.MetadataRef))
	}

	fmt.Fprintln(r.out, "\nTimeline:")
	fmt.Fprintf(r.out, "  Created: %s\n", formatTime(c.CreatedAt))
	r.renderDeadline("Ends", c.EndTime, c.State == models.StateActive, details.Now)
	if c.VotingDeadline != nil {
		r.renderDeadline("Voting closes", *c.VotingDeadline, c.State == models.StateFailedPendingVote, details.Now)
	}
	if c.RemediationDeadline != nil {
		r.renderDeadline("Remediation closes", *c.RemediationDeadline, c.State == models.StateRemediationActive, details.Now)
	}

	r.renderVoting(&c.Voting)

	if c.Resolution != nil {
		r.renderResolution(c.Resolution)
	}

	if len(details.Entries) > 0 {
		fmt.Fprintln(r.out, "\nLedger Entries:")
		for _, e := range details.Entries {
			line := fmt.Sprintf("  %-8s %s  %s", e.Kind, FormatAmount(e.Amount, r.token), formatAddress(e.Counterparty))
			if e.Retained {
				line += labelStyle.Sprint("  (retained)")
			}
			fmt.Fprintf(r.out, "%s  %s\n", line, timestampStyle.Sprint(formatTime(e.At)))
		}
	}

	fmt.Fprintf(r.out, "\n%s\n", timestampStyle.Sprintf("Updated: %s", formatTime(c.UpdatedAt)))
	return nil
}

// renderDeadline prints a deadline, with the time remaining while it still governs the state
func (r *ChallengeRenderer) renderDeadline(label string, at time.Time, pending bool, now time.Time) {
	if !pending || now.IsZero() {
		fmt.Fprintf(r.out, "  %s: %s\n", label, formatTime(at))
		return
	}
	fmt.Fprintf(r.out, "  %s: %s (%s)\n", label, formatTime(at), formatRemaining(at, now))
}

func (r *ChallengeRenderer) renderVoting(v *models.VotingRecord) {
	fmt.Fprintln(r.out, "\nPath of Redemption:")
	fmt.Fprintf(r.out, "  Required approvals: %d of %d\n", v.RequiredVotes, len(v.Guarantors))
	fmt.Fprintf(r.out, "  Tally: %s / %s\n",
		color.New(color.FgGreen).Sprintf("%d yes", v.YesCount),
		color.New(color.FgRed).Sprintf("%d no", v.NoCount))
	fmt.Fprintln(r.out, "  Guarantors:")
	for _, g := range v.Guarantors {
		fmt.Fprintf(r.out, "    %s  %s\n", g.Hex(), formatBallot(v.BallotOf(g)))
	}
}

func (r *ChallengeRenderer) renderResolution(res *models.Resolution) {
	sectionStyle.Fprintln(r.out, "\nResolution:")
	fmt.Fprintf(r.out, "  Outcome: %s\n", ColoredState(res.State))
	switch {
	case res.Retained:
		fmt.Fprintf(r.out, "  Forfeited: %s (retained in custody)\n", FormatAmount(res.Amount, r.token))
	case res.State == models.StateFailedFinal:
		fmt.Fprintf(r.out, "  Forfeited: %s to %s\n", FormatAmount(res.Amount, r.token), res.Recipient.Hex())
	default:
		fmt.Fprintf(r.out, "  Returned: %s to %s\n", FormatAmount(res.Amount, r.token), res.Recipient.Hex())
	}
	if res.Fee != nil && res.Fee.Sign() > 0 {
		fmt.Fprintf(r.out, "  Fee: %s to %s\n", FormatAmount(res.Fee, r.token), res.FeeRecipient.Hex())
	}
	fmt.Fprintf(r.out, "  Resolved: %s\n", formatTime(res.ResolvedAt))
}

// formatBallot renders a guarantor's ballot
func formatBallot(b models.Ballot) string {
	switch b {
	case models.BallotYes:
		return color.New(color.FgGreen).Sprint("✓ approved")
	case models.BallotNo:
		return color.New(color.FgRed).Sprint("✗ rejected")
	default:
		return labelStyle.Sprint("· pending")
	}
}

var _ Renderer[*usecase.ChallengeDetails] = (*ChallengeRenderer)(nil)
