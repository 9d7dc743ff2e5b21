package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// TransitionRenderer reports the outcome of a mutating ledger operation
type TransitionRenderer struct {
	out   io.Writer
	token config.TokenConfig
	// Action is the past-tense verb shown when the state is unchanged, e.g. "Vote recorded"
	Action string
}

// NewTransitionRenderer creates a new transition renderer
func NewTransitionRenderer(out io.Writer, token config.TokenConfig, action string) *TransitionRenderer {
	return &TransitionRenderer{
		out:    out,
		token:  token,
		Action: action,
	}
}

// Render implements Renderer for transition results
func (r *TransitionRenderer) Render(result *usecase.TransitionResult) error {
	c := result.Challenge

	switch {
	case result.From == "":
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Challenge %s created", c.ID.Hex())))
		fmt.Fprintf(r.out, "   Escrowed %s from %s\n", amountStyle.Sprint(FormatAmount(c.Amount, r.token)), c.Owner.Hex())
		fmt.Fprintf(r.out, "   Ends %s, %d of %d guarantor approvals required on failure\n",
			formatTime(c.EndTime), c.Voting.RequiredVotes, len(c.Voting.Guarantors))
	case result.Transitioned():
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Challenge %s: %s → %s",
			shortID(c.ID), ColoredState(result.From), ColoredState(result.To))))
	default:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s on challenge %s (%s)",
			r.Action, shortID(c.ID), ColoredState(c.State))))
	}

	if c.State == models.StateFailedPendingVote && c.VotingDeadline != nil {
		fmt.Fprintf(r.out, "   Votes: %d yes / %d no of %d required, voting closes %s\n",
			c.Voting.YesCount, c.Voting.NoCount, c.Voting.RequiredVotes, formatTime(*c.VotingDeadline))
	}
	if c.State == models.StateRemediationActive && c.RemediationDeadline != nil {
		fmt.Fprintf(r.out, "   Remediation window closes %s\n", formatTime(*c.RemediationDeadline))
	}

	if d := result.Disbursement; d != nil {
		for _, e := range d.Entries {
			switch {
			case e.Retained:
				fmt.Fprintf(r.out, "   %s %s retained in custody\n", e.Kind, FormatAmount(e.Amount, r.token))
			default:
				fmt.Fprintf(r.out, "   %s %s → %s\n", e.Kind, FormatAmount(e.Amount, r.token), e.Counterparty.Hex())
			}
		}
	}
	return nil
}

var _ Renderer[*usecase.TransitionResult] = (*TransitionRenderer)(nil)
