package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectChallenge asks the user to pick one of several matching challenges
func (s *SelectorAdapter) SelectChallenge(ctx context.Context, challenges []*models.Challenge, prompt string) (*models.Challenge, error) {
	if s.config.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}

	if len(challenges) == 0 {
		return nil, fmt.Errorf("no challenges provided for selection")
	}
	if len(challenges) == 1 {
		return challenges[0], nil
	}

	options, search := formatChallengeOptions(challenges)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(search),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return challenges[index], nil
}

// PromptBallot asks a guarantor whether to grant the owner a remediation period
func (s *SelectorAdapter) PromptBallot(ctx context.Context, challenge *models.Challenge) (bool, error) {
	if s.config.NonInteractive {
		return false, fmt.Errorf("interactive ballot not available in non-interactive mode")
	}

	yes, no := challenge.Voting.Recount()
	label := fmt.Sprintf("Grant %s a remediation period for %s? (%d yes / %d no, %d required)",
		challenge.Owner.Hex(), challenge.ID.TerminalString(), yes, no, challenge.Voting.RequiredVotes)

	promptSelect := promptui.Select{
		Label: label,
		Items: []string{
			color.New(color.FgGreen).Sprint("Approve") + " - open the remediation period",
			color.New(color.FgRed).Sprint("Reject") + " - forfeit the escrow",
		},
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ . }}",
			Inactive: "  {{ . }}",
			Selected: "✓ {{ . }}",
		},
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return false, fmt.Errorf("ballot cancelled: %w", err)
	}
	return index == 0, nil
}

// formatChallengeOptions returns colored display strings and the plain text
// each one is searched by
func formatChallengeOptions(challenges []*models.Challenge) (options, search []string) {
	options = make([]string, len(challenges))
	search = make([]string, len(challenges))
	for i, c := range challenges {
		id := c.ID.Hex()
		short := id[:10]
		meta := c.MetadataRef
		if meta == "" {
			meta = "-"
		}

		options[i] = fmt.Sprintf("%s %s %s (%s)",
			color.New(color.FgWhite, color.Bold).Sprint(short),
			stateColor(c.State).Sprint(c.State),
			c.Amount,
			color.New(color.FgBlue).Sprint(meta),
		)
		search[i] = strings.Join([]string{id, string(c.State), meta}, " ")
	}
	return options, search
}

func stateColor(s models.State) *color.Color {
	switch s {
	case models.StateActive:
		return color.New(color.FgGreen)
	case models.StateFailedPendingVote, models.StateRemediationActive:
		return color.New(color.FgYellow)
	case models.StateFailedFinal:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interfaces
var (
	_ usecase.ChallengeSelector = (*SelectorAdapter)(nil)
	_ usecase.BallotPrompter    = (*SelectorAdapter)(nil)
)
