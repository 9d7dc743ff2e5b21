package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var (
		asYAML    bool
		noEntries bool
	)

	cmd := &cobra.Command{
		Use:   "show <challenge>",
		Short: "Show detailed challenge information",
		Long: `Show the state, deadlines, guarantor ballots and ledger entries of a
challenge.

You can specify the challenge using:
- Full id: "0x3f2a...c9"
- Unique id prefix: "0x3f2a" or "3f2a"
- Metadata reference: "ipfs://bafy..."`,
		Example: `  pledge show 0x3f2a
  pledge show 0x3f2a --yaml
  pledge show ipfs://bafy... --json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowChallenge.Run(cmd.Context(), usecase.ShowChallengeParams{
				Reference:   args[0],
				Interactive: interactive(app),
				WithEntries: !noEntries,
			})
			if err != nil {
				return fmt.Errorf("failed to resolve challenge: %w", err)
			}

			switch {
			case app.Config.JSON:
				return render.Encode(cmd.OutOrStdout(), render.FormatJSON, showOutput(result))
			case asYAML:
				return render.Encode(cmd.OutOrStdout(), render.FormatYAML, showOutput(result))
			}
			return render.NewChallengeRenderer(cmd.OutOrStdout(), app.Config.Project.Token).Render(result)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Output in YAML format")
	cmd.Flags().BoolVar(&noEntries, "no-entries", false, "Skip the ledger entries")

	return cmd
}

// showOutput is the machine-readable shape of challenge details
func showOutput(result *usecase.ChallengeDetails) map[string]interface{} {
	output := map[string]interface{}{
		"challenge": result.Challenge,
	}
	if result.Entries != nil {
		output["entries"] = result.Entries
	}
	return output
}
