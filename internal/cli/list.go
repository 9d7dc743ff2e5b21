package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		owner     string
		guarantor string
		states    []string
		open      bool
		mine      bool
		asYAML    bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List challenges",
		Long: `List challenges, newest first.

The list can be filtered by owner, guarantor and state. --open keeps
only challenges that still hold their deposit.`,
		Example: `  # Everything
  pledge list

  # Challenges waiting on my ballot
  pledge list --mine --state failed_pending_vote

  # Open challenges of one owner
  pledge list --owner 0x1111111111111111111111111111111111111111 --open`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ListChallengesParams{Open: open}
			if owner != "" {
				addr, err := config.ParseAddress(owner)
				if err != nil {
					return err
				}
				params.Owner = &addr
			}
			if guarantor != "" {
				addr, err := config.ParseAddress(guarantor)
				if err != nil {
					return err
				}
				params.Guarantor = &addr
			}
			if mine {
				if err := requireCaller(app); err != nil {
					return err
				}
				if params.Guarantor != nil {
					return usageErrorf("--mine and --guarantor are mutually exclusive")
				}
				caller := app.Config.Caller
				params.Guarantor = &caller
			}
			if params.States, err = parseStates(states); err != nil {
				return err
			}

			result, err := app.ListChallenges.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			switch {
			case app.Config.JSON:
				return render.Encode(cmd.OutOrStdout(), render.FormatJSON, result.Challenges)
			case asYAML:
				return render.Encode(cmd.OutOrStdout(), render.FormatYAML, result.Challenges)
			}
			return render.NewChallengesRenderer(cmd.OutOrStdout(), app.Config.Project.Token).Render(result)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner address")
	cmd.Flags().StringVar(&guarantor, "guarantor", "", "Filter by guarantor address")
	cmd.Flags().StringSliceVar(&states, "state", nil, "Filter by state (repeatable)")
	cmd.Flags().BoolVar(&open, "open", false, "Only challenges that still hold their deposit")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only challenges the current identity guarantees")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Output in YAML format")

	return cmd
}
