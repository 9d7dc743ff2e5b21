package cli

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewCreateCmd creates the create command
func NewCreateCmd() *cobra.Command {
	var (
		guarantors []string
		amount     string
		duration   string
		id         string
		metadata   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Escrow a deposit against a new challenge",
		Long: `Escrow a deposit against a new challenge owned by the current identity.

The amount is given in token units and converted with the token decimals
from pledge.toml. Guarantors vote on a Path of Redemption if the challenge
is reported as failed; a majority of them must approve.`,
		Example: `  # 100 USDC for 30 days with two guarantors
  pledge create --amount 100 --duration 30d \
    --guarantor 0x1111111111111111111111111111111111111111 \
    --guarantor 0x2222222222222222222222222222222222222222

  # Explicit id and a metadata reference
  pledge create --amount 25.5 --duration 2w --guarantor 0x1111...1111 \
    --id 0x00000000000000000000000000000000000000000000000000000000000000aa \
    --metadata ipfs://bafy...`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if err := requireCaller(app); err != nil {
				return err
			}

			guarantorAddrs, err := parseAddresses(guarantors)
			if err != nil {
				return err
			}
			units, err := parseUnits(amount, app.Config.Project.Token.Decimals)
			if err != nil {
				return err
			}
			d, err := parseDuration(duration)
			if err != nil {
				return err
			}
			var challengeID common.Hash
			if id != "" {
				if challengeID, err = parseChallengeID(id); err != nil {
					return err
				}
			}

			result, err := app.CreateChallenge.Execute(cmd.Context(), usecase.CreateChallengeParams{
				ID:          challengeID,
				Owner:       app.Config.Caller,
				Guarantors:  guarantorAddrs,
				Amount:      units,
				Duration:    d,
				MetadataRef: metadata,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.Encode(cmd.OutOrStdout(), render.FormatJSON, result.Challenge)
			}
			return render.NewTransitionRenderer(cmd.OutOrStdout(), app.Config.Project.Token, "Created").Render(result)
		},
	}

	cmd.Flags().StringSliceVarP(&guarantors, "guarantor", "g", nil, "Guarantor address, repeatable (required)")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Deposit in token units, e.g. 100 or 12.5 (required)")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "Challenge duration, e.g. 30d, 2w or 36h (required)")
	cmd.Flags().StringVar(&id, "id", "", "Explicit challenge id (derived from the request when omitted)")
	cmd.Flags().StringVar(&metadata, "metadata", "", "Opaque reference to off-ledger challenge details")

	return cmd
}
