package cli

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewBallotCmd creates the ballot command
func NewBallotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ballot <challenge> [guarantor]",
		Short: "Show whether a guarantor has voted and how",
		Long: `Show the ballot a guarantor cast on a challenge. The guarantor defaults
to the current identity.`,
		Example: `  pledge ballot 0x3f2a
  pledge ballot 0x3f2a 0x2222222222222222222222222222222222222222`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var guarantor common.Address
			if len(args) == 2 {
				if guarantor, err = config.ParseAddress(args[1]); err != nil {
					return err
				}
			} else {
				if err := requireCaller(app); err != nil {
					return err
				}
				guarantor = app.Config.Caller
			}

			result, err := app.GetBallot.Run(cmd.Context(), usecase.GetBallotParams{
				Reference: args[0],
				Guarantor: guarantor,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.Encode(cmd.OutOrStdout(), render.FormatJSON, map[string]interface{}{
					"challengeId": result.ChallengeID,
					"guarantor":   result.Guarantor,
					"isGuarantor": result.IsGuarantor,
					"hasVoted":    result.HasVoted,
					"ballot":      result.Ballot,
				})
			}
			return render.NewBallotRenderer(cmd.OutOrStdout()).Render(result)
		},
	}
}
