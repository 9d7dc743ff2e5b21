package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewVoteCmd creates the vote command
func NewVoteCmd() *cobra.Command {
	var approve, reject bool

	cmd := &cobra.Command{
		Use:   "vote <challenge>",
		Short: "Cast a guarantor ballot on a failed challenge",
		Long: `Cast the current identity's ballot on a Path of Redemption. Each
guarantor votes once, before the voting deadline.

A majority of approvals opens a 7 day remediation window. Once approval
can no longer be reached the deposit is forfeited immediately.

Without --approve or --reject the ballot is asked for interactively.`,
		Example: `  pledge vote 0x3f2a --approve
  pledge vote 0x3f2a --reject --as 0x2222222222222222222222222222222222222222`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve && reject {
				return usageErrorf("--approve and --reject are mutually exclusive")
			}

			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if err := requireCaller(app); err != nil {
				return err
			}

			params := usecase.CastVoteParams{
				Reference:   args[0],
				Caller:      app.Config.Caller,
				Interactive: interactive(app),
			}
			if approve || reject {
				params.Approve = &approve
			}

			result, err := app.CastVote.Execute(cmd.Context(), params)
			if err != nil {
				return err
			}
			return renderTransition(cmd, app, result, "Vote recorded")
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "Approve a Path of Redemption")
	cmd.Flags().BoolVar(&reject, "reject", false, "Reject a Path of Redemption")

	return cmd
}
