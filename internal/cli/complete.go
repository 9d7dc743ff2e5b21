package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewCompleteCmd creates the complete command
func NewCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <challenge>",
		Short: "Mark a challenge completed and release the deposit",
		Long: `Mark an active challenge, or one in its remediation window, as
completed. A guarantor may complete at any time; the owner only once the
challenge has ended. The deposit minus the platform fee is returned to the
owner.`,
		Example: `  pledge complete 0x3f2a`,
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if err := requireCaller(app); err != nil {
				return err
			}

			result, err := app.CompleteChallenge.Execute(cmd.Context(), usecase.CompleteChallengeParams{
				Reference:   args[0],
				Caller:      app.Config.Caller,
				Interactive: interactive(app),
			})
			if err != nil {
				return err
			}
			return renderTransition(cmd, app, result, "Completed")
		},
	}
}
