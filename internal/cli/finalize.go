package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewFinalizeCmd creates the finalize command
func NewFinalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <voting|remediation> <challenge>",
		Short: "Apply a lapsed voting or remediation deadline",
		Long: `Finalize a challenge whose voting or remediation deadline has passed.
Anyone may finalize.

  voting        a majority of approvals opens remediation, otherwise the
                deposit is forfeited
  remediation   the remediation window expired and the deposit is forfeited`,
		Example: `  pledge finalize voting 0x3f2a
  pledge finalize remediation 0x3f2a`,
		Args:      exactArgs(2),
		ValidArgs: []string{string(usecase.PhaseVoting), string(usecase.PhaseRemediation)},
		RunE: func(cmd *cobra.Command, args []string) error {
			phase := usecase.FinalizePhase(args[0])
			if phase != usecase.PhaseVoting && phase != usecase.PhaseRemediation {
				return usageErrorf("unknown phase %q: expected voting or remediation", args[0])
			}

			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			// The caller is informational here, so a missing identity is fine
			result, err := app.Finalize.Execute(cmd.Context(), usecase.FinalizeParams{
				Reference:   args[1],
				Phase:       phase,
				Caller:      app.Config.Caller,
				Interactive: interactive(app),
			})
			if err != nil {
				return err
			}
			return renderTransition(cmd, app, result, "Finalized")
		},
	}
}
