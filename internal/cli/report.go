package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/app"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <challenge>",
		Short: "Report an ended challenge as failed and open guarantor voting",
		Long: `Report a challenge as failed once its end time has passed. Only the
owner may report. Guarantors then have 24 hours to vote on a Path of
Redemption.

The challenge can be given as a full id, a unique id prefix or its
metadata reference.`,
		Example: `  pledge report 0x3f2a
  pledge report ipfs://bafy...`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if err := requireCaller(app); err != nil {
				return err
			}

			result, err := app.ReportFailure.Execute(cmd.Context(), usecase.ReportFailureParams{
				Reference:   args[0],
				Caller:      app.Config.Caller,
				Interactive: interactive(app),
			})
			if err != nil {
				return err
			}
			return renderTransition(cmd, app, result, "Failure reported")
		},
	}
}

// renderTransition prints a mutation result as JSON or text
func renderTransition(cmd *cobra.Command, app *app.App, result *usecase.TransitionResult, action string) error {
	if app.Config.JSON {
		return render.Encode(cmd.OutOrStdout(), render.FormatJSON, transitionOutput(result))
	}
	return render.NewTransitionRenderer(cmd.OutOrStdout(), app.Config.Project.Token, action).Render(result)
}

// transitionOutput is the JSON shape of a mutation result
func transitionOutput(result *usecase.TransitionResult) map[string]interface{} {
	output := map[string]interface{}{
		"challenge": result.Challenge,
		"from":      result.From,
		"to":        result.To,
	}
	if d := result.Disbursement; d != nil {
		output["entries"] = d.Entries
	}
	return output
}
