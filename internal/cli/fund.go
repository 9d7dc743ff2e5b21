package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewFundCmd creates the fund command
func NewFundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fund <address> <amount>",
		Short: "Credit a local vault account",
		Long: `Credit an account in the local token vault so it can escrow deposits.
The amount is given in token units. Only meaningful for the file-backed
vault used in development and testing.`,
		Example: `  pledge fund 0x1111111111111111111111111111111111111111 500`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			addr, err := config.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := parseUnits(args[1], app.Config.Project.Token.Decimals)
			if err != nil {
				return err
			}

			result, err := app.FundAccount.Execute(cmd.Context(), usecase.FundAccountParams{
				Address: addr,
				Amount:  amount,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.Encode(cmd.OutOrStdout(), render.FormatJSON, map[string]interface{}{
					"address":  result.Address,
					"credited": result.Credited,
					"balance":  result.Balance,
				})
			}
			return render.NewFundRenderer(cmd.OutOrStdout(), app.Config.Project.Token).Render(result)
		},
	}
}
