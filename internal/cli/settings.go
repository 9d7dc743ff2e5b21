package cli

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewSettingsCmd creates the settings command
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the ledger fee and treasury settings",
		Long: `Show or change the administrative ledger settings.

The platform fee is taken from deposits returned on completion and paid
to the fee recipient. Forfeited deposits go to the treasury, or stay in
custody while no treasury is set.

When run without subcommands, displays the current settings.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd)
		},
	})
	cmd.AddCommand(NewSettingsSetCmd())

	return cmd
}

// NewSettingsSetCmd creates the settings set subcommand
func NewSettingsSetCmd() *cobra.Command {
	var (
		feeBps       uint16
		feeRecipient string
		treasury     string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change fee and treasury settings",
		Long: `Change fee and treasury settings. Only the flags given are changed.
Pass "none" to clear the fee recipient or treasury.

Changes apply to resolutions from now on; challenges already resolved keep
the fee they were charged.`,
		Example: `  pledge settings set --fee-bps 250 --fee-recipient 0x3333333333333333333333333333333333333333
  pledge settings set --treasury none`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var params usecase.UpdateSettingsParams
			if cmd.Flags().Changed("fee-bps") {
				params.FeeBps = &feeBps
			}
			if cmd.Flags().Changed("fee-recipient") {
				if params.FeeRecipient, err = parseOptionalAddress(feeRecipient); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("treasury") {
				if params.Treasury, err = parseOptionalAddress(treasury); err != nil {
					return err
				}
			}
			if params.IsEmpty() {
				return usageErrorf("nothing to change: pass --fee-bps, --fee-recipient or --treasury")
			}

			settings, err := app.UpdateSettings.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.Encode(cmd.OutOrStdout(), render.FormatJSON, settings)
			}
			return render.NewSettingsRenderer(cmd.OutOrStdout()).Render(settings)
		},
	}

	cmd.Flags().Uint16Var(&feeBps, "fee-bps", 0, "Platform fee in basis points (max 1000)")
	cmd.Flags().StringVar(&feeRecipient, "fee-recipient", "", "Address that receives fees, or none")
	cmd.Flags().StringVar(&treasury, "treasury", "", "Address that receives forfeited deposits, or none")

	return cmd
}

func showSettings(cmd *cobra.Command) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}

	settings, err := app.ShowSettings.Run(cmd.Context())
	if err != nil {
		return err
	}

	if app.Config.JSON {
		return render.Encode(cmd.OutOrStdout(), render.FormatJSON, settings)
	}
	return render.NewSettingsRenderer(cmd.OutOrStdout()).Render(settings)
}

// parseOptionalAddress parses an address where "none" means the zero address
func parseOptionalAddress(s string) (*common.Address, error) {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return &common.Address{}, nil
	}
	addr, err := config.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
