package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pledge local config",
		Long: `Manage pledge local config stored in .pledge/config.local.json

The config defines the identity commands act as when --as is not given,
and the storage backend (file or bolt) of this checkout.

Available subcommands:
  config           Show current config
  config set       Set a config value
  config remove    Remove a config value

When run without subcommands, displays the current config.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default action is to show config
			return showConfig(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current config",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	})
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigRemoveCmd())

	return cmd
}

// configKeyCompletion completes the first argument with the known config keys
func configKeyCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	keys := make([]string, 0, len(config.ValidConfigKeys()))
	for _, k := range config.ValidConfigKeys() {
		keys = append(keys, string(k))
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: `Set a config value in .pledge/config.local.json.
Available keys: identity (as), storage

Examples:
  pledge config set identity 0x1111111111111111111111111111111111111111
  pledge config set storage bolt`,
		Args:              exactArgs(2),
		ValidArgsFunction: configKeyCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.SetConfigParams{
				Key:   args[0],
				Value: args[1],
			}

			result, err := app.SetConfig.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			renderer := render.NewConfigRenderer(cmd.OutOrStdout())
			return renderer.RenderSet(result)
		},
	}
}

func newConfigRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a config value",
		Long: `Remove a config value from .pledge/config.local.json.
Removing identity makes --as required on ledger commands.
Removing storage reverts it to 'file'.

Examples:
  pledge config remove identity
  pledge config remove storage`,
		Args:              exactArgs(1),
		ValidArgsFunction: configKeyCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.RemoveConfigParams{
				Key: args[0],
			}

			result, err := app.RemoveConfig.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			renderer := render.NewConfigRenderer(cmd.OutOrStdout())
			return renderer.RenderRemove(result)
		},
	}
}

// showConfig displays the current configuration
func showConfig(cmd *cobra.Command) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}

	result, err := app.ShowConfig.Run(cmd.Context())
	if err != nil {
		return err
	}

	if app.Config.JSON {
		effective := map[string]interface{}{
			"storage":   result.Backend,
			"storePath": result.StorePath,
			"dataDir":   result.DataDir,
		}
		if result.HasCaller() {
			effective["identity"] = result.Caller.Hex()
			effective["identityOverridden"] = result.CallerOverridden
		}
		return render.Encode(cmd.OutOrStdout(), render.FormatJSON, map[string]interface{}{
			"saved":     result.Saved,
			"path":      result.Path,
			"exists":    result.Exists,
			"source":    result.Source,
			"effective": effective,
		})
	}

	renderer := render.NewConfigRenderer(cmd.OutOrStdout())
	return renderer.RenderConfig(result)
}
