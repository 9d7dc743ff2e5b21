package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/config"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the pledge build",
		Annotations: map[string]string{annotationStandalone: "true"},
		Args:        exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			build := config.CurrentBuild()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return render.Encode(cmd.OutOrStdout(), render.FormatJSON, build)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), build.String())
			return err
		},
	}
}
