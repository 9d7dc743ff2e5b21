package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/domain"
)

// NewReconcileCmd creates the reconcile command
func NewReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Check custody totals against challenges, the journal and the vault",
		Long: `Check that the funds held in custody equal the deposits of open
challenges plus retained forfeits, that the ledger journal adds up to the
custody totals, that every challenge was funded once and disbursed at most
once, and that the vault holds what the ledger says it does.

Exits non-zero when a discrepancy is found.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			report, err := app.ReconcileCustody.Run(cmd.Context())
			if err != nil {
				return err
			}

			if app.Config.JSON {
				err = render.Encode(cmd.OutOrStdout(), render.FormatJSON, map[string]interface{}{
					"custody":       report.Custody,
					"escrowed":      report.Escrowed,
					"expected":      report.Expected,
					"journal":       report.Journal,
					"vaultBalance":  report.VaultBalance,
					"challenges":    report.Challenges,
					"entries":       report.Entries,
					"discrepancies": report.Discrepancies,
					"balanced":      report.Balanced(),
				})
			} else {
				err = render.NewCustodyRenderer(cmd.OutOrStdout(), app.Config.Project.Token).Render(report)
			}
			if err != nil {
				return err
			}

			if !report.Balanced() {
				return fmt.Errorf("%w: %d discrepancies", domain.ErrCustodyShortfall, len(report.Discrepancies))
			}
			return nil
		},
	}
}
