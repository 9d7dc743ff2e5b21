package render

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/fatih/color"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// CustodyRenderer renders a custody reconciliation report
type CustodyRenderer struct {
	out   io.Writer
	token config.TokenConfig
}

// NewCustodyRenderer creates a new custody renderer
func NewCustodyRenderer(out io.Writer, token config.TokenConfig) *CustodyRenderer {
	return &CustodyRenderer{out: out, token: token}
}

// Render implements Renderer for custody reports
func (r *CustodyRenderer) Render(report *usecase.CustodyReport) error {
	fmt.Fprintf(r.out, "Reconciled %d challenges and %d ledger entries\n\n", report.Challenges, report.Entries)

	row := func(label string, v *big.Int) {
		fmt.Fprintf(r.out, "  %-12s %s\n", label+":", FormatAmount(v, r.token))
	}
	row("Received", report.Custody.Received)
	row("Disbursed", report.Custody.Disbursed)
	row("Retained", report.Custody.Retained)
	row("Held", report.Custody.Held())
	row("Escrowed", report.Escrowed)
	if report.VaultBalance != nil {
		row("Vault", report.VaultBalance)
	}
	fmt.Fprintln(r.out)

	if report.Balanced() {
		fmt.Fprintln(r.out, FormatSuccess("Custody is balanced"))
		return nil
	}
	for _, d := range report.Discrepancies {
		fmt.Fprintln(r.out, color.New(color.FgRed).Sprintf("  ✗ %s", d))
	}
	fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%d discrepancies found", len(report.Discrepancies))))
	return nil
}

// SweepRenderer renders the summary of one sweep pass
type SweepRenderer struct {
	out   io.Writer
	token config.TokenConfig
	// At labels the pass; zero omits the timestamp
	At time.Time
}

// NewSweepRenderer creates a new sweep renderer
func NewSweepRenderer(out io.Writer, token config.TokenConfig) *SweepRenderer {
	return &SweepRenderer{out: out, token: token}
}

// Render implements Renderer for sweep results
func (r *SweepRenderer) Render(result *usecase.SweepResult) error {
	prefix := ""
	if !r.At.IsZero() {
		prefix = timestampStyle.Sprintf("[%s] ", formatTime(r.At))
	}

	for _, f := range result.Failures {
		fmt.Fprintf(r.out, "%s%s\n", prefix, color.New(color.FgRed).Sprintf("✗ %s: %v", shortID(f.ChallengeID), f.Err))
	}

	msg := fmt.Sprintf("Scanned %d, finalized %d", result.Scanned, len(result.Finalized))
	if result.Skipped > 0 {
		msg += fmt.Sprintf(", skipped %d", result.Skipped)
	}
	if len(result.Failures) > 0 {
		fmt.Fprintf(r.out, "%s%s\n", prefix, FormatWarning(fmt.Sprintf("%s, %d failed", msg, len(result.Failures))))
		return nil
	}
	fmt.Fprintf(r.out, "%s%s\n", prefix, FormatSuccess(msg))
	return nil
}

var (
	_ Renderer[*usecase.CustodyReport] = (*CustodyRenderer)(nil)
	_ Renderer[*usecase.SweepResult]   = (*SweepRenderer)(nil)
)
