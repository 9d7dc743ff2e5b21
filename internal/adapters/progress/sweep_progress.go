package progress

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// SweepProgress prints one line per finalized challenge and forwards every
// other event to the spinner
type SweepProgress struct {
	out     io.Writer
	spinner *SpinnerProgressReporter
}

// NewSweepProgress creates a sweep progress reporter on stderr
func NewSweepProgress() *SweepProgress {
	return newSweepProgress(os.Stderr)
}

func newSweepProgress(out io.Writer) *SweepProgress {
	return &SweepProgress{
		out:     out,
		spinner: newSpinnerProgressReporter(out),
	}
}

// OnProgress handles progress events for sweep runs
func (p *SweepProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case "finalized":
		tr, ok := event.Metadata.(*usecase.TransitionResult)
		if !ok {
			return
		}
		p.spinner.pause(func() {
			fmt.Fprintf(p.out, "  %s [%d/%d] %s %s → %s\n",
				color.New(color.FgGreen).Sprint("✓"),
				event.Current, event.Total,
				tr.Challenge.ID.TerminalString(),
				tr.From, color.New(color.Bold).Sprint(tr.To))
		})
		p.spinner.track(event)

	case "complete":
		p.spinner.OnProgress(ctx, event)
		fmt.Fprintln(p.out, color.New(color.Faint).Sprint(p.spinner.Summary()))

	default:
		p.spinner.OnProgress(ctx, event)
	}
}

// Info forwards info messages to the spinner
func (p *SweepProgress) Info(message string) {
	p.spinner.Info(message)
}

// Error forwards error messages to the spinner
func (p *SweepProgress) Error(message string) {
	p.spinner.Error(message)
}

// Ensure SweepProgress implements ProgressSink
var _ usecase.ProgressSink = (*SweepProgress)(nil)
