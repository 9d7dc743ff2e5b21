package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// SpinnerProgressReporter renders progress events with a spinner on stderr
type SpinnerProgressReporter struct {
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
}

type stageInfo struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
	Message   string
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return newSpinnerProgressReporter(os.Stderr)
}

func newSpinnerProgressReporter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     out,
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.track(event)

	if event.Spinner {
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// track closes the previous stage when a new one starts
func (r *SpinnerProgressReporter) track(event usecase.ProgressEvent) {
	now := time.Now()
	if n := len(r.stages); n > 0 {
		last := &r.stages[n-1]
		if last.Stage == event.Stage {
			last.Message = event.Message
			return
		}
		last.EndTime = now
	}
	r.stages = append(r.stages, stageInfo{
		Stage:     event.Stage,
		StartTime: now,
		Message:   event.Message,
	})
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.pause(func() {
		color.New(color.FgCyan).Fprintln(r.out, message)
	})
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.pause(func() {
		color.New(color.FgRed).Fprintln(r.out, message)
	})
}

// pause stops the spinner while fn writes, then restarts it
func (r *SpinnerProgressReporter) pause(fn func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	fn()
	if wasActive {
		r.spinner.Start()
	}
}

// Summary describes each stage seen so far with its duration
func (r *SpinnerProgressReporter) Summary() string {
	var display string
	for i, stage := range r.stages {
		icon, stageColor := "●", color.New(color.FgYellow)
		duration := time.Since(stage.StartTime).Round(time.Second)
		if !stage.EndTime.IsZero() {
			icon, stageColor = "✓", color.New(color.FgGreen)
			duration = stage.EndTime.Sub(stage.StartTime).Round(time.Millisecond)
		}
		if i > 0 {
			display += " → "
		}
		display += fmt.Sprintf("%s %s (%s)", icon, stageColor.Sprint(stage.Stage), duration)
	}
	return display
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
