package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/pledge/internal/app"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewSweepCmd creates the sweep command
func NewSweepCmd() *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Finalize challenges whose voting or remediation deadline lapsed",
		Long: `Finalize every challenge whose voting or remediation deadline has
passed. Finalizing is permissionless and idempotent, so a sweep is only a
convenience: anyone can finalize a challenge directly.

With --interval the sweep repeats until interrupted. --metrics-addr serves
Prometheus metrics while it runs.`,
		Example: `  # One pass
  pledge sweep

  # Every minute, with metrics on :9464
  pledge sweep --interval 1m --metrics-addr :9464`,
		Args:        exactArgs(0),
		Annotations: map[string]string{annotationNoTimeout: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if interval < 0 {
				return usageErrorf("--interval must not be negative")
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = app.Config.Project.Metrics.Listen
			}

			ctx := cmd.Context()
			if metricsAddr != "" {
				stop, err := serveMetrics(ctx, app, metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
			}

			if interval == 0 {
				return sweepOnce(cmd, app, time.Time{})
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				if err := sweepOnce(cmd, app, time.Now()); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					app.Logger.Error("sweep failed", "error", err)
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Repeat the sweep at this interval until interrupted")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (defaults to [metrics] listen)")

	return cmd
}

// sweepOnce runs one pass and records it in the metrics
func sweepOnce(cmd *cobra.Command, app *app.App, at time.Time) error {
	start := time.Now()
	result, err := app.SweepDeadlines.Run(cmd.Context(), usecase.SweepDeadlinesParams{
		Caller: app.Config.Caller,
	})
	if err != nil {
		return err
	}
	app.Metrics.ObserveSweep(result, time.Since(start))

	if app.Config.JSON {
		return render.Encode(cmd.OutOrStdout(), render.FormatJSON, sweepOutput(result))
	}
	renderer := render.NewSweepRenderer(cmd.OutOrStdout(), app.Config.Project.Token)
	renderer.At = at
	return renderer.Render(result)
}

// sweepOutput is the JSON shape of a sweep pass
func sweepOutput(result *usecase.SweepResult) map[string]interface{} {
	finalized := make([]map[string]interface{}, 0, len(result.Finalized))
	for _, tr := range result.Finalized {
		finalized = append(finalized, transitionOutput(tr))
	}
	failures := make([]map[string]string, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, map[string]string{
			"challengeId": f.ChallengeID.Hex(),
			"error":       f.Err.Error(),
		})
	}
	return map[string]interface{}{
		"scanned":   result.Scanned,
		"finalized": finalized,
		"skipped":   result.Skipped,
		"failures":  failures,
	}
}

// serveMetrics exposes the app's metrics until the returned stop func is called
func serveMetrics(ctx context.Context, app *app.App, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics server stopped", "error", err)
		}
	}()
	app.Logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
