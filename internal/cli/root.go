package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/pledge/internal/adapters/progress"
	"github.com/trebuchet-org/pledge/internal/app"
	"github.com/trebuchet-org/pledge/internal/cli/render"
	"github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// Annotations read by the root command
const (
	// annotationStandalone marks commands that run without the app container
	annotationStandalone = "standalone"
	// annotationNoTimeout marks long-running commands the global timeout must not cancel
	annotationNoTimeout = "no-timeout"
)

// Exit codes by error class
const (
	ExitOK            = 0
	ExitInternal      = 1
	ExitValidation    = 2
	ExitState         = 3
	ExitAuthorization = 4
	ExitTemporal      = 5
	ExitResource      = 6
)

// session carries what PersistentPreRunE set up so Run can tear it down
// whether or not the command succeeded
type session struct {
	cleanup func()
	cancel  context.CancelFunc
}

func (s *session) close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cleanup != nil {
		s.cleanup()
	}
}

// Run executes the CLI with the given arguments and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	sess := &session{}
	defer sess.close()

	rootCmd := newRootCmd(sess)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	if jsonRequested(rootCmd) {
		_ = json.NewEncoder(stderr).Encode(map[string]string{
			"error": err.Error(),
			"class": string(errorClass(err)),
		})
	} else {
		fmt.Fprintln(stderr, render.FormatError(err.Error()))
	}
	return ExitCode(err)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&session{})
}

func newRootCmd(sess *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pledge",
		Short: "Challenge escrow ledger with guarantor voting",
		Long: `pledge escrows a deposit against a personal challenge. The owner gets it
back on completion; on failure their guarantors vote on a Path of
Redemption, and a rejected or abandoned challenge forfeits the deposit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Annotations[annotationStandalone] == "true" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			// Find project root; without one the working directory becomes the project
			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				if !errors.Is(err, config.ErrNoProject) {
					return err
				}
				if projectRoot, err = os.Getwd(); err != nil {
					return err
				}
			}

			// Set up viper
			v := config.SetupViper(projectRoot)

			// Bind global flags that have been set
			bindGlobalFlags(v, cmd)

			sink := newProgressSink(cmd, v)

			// Initialize app with DI
			appInstance, cleanup, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			sess.cleanup = cleanup

			// Store app in context
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 && cmd.Annotations[annotationNoTimeout] != "true" {
				ctx, sess.cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}

			cmd.SetContext(ctx)

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("as", "", "Identity (address) to act as")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "ledger",
		Title: "Challenge Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "query",
		Title: "Query Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{
		NewCreateCmd(),
		NewReportCmd(),
		NewVoteCmd(),
		NewFinalizeCmd(),
		NewCompleteCmd(),
	} {
		cmd.GroupID = "ledger"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		NewShowCmd(),
		NewListCmd(),
		NewBallotCmd(),
	} {
		cmd.GroupID = "query"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		NewSettingsCmd(),
		NewSweepCmd(),
		NewReconcileCmd(),
		NewFundCmd(),
		NewConfigCmd(),
	} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	// Version command
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// bindGlobalFlags binds command flags to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	// Only bind flags that exist and have been changed
	if f := cmd.Flag("as"); f != nil && f.Changed {
		v.Set("identity", f.Value.String())
	}
	if f := cmd.Flag("debug"); f != nil && f.Changed {
		v.Set("debug", f.Value.String())
	}
	if f := cmd.Flag("non-interactive"); f != nil && f.Changed {
		v.Set("non_interactive", f.Value.String())
	}
	if f := cmd.Flag("json"); f != nil && f.Changed {
		v.Set("json", f.Value.String())
	}
}

// newProgressSink picks how use cases report progress for this command
func newProgressSink(cmd *cobra.Command, v *viper.Viper) usecase.ProgressSink {
	if v.GetBool("json") || v.GetBool("non_interactive") {
		return progress.NewNopSink()
	}
	if cmd.Name() == "sweep" {
		return progress.NewSweepProgress()
	}
	return progress.NewSpinnerProgressReporter()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

// requireCaller returns the configured identity or explains how to set one
func requireCaller(a *app.App) error {
	if a.Config.HasCaller() {
		return nil
	}
	return fmt.Errorf("%w: no identity configured, pass --as <address> or run 'pledge config set identity <address>'",
		domain.ErrInvalidAddress)
}

// interactive reports whether prompts may be shown
func interactive(a *app.App) bool {
	return !a.Config.NonInteractive && !a.Config.JSON
}

// usageError marks bad flags and arguments
type usageError struct {
	error
}

func (e usageError) Unwrap() error { return e.error }

// usageErrorf formats a usageError
func usageErrorf(format string, args ...interface{}) error {
	return usageError{fmt.Errorf(format, args...)}
}

// exactArgs is cobra.ExactArgs reporting a usage error
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// rangeArgs is cobra.RangeArgs reporting a usage error
func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(lo, hi)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// errorClass classifies err, treating usage errors as validation failures
func errorClass(err error) domain.ErrorClass {
	var usage usageError
	if errors.As(err, &usage) {
		return domain.ClassValidation
	}
	return domain.Classify(err)
}

// ExitCode maps an error to the process exit code of its class
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch errorClass(err) {
	case domain.ClassValidation:
		return ExitValidation
	case domain.ClassState:
		return ExitState
	case domain.ClassAuthorization:
		return ExitAuthorization
	case domain.ClassTemporal:
		return ExitTemporal
	case domain.ClassResource:
		return ExitResource
	default:
		return ExitInternal
	}
}

// jsonRequested reports whether --json was passed, even if the app never started
func jsonRequested(rootCmd *cobra.Command) bool {
	f := rootCmd.PersistentFlags().Lookup("json")
	return f != nil && f.Changed
}
