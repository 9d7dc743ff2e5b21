package app

import (
	"log/slog"

	"github.com/trebuchet-org/pledge/internal/adapters/metrics"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/escrow"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Logger *slog.Logger

	// Metrics is served by long-running commands
	Metrics *metrics.Recorder

	// Ledger use cases
	CreateChallenge   *usecase.CreateChallenge
	ReportFailure     *usecase.ReportFailure
	CastVote          *usecase.CastVote
	Finalize          *usecase.Finalize
	CompleteChallenge *usecase.CompleteChallenge
	ShowChallenge     *usecase.ShowChallenge
	GetBallot         *usecase.GetBallot
	ListChallenges    *usecase.ListChallenges
	SweepDeadlines    *usecase.SweepDeadlines
	ReconcileCustody  *usecase.ReconcileCustody

	// Administration
	ShowSettings   *usecase.ShowSettings
	UpdateSettings *usecase.UpdateSettings
	FundAccount    *usecase.FundAccount

	// Local config
	ShowConfig   *usecase.ShowConfig
	SetConfig    *usecase.SetConfig
	RemoveConfig *usecase.RemoveConfig
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	logger *slog.Logger,
	recorder *metrics.Recorder,
	createChallenge *usecase.CreateChallenge,
	reportFailure *usecase.ReportFailure,
	castVote *usecase.CastVote,
	finalize *usecase.Finalize,
	completeChallenge *usecase.CompleteChallenge,
	showChallenge *usecase.ShowChallenge,
	getBallot *usecase.GetBallot,
	listChallenges *usecase.ListChallenges,
	sweepDeadlines *usecase.SweepDeadlines,
	reconcileCustody *usecase.ReconcileCustody,
	showSettings *usecase.ShowSettings,
	updateSettings *usecase.UpdateSettings,
	fundAccount *usecase.FundAccount,
	showConfig *usecase.ShowConfig,
	setConfig *usecase.SetConfig,
	removeConfig *usecase.RemoveConfig,
) *App {
	return &App{
		Config:            cfg,
		Logger:            logger,
		Metrics:           recorder,
		CreateChallenge:   createChallenge,
		ReportFailure:     reportFailure,
		CastVote:          castVote,
		Finalize:          finalize,
		CompleteChallenge: completeChallenge,
		ShowChallenge:     showChallenge,
		GetBallot:         getBallot,
		ListChallenges:    listChallenges,
		SweepDeadlines:    sweepDeadlines,
		ReconcileCustody:  reconcileCustody,
		ShowSettings:      showSettings,
		UpdateSettings:    updateSettings,
		FundAccount:       fundAccount,
		ShowConfig:        showConfig,
		SetConfig:         setConfig,
		RemoveConfig:      removeConfig,
	}
}

// ProvideMachine returns the escrow state machine with default options
func ProvideMachine() *escrow.Machine {
	return escrow.NewMachine()
}
