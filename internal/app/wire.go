//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/pledge/internal/adapters"
	"github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/logging"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Engine
		ProvideMachine,
		usecase.NewLedger,
		usecase.NewResolveChallenge,
		wire.Bind(new(usecase.ChallengeResolver), new(*usecase.ResolveChallenge)),

		// Use cases
		usecase.NewCreateChallenge,
		usecase.NewReportFailure,
		usecase.NewCastVote,
		usecase.NewFinalize,
		usecase.NewCompleteChallenge,
		usecase.NewShowChallenge,
		usecase.NewGetBallot,
		usecase.NewListChallenges,
		usecase.NewSweepDeadlines,
		usecase.NewReconcileCustody,
		usecase.NewShowSettings,
		usecase.NewUpdateSettings,
		usecase.NewFundAccount,
		usecase.NewShowConfig,
		usecase.NewSetConfig,
		usecase.NewRemoveConfig,

		// App
		NewApp,
	)
	return nil, nil, nil
}
