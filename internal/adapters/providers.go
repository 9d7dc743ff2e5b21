package adapters

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/wire"
	"github.com/trebuchet-org/pledge/internal/adapters/clock"
	"github.com/trebuchet-org/pledge/internal/adapters/custody"
	"github.com/trebuchet-org/pledge/internal/adapters/fs"
	"github.com/trebuchet-org/pledge/internal/adapters/interactive"
	"github.com/trebuchet-org/pledge/internal/adapters/lock"
	"github.com/trebuchet-org/pledge/internal/adapters/metrics"
	"github.com/trebuchet-org/pledge/internal/adapters/mirror"
	"github.com/trebuchet-org/pledge/internal/adapters/repository/bolt"
	"github.com/trebuchet-org/pledge/internal/adapters/repository/challenges"
	internalconfig "github.com/trebuchet-org/pledge/internal/config"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// Store is a repository that holds both challenges and settings
type Store interface {
	usecase.ChallengeRepository
	usecase.SettingsRepository
}

// ProvideSettingsDefaults turns the [ledger] section of pledge.toml into the
// settings used until an administrator saves new ones
func ProvideSettingsDefaults(cfg *config.RuntimeConfig) (models.LedgerSettings, error) {
	ledger := cfg.Project.Ledger
	settings := models.LedgerSettings{FeeBps: ledger.FeeBps}

	if ledger.FeeRecipient != "" {
		addr, err := internalconfig.ParseAddress(ledger.FeeRecipient)
		if err != nil {
			return settings, fmt.Errorf("[ledger] fee_recipient: %w", err)
		}
		settings.FeeRecipient = addr
	}
	if ledger.Treasury != "" {
		addr, err := internalconfig.ParseAddress(ledger.Treasury)
		if err != nil {
			return settings, fmt.Errorf("[ledger] treasury: %w", err)
		}
		settings.Treasury = addr
	}
	return settings, nil
}

// ProvideStore opens the configured storage backend
func ProvideStore(cfg *config.RuntimeConfig, defaults models.LedgerSettings) (Store, func(), error) {
	switch backend := cfg.Project.Storage.Backend; backend {
	case config.StorageBolt:
		repo, err := bolt.Open(cfg.StorePath(), defaults)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil

	case config.StorageFile, "":
		repo, err := challenges.NewFileRepository(cfg.StorePath(), defaults)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// ProvideChallengeRepository narrows the store to the challenge port
func ProvideChallengeRepository(s Store) usecase.ChallengeRepository { return s }

// ProvideSettingsRepository narrows the store to the settings port
func ProvideSettingsRepository(s Store) usecase.SettingsRepository { return s }

// ProvideVault opens the custody vault in the data directory
func ProvideVault(cfg *config.RuntimeConfig, clk usecase.Clock, log *slog.Logger) (*custody.Vault, error) {
	return custody.NewVault(cfg.DataDir, clk, log)
}

// ProvideProcessLock returns the per-challenge lock shared by every process
// using this data directory
func ProvideProcessLock(cfg *config.RuntimeConfig) usecase.ProcessLock {
	return lock.NewFileLocker(filepath.Join(cfg.DataDir, lock.Dir))
}

// ProvideMirror returns a NATS mirror when a server is configured
func ProvideMirror(cfg *config.RuntimeConfig, log *slog.Logger) (usecase.Mirror, func()) {
	m := cfg.Project.Mirror
	if m.NatsURL == "" {
		return mirror.NopMirror{}, func() {}
	}
	nm := mirror.NewNATSMirror(mirror.Config{
		URL:     m.NatsURL,
		Subject: m.Subject,
		Timeout: m.Timeout,
	}, log)
	return nm, nm.Close
}

// StorageSet provides the repositories
var StorageSet = wire.NewSet(
	ProvideSettingsDefaults,
	ProvideStore,
	ProvideChallengeRepository,
	ProvideSettingsRepository,
	ProvideProcessLock,
)

// CustodySet provides the token collaborator
var CustodySet = wire.NewSet(
	ProvideVault,
	wire.Bind(new(usecase.TokenTransfer), new(*custody.Vault)),
	wire.Bind(new(usecase.AccountFunder), new(*custody.Vault)),
)

// ClockSet provides the wall clock
var ClockSet = wire.NewSet(
	clock.NewSystemClock,
	wire.Bind(new(usecase.Clock), new(*clock.SystemClock)),
)

// ObservabilitySet provides the mirror and metrics
var ObservabilitySet = wire.NewSet(
	ProvideMirror,
	metrics.NewRecorder,
	wire.Bind(new(usecase.MetricsRecorder), new(*metrics.Recorder)),
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewLocalConfigStoreAdapter,
	wire.Bind(new(usecase.LocalConfigStore), new(*fs.LocalConfigStoreAdapter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.ChallengeSelector), new(*interactive.SelectorAdapter)),
	wire.Bind(new(usecase.BallotPrompter), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	StorageSet,
	CustodySet,
	ClockSet,
	ObservabilitySet,
	FSSet,
	InteractiveSet,
)
