package adapters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/pledge/internal/adapters/mirror"
	"github.com/trebuchet-org/pledge/internal/adapters/repository/bolt"
	"github.com/trebuchet-org/pledge/internal/adapters/repository/challenges"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/logging"
)

func runtimeConfig(t *testing.T) *config.RuntimeConfig {
	t.Helper()
	return &config.RuntimeConfig{
		DataDir: filepath.Join(t.TempDir(), ".pledge"),
		Project: config.DefaultProjectConfig(),
	}
}

func TestProvideSettingsDefaults(t *testing.T) {
	cfg := runtimeConfig(t)
	cfg.Project.Ledger = config.LedgerConfig{
		FeeBps:       250,
		FeeRecipient: "0x00000000000000000000000000000000000000e1",
		Treasury:     "0x00000000000000000000000000000000000000d1",
	}

	settings, err := ProvideSettingsDefaults(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint16(250), settings.FeeBps)
	assert.Equal(t, common.HexToAddress("0xe1"), settings.FeeRecipient)
	assert.Equal(t, common.HexToAddress("0xd1"), settings.Treasury)

	cfg.Project.Ledger.Treasury = "treasury.eth"
	_, err = ProvideSettingsDefaults(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	assert.ErrorContains(t, err, "[ledger] treasury")
}

func TestProvideStore(t *testing.T) {
	ctx := context.Background()
	defaults := models.LedgerSettings{FeeBps: 10}

	t.Run("file backend", func(t *testing.T) {
		cfg := runtimeConfig(t)
		store, cleanup, err := ProvideStore(cfg, defaults)
		require.NoError(t, err)
		defer cleanup()

		assert.IsType(t, &challenges.FileRepository{}, store)
		settings, err := store.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint16(10), settings.FeeBps)
	})

	t.Run("bolt backend", func(t *testing.T) {
		cfg := runtimeConfig(t)
		cfg.Project.Storage.Backend = config.StorageBolt
		store, cleanup, err := ProvideStore(cfg, defaults)
		require.NoError(t, err)
		defer cleanup()

		assert.IsType(t, &bolt.Repository{}, store)
		assert.FileExists(t, filepath.Join(cfg.DataDir, bolt.DefaultFile))
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := runtimeConfig(t)
		cfg.Project.Storage.Backend = "sqlite"
		_, _, err := ProvideStore(cfg, defaults)
		assert.ErrorContains(t, err, `unknown storage backend "sqlite"`)
	})
}

func TestProvideMirror(t *testing.T) {
	cfg := runtimeConfig(t)
	log := logging.NewLogger(cfg)

	m, cleanup := ProvideMirror(cfg, log)
	cleanup()
	assert.IsType(t, mirror.NopMirror{}, m)

	cfg.Project.Mirror.NatsURL = "nats://127.0.0.1:4222"
	m, cleanup = ProvideMirror(cfg, log)
	cleanup()
	assert.IsType(t, &mirror.NATSMirror{}, m)
}
