package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain/config"
)

// ShowConfigResult pairs the saved checkout config with what ledger commands
// will actually run with once flags, PLEDGE_* variables and pledge.toml are
// folded in
type ShowConfigResult struct {
	Saved  *config.LocalConfig
	Path   string
	Exists bool
	Source string

	Caller common.Address
	// CallerOverridden is set when --as or PLEDGE_IDENTITY replaces the saved identity
	CallerOverridden bool
	Backend          string
	StorePath        string
	DataDir          string
}

// HasCaller reports whether commands have an identity to act as
func (r *ShowConfigResult) HasCaller() bool {
	return r.Caller != (common.Address{})
}

// ShowConfig reports the identity and storage in effect for this checkout
type ShowConfig struct {
	store   LocalConfigStore
	runtime *config.RuntimeConfig
}

// NewShowConfig creates the use case
func NewShowConfig(store LocalConfigStore, runtime *config.RuntimeConfig) *ShowConfig {
	return &ShowConfig{store: store, runtime: runtime}
}

// Run loads the saved config and resolves the effective values
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	saved, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &ShowConfigResult{
		Saved:     saved,
		Path:      uc.store.GetPath(),
		Exists:    uc.store.Exists(),
		Source:    uc.runtime.ConfigSource,
		Caller:    uc.runtime.Caller,
		Backend:   uc.runtime.Project.Storage.Backend,
		StorePath: uc.runtime.StorePath(),
		DataDir:   uc.runtime.DataDir,
	}
	if result.HasCaller() {
		savedCaller := common.Address{}
		if common.IsHexAddress(saved.Identity) {
			savedCaller = common.HexToAddress(saved.Identity)
		}
		result.CallerOverridden = savedCaller != result.Caller
	}
	return result, nil
}
