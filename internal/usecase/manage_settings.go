package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// ShowSettings returns the administrative ledger settings
type ShowSettings struct {
	ledger *Ledger
}

// NewShowSettings creates a new ShowSettings use case
func NewShowSettings(ledger *Ledger) *ShowSettings {
	return &ShowSettings{ledger: ledger}
}

// Run executes the show settings use case
func (uc *ShowSettings) Run(ctx context.Context) (models.LedgerSettings, error) {
	return uc.ledger.Settings(ctx)
}

// UpdateSettingsParams lists the settings to change; nil fields are left as is
type UpdateSettingsParams struct {
	FeeBps       *uint16
	FeeRecipient *common.Address
	Treasury     *common.Address
}

// IsEmpty reports whether no change was requested
func (p UpdateSettingsParams) IsEmpty() bool {
	return p.FeeBps == nil && p.FeeRecipient == nil && p.Treasury == nil
}

// UpdateSettings changes the fee and treasury configuration
type UpdateSettings struct {
	ledger *Ledger
}

// NewUpdateSettings creates a new UpdateSettings use case
func NewUpdateSettings(ledger *Ledger) *UpdateSettings {
	return &UpdateSettings{ledger: ledger}
}

// Run executes the update settings use case
func (uc *UpdateSettings) Run(ctx context.Context, params UpdateSettingsParams) (models.LedgerSettings, error) {
	return uc.ledger.UpdateSettings(ctx, func(s *models.LedgerSettings) {
		if params.FeeBps != nil {
			s.FeeBps = *params.FeeBps
		}
		if params.FeeRecipient != nil {
			s.FeeRecipient = *params.FeeRecipient
		}
		if params.Treasury != nil {
			s.Treasury = *params.Treasury
		}
	})
}
