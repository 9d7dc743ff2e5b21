package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LedgerSettings is the administrative configuration applied to new payouts
type LedgerSettings struct {
	FeeBps       uint16         `json:"feeBps"`
	FeeRecipient common.Address `json:"feeRecipient"`
	Treasury     common.Address `json:"treasury"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// HasFeeRecipient reports whether fees can be collected
func (s LedgerSettings) HasFeeRecipient() bool {
	return s.FeeRecipient != (common.Address{})
}

// HasTreasury reports whether forfeited funds have a destination
func (s LedgerSettings) HasTreasury() bool {
	return s.Treasury != (common.Address{})
}
