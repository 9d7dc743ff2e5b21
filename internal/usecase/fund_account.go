package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain"
)

// FundAccount credits a participant on a local token backend
type FundAccount struct {
	funder AccountFunder
}

// NewFundAccount creates a new fund account use case
func NewFundAccount(funder AccountFunder) *FundAccount {
	return &FundAccount{funder: funder}
}

// FundAccountParams contains parameters for funding an account
type FundAccountParams struct {
	Address common.Address
	Amount  *big.Int
}

// FundAccountResult reports the balance after funding
type FundAccountResult struct {
	Address  common.Address
	Credited *big.Int
	Balance  *big.Int
}

// Execute credits the account and returns its new balance
func (uc *FundAccount) Execute(ctx context.Context, params FundAccountParams) (*FundAccountResult, error) {
	if params.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: cannot fund the zero address", domain.ErrInvalidAddress)
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: funding amount must be positive", domain.ErrInvalidAmount)
	}
	if err := uc.funder.Fund(ctx, params.Address, params.Amount); err != nil {
		return nil, fmt.Errorf("failed to fund %s: %w", params.Address.Hex(), err)
	}
	balance, err := uc.funder.BalanceOf(ctx, params.Address)
	if err != nil {
		return nil, err
	}
	return &FundAccountResult{
		Address:  params.Address,
		Credited: new(big.Int).Set(params.Amount),
		Balance:  balance,
	}, nil
}

// Balance returns the current balance of addr
func (uc *FundAccount) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return uc.funder.BalanceOf(ctx, addr)
}
