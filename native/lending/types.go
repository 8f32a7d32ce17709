package lending

import (
	"dsclend/crypto"
)

// RiskConfig groups the protocol-wide safety parameters. It is created once at
// initialisation and referenced, never mutated, by the engines.
type RiskConfig struct {
	// Authority identifies the administrative account that initialised the
	// protocol.
	Authority crypto.Address
	// DebtAsset is the symbol of the synthetic asset minted against
	// collateral.
	DebtAsset string
	// LiquidationThreshold is the share of collateral value counted towards
	// solvency, on a 0-100 scale.
	LiquidationThreshold uint64
	// MinHealthFactor is the solvency floor enforced on borrow and withdraw.
	MinHealthFactor uint64
	// LiquidationBonus is the percentage bonus awarded to liquidators on top
	// of the covered debt's collateral equivalent.
	LiquidationBonus uint64
	// FeePercent is the withdrawal fee rate, applied as amount*FeePercent/1e8.
	FeePercent uint64
}

// PoolConfig captures the aggregate accounting state for one collateral
// asset's pool.
type PoolConfig struct {
	// Asset is the collateral asset symbol this pool is isolated to.
	Asset string `json:"asset"`
	// Vault is the custody account holding the pool's collateral.
	Vault crypto.Address `json:"vault"`
	// TotalLiquidity is the aggregate amount contributed by liquidity
	// providers and not yet redeemed.
	TotalLiquidity uint64 `json:"totalLiquidity"`
	// TotalCollectedFees is the fee amount currently allocated to liquidity
	// providers, denominated in collateral units.
	TotalCollectedFees uint64 `json:"totalCollectedFees"`
	// ProtocolReserve tracks the protocol-retained share of withdrawal fees.
	ProtocolReserve uint64 `json:"protocolReserve"`
}

// PriceFeed holds the last-known price for one collateral asset. Prices are
// fixed point with a 1e4 scale and pushed in by the caller alongside each
// state-changing operation.
type PriceFeed struct {
	Asset string `json:"asset"`
	Price uint64 `json:"price"`
}

// CollateralPosition records the collateral a user has on deposit for one
// asset. Created on first deposit and never destroyed; the amount may return
// to zero.
type CollateralPosition struct {
	User            crypto.Address `json:"user"`
	Asset           string         `json:"asset"`
	DepositedAmount uint64         `json:"depositedAmount"`
}

// DebtPosition records a user's outstanding borrow against one collateral
// asset. Records are keyed per (user, asset) pair, so positions in different
// assets stay isolated. BorrowedAmount is kept in canonical debt units (token
// amount divided by debtUnitScale). The collateral balance and health factor
// are caches refreshed by the mutating operations.
type DebtPosition struct {
	User              crypto.Address `json:"user"`
	PrimaryAsset      string         `json:"primaryAsset"`
	BorrowedAmount    uint64         `json:"borrowedAmount"`
	CollateralBalance uint64         `json:"collateralBalance"`
	HealthFactor      uint64         `json:"healthFactor"`
}

// LiquidityPosition records a liquidity provider's contribution to one
// asset's pool. Zeroed, not deleted, on full redemption; re-deposits are
// additive.
type LiquidityPosition struct {
	User              crypto.Address `json:"user"`
	Asset             string         `json:"asset"`
	ContributedAmount uint64         `json:"contributedAmount"`
}

// LiquidityDeposit is the deposit-tracking record paired with a
// LiquidityPosition. It is closed (deleted) when the provider redeems in
// full.
type LiquidityDeposit struct {
	User   crypto.Address `json:"user"`
	Asset  string         `json:"asset"`
	Amount uint64         `json:"amount"`
}

// Clone returns a deep copy of the pool state.
func (p *PoolConfig) Clone() *PoolConfig {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Clone returns a deep copy of the debt position.
func (d *DebtPosition) Clone() *DebtPosition {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}
