package lending

import (
	"dsclend/crypto"
)

// engineState is the persistence seam shared by the lending and liquidity
// engines. Get methods return (nil, nil) when no record exists; the engines
// lazily create records and stamp the owning user on first write.
type engineState interface {
	GetPool(asset string) (*PoolConfig, error)
	PutPool(pool *PoolConfig) error

	GetPrice(asset string) (*PriceFeed, error)
	PutPrice(feed *PriceFeed) error

	GetCollateral(user crypto.Address, asset string) (*CollateralPosition, error)
	PutCollateral(position *CollateralPosition) error

	GetDebt(user crypto.Address, asset string) (*DebtPosition, error)
	PutDebt(position *DebtPosition) error

	GetLiquidity(user crypto.Address, asset string) (*LiquidityPosition, error)
	PutLiquidity(position *LiquidityPosition) error

	GetLiquidityDeposit(user crypto.Address, asset string) (*LiquidityDeposit, error)
	PutLiquidityDeposit(deposit *LiquidityDeposit) error
	DeleteLiquidityDeposit(user crypto.Address, asset string) error
}

// TokenBridge is the external custody collaborator. The engines invoke it
// only after every check has passed; a bridge failure aborts the operation
// before any record is written.
type TokenBridge interface {
	Transfer(asset string, from, to crypto.Address, amount uint64) error
	Mint(asset string, to crypto.Address, amount uint64) error
	Burn(asset string, from crypto.Address, amount uint64) error
}
