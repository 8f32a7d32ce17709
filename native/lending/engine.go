package lending

import (
	"math"
	"strings"

	"dsclend/core/events"
	"dsclend/core/types"
	"dsclend/crypto"
	nativecommon "dsclend/native/common"
)

const moduleName = "lending"

// Engine orchestrates the primary state transitions of the lending ledger:
// collateral deposit, debt minting, withdrawal/repayment and liquidation.
//
// Every operation follows the same discipline: records are loaded, checks and
// conversions run purely in memory, the external token bridge is invoked only
// once every check has passed, and record mutations are committed only after
// the bridge call reports success. A failing bridge call therefore never
// leaves balances inconsistent with actual custody.
type Engine struct {
	state   engineState
	bridge  TokenBridge
	cfg     RiskConfig
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs a lending engine from a validated risk configuration.
func NewEngine(cfg RiskConfig) (*Engine, error) {
	if err := validateRiskConfig(cfg); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		emitter: events.NoopEmitter{},
	}, nil
}

func validateRiskConfig(cfg RiskConfig) error {
	if cfg.LiquidationThreshold > 100 {
		return ErrInvalidRiskConfig
	}
	if strings.TrimSpace(cfg.DebtAsset) == "" {
		return ErrInvalidRiskConfig
	}
	return nil
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBridge wires the engine to the token custody collaborator.
func (e *Engine) SetBridge(bridge TokenBridge) { e.bridge = bridge }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// RiskConfig returns the engine's immutable protocol parameters.
func (e *Engine) RiskConfig() RiskConfig { return e.cfg }

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(lendingEvent{evt: event})
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.bridge == nil {
		return ErrNilBridge
	}
	return nil
}

// RegisterAsset creates the pool configuration and price feed for a new
// collateral asset. The price uses the protocol's 1e4 fixed-point scale.
func (e *Engine) RegisterAsset(asset string, vault crypto.Address, price uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return ErrAssetNotRegistered
	}
	if price == 0 {
		return ErrInvalidPrice
	}
	existing, err := e.state.GetPool(asset)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := e.state.PutPool(&PoolConfig{Asset: asset, Vault: vault}); err != nil {
			return err
		}
	}
	return e.state.PutPrice(&PriceFeed{Asset: asset, Price: price})
}

// SetPrice stores the latest caller-supplied price for an asset.
func (e *Engine) SetPrice(asset string, price uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if price == 0 {
		return ErrInvalidPrice
	}
	feed, err := e.loadPrice(asset)
	if err != nil {
		return err
	}
	feed.Price = price
	return e.state.PutPrice(feed)
}

// Deposit locks collateral for a user inside the asset's vault and credits
// both the per-asset position and the aggregate balance used for solvency
// checks.
func (e *Engine) Deposit(user crypto.Address, asset string, amount uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrAmountZero
	}

	pool, err := e.loadPool(asset)
	if err != nil {
		return err
	}
	position, _, err := e.findOrCreateCollateral(user, asset)
	if err != nil {
		return err
	}
	debt, _, err := e.findOrCreateDebt(user, asset)
	if err != nil {
		return err
	}

	newDeposited, err := checkedAdd(position.DepositedAmount, amount)
	if err != nil {
		return err
	}
	newBalance, err := checkedAdd(debt.CollateralBalance, amount)
	if err != nil {
		return err
	}

	if err := e.bridge.Transfer(asset, user, pool.Vault, amount); err != nil {
		return err
	}

	position.DepositedAmount = newDeposited
	debt.CollateralBalance = newBalance
	if err := e.state.PutCollateral(position); err != nil {
		return err
	}
	if err := e.state.PutDebt(debt); err != nil {
		return err
	}

	e.emit(NewCollateralDepositedEvent(user, asset, amount))
	return nil
}

// Mint borrows debt asset against deposited collateral. The requested token
// amount is normalised into canonical debt units for the ledger while the
// full token amount is minted to the user. The caller pushes the latest
// price for the collateral asset alongside the request.
func (e *Engine) Mint(user crypto.Address, asset string, amount, newPrice uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrAmountZero
	}
	if newPrice == 0 {
		return ErrInvalidPrice
	}

	units := amount / debtUnitScale

	feed, err := e.loadPrice(asset)
	if err != nil {
		return err
	}
	feed.Price = newPrice

	debt, err := e.state.GetDebt(user, asset)
	if err != nil {
		return err
	}
	// A debt position is only established through Deposit; borrowing against
	// a position that does not exist yet is rejected outright.
	if debt == nil || debt.User.IsZero() {
		return ErrUnauthorizedUser
	}
	if !debt.User.Equal(user) {
		return ErrUnauthorizedUser
	}

	newBorrowed, err := checkedAdd(debt.BorrowedAmount, units)
	if err != nil {
		return err
	}

	position, err := e.state.GetCollateral(user, asset)
	if err != nil {
		return err
	}
	if position == nil {
		return ErrNotEnoughCollateral
	}

	hf, err := healthFactor(position.DepositedAmount, newBorrowed, feed.Price, e.cfg.LiquidationThreshold)
	if err != nil {
		return err
	}
	if hf < e.cfg.MinHealthFactor {
		return ErrLessHealthFactor
	}

	if err := e.bridge.Mint(e.cfg.DebtAsset, user, amount); err != nil {
		return err
	}

	debt.BorrowedAmount = newBorrowed
	debt.HealthFactor = hf
	if err := e.state.PutDebt(debt); err != nil {
		return err
	}
	if err := e.state.PutPrice(feed); err != nil {
		return err
	}

	e.emit(NewDebtMintedEvent(user, asset, amount))
	return nil
}

// Redeem withdraws collateral, optionally repaying debt first. The two paths
// are mutually exclusive:
//
// With dscToGive == 0 the user exits in full, which requires a fully repaid
// debt position; the entire tracked collateral balance is transferred out.
//
// With dscToGive > 0 the supplied debt-asset amount is burned, converted into
// an equivalent collateral amount at the current price, reduced by the
// protocol fee, and the remainder withdrawn, provided the position stays at
// or above the minimum health factor.
//
// The withdrawn collateral amount is returned.
func (e *Engine) Redeem(user crypto.Address, asset string, dscToGive, newPrice uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}

	pool, err := e.loadPool(asset)
	if err != nil {
		return 0, err
	}
	position, err := e.state.GetCollateral(user, asset)
	if err != nil {
		return 0, err
	}
	if position == nil || !position.User.Equal(user) {
		return 0, ErrUnauthorizedUser
	}
	if position.DepositedAmount == 0 {
		return 0, ErrNotEnoughCollateral
	}

	debt, err := e.state.GetDebt(user, asset)
	if err != nil {
		return 0, err
	}
	if debt == nil || debt.User.IsZero() {
		return 0, ErrUnauthorizedUser
	}

	feed, err := e.loadPrice(asset)
	if err != nil {
		return 0, err
	}
	if newPrice > 0 {
		feed.Price = newPrice
	}

	if dscToGive == 0 {
		return e.redeemFullExit(user, asset, pool, position, debt, feed)
	}
	return e.redeemPartial(user, asset, dscToGive, pool, position, debt, feed)
}

func (e *Engine) redeemFullExit(user crypto.Address, asset string, pool *PoolConfig, position *CollateralPosition, debt *DebtPosition, feed *PriceFeed) (uint64, error) {
	if debt.BorrowedAmount != 0 {
		return 0, ErrMustRepayDebtFirst
	}
	amount := debt.CollateralBalance

	if err := e.bridge.Transfer(asset, pool.Vault, user, amount); err != nil {
		return 0, err
	}

	position.DepositedAmount = saturatingSub(position.DepositedAmount, amount)
	debt.CollateralBalance = 0
	debt.HealthFactor = math.MaxUint64
	if err := e.state.PutCollateral(position); err != nil {
		return 0, err
	}
	if err := e.state.PutDebt(debt); err != nil {
		return 0, err
	}
	if err := e.state.PutPrice(feed); err != nil {
		return 0, err
	}

	e.emit(NewCollateralRedeemedEvent(user, asset, amount))
	return amount, nil
}

func (e *Engine) redeemPartial(user crypto.Address, asset string, dscToGive uint64, pool *PoolConfig, position *CollateralPosition, debt *DebtPosition, feed *PriceFeed) (uint64, error) {
	units := dscToGive / debtUnitScale

	newBorrowed, err := checkedSub(debt.BorrowedAmount, units)
	if err != nil {
		return 0, err
	}

	collateralEquiv, err := debtToCollateral(units, feed.Price)
	if err != nil {
		return 0, err
	}
	fee, err := collateralFee(units, feed.Price, e.cfg.FeePercent)
	if err != nil {
		return 0, err
	}
	withdrawable, err := checkedSub(collateralEquiv, fee)
	if err != nil {
		return 0, err
	}
	if position.DepositedAmount < withdrawable {
		return 0, ErrNotEnoughCollateral
	}

	newCollateral := position.DepositedAmount - withdrawable
	newBalance, err := checkedSub(debt.CollateralBalance, collateralEquiv)
	if err != nil {
		return 0, err
	}

	hf := uint64(math.MaxUint64)
	if newBorrowed > 0 {
		// A user may not withdraw into an unsafe position.
		hf, err = healthFactorAfter(newBorrowed, feed.Price, e.cfg.LiquidationThreshold, newCollateral)
		if err != nil {
			return 0, err
		}
		if hf < e.cfg.MinHealthFactor {
			return 0, ErrLessHealthFactor
		}
	}

	lpShare := fee * lpFeeShareNum / lpFeeShareDen
	protocolShare := fee - lpShare
	newCollected, err := checkedAdd(pool.TotalCollectedFees, lpShare)
	if err != nil {
		return 0, err
	}
	newReserve, err := checkedAdd(pool.ProtocolReserve, protocolShare)
	if err != nil {
		return 0, err
	}

	if err := e.bridge.Burn(e.cfg.DebtAsset, user, dscToGive); err != nil {
		return 0, err
	}
	if err := e.bridge.Transfer(asset, pool.Vault, user, withdrawable); err != nil {
		return 0, err
	}

	position.DepositedAmount = newCollateral
	debt.BorrowedAmount = newBorrowed
	debt.CollateralBalance = newBalance
	debt.HealthFactor = hf
	pool.TotalCollectedFees = newCollected
	pool.ProtocolReserve = newReserve
	if err := e.state.PutCollateral(position); err != nil {
		return 0, err
	}
	if err := e.state.PutDebt(debt); err != nil {
		return 0, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return 0, err
	}
	if err := e.state.PutPrice(feed); err != nil {
		return 0, err
	}

	e.emit(NewCollateralRedeemedEvent(user, asset, withdrawable))
	return withdrawable, nil
}

// Liquidate lets a third party repay part of an unsafe borrower's debt in
// exchange for the equivalent collateral plus a bonus. Liquidation is only
// permitted while the position remains below the minimum health factor even
// after the partial repayment, so a liquidator cannot cherry-pick a healthy
// position. The seized collateral amount is returned.
func (e *Engine) Liquidate(liquidator, borrower crypto.Address, asset string, debtToCover, newPrice uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if debtToCover == 0 {
		return 0, ErrAmountZero
	}
	if liquidator.Equal(borrower) {
		return 0, ErrCannotLiquidateSelf
	}

	units := debtToCover / debtUnitScale

	debt, err := e.state.GetDebt(borrower, asset)
	if err != nil {
		return 0, err
	}
	if debt == nil || debt.User.IsZero() {
		return 0, ErrUnauthorizedUser
	}
	if liquidator.Equal(debt.User) {
		return 0, ErrCannotLiquidateSelf
	}
	if units > debt.BorrowedAmount {
		return 0, ErrTooMuchRepay
	}

	pool, err := e.loadPool(asset)
	if err != nil {
		return 0, err
	}
	position, err := e.state.GetCollateral(borrower, asset)
	if err != nil {
		return 0, err
	}
	if position == nil {
		return 0, ErrNotEnoughCollateral
	}

	feed, err := e.loadPrice(asset)
	if err != nil {
		return 0, err
	}
	if newPrice > 0 {
		feed.Price = newPrice
	}

	remaining := debt.BorrowedAmount - units
	hf, err := healthFactor(position.DepositedAmount, remaining, feed.Price, e.cfg.LiquidationThreshold)
	if err != nil {
		return 0, err
	}
	if hf >= e.cfg.MinHealthFactor {
		return 0, ErrNoNeedToLiquidate
	}

	collateralEquiv, err := debtToCollateral(units, feed.Price)
	if err != nil {
		return 0, err
	}
	bonus, err := checkedMul(collateralEquiv, e.cfg.LiquidationBonus)
	if err != nil {
		return 0, err
	}
	bonus /= 100
	totalReward, err := checkedAdd(collateralEquiv, bonus)
	if err != nil {
		return 0, err
	}
	// Liquidation never seizes more than is on deposit.
	if position.DepositedAmount < totalReward {
		return 0, ErrNotEnoughCollateral
	}

	if err := e.bridge.Burn(e.cfg.DebtAsset, liquidator, debtToCover); err != nil {
		return 0, err
	}
	if err := e.bridge.Transfer(asset, pool.Vault, liquidator, totalReward); err != nil {
		return 0, err
	}

	position.DepositedAmount -= totalReward
	debt.BorrowedAmount = saturatingSub(debt.BorrowedAmount, units)
	debt.CollateralBalance = saturatingSub(debt.CollateralBalance, totalReward)
	debt.HealthFactor = hf
	if err := e.state.PutCollateral(position); err != nil {
		return 0, err
	}
	if err := e.state.PutDebt(debt); err != nil {
		return 0, err
	}
	if err := e.state.PutPrice(feed); err != nil {
		return 0, err
	}

	e.emit(NewLiquidatedEvent(liquidator, borrower, asset, totalReward))
	return totalReward, nil
}

// RecomputeHealthFactor refreshes and stores the cached health factor for a
// borrower at the supplied price, emitting the result.
func (e *Engine) RecomputeHealthFactor(user crypto.Address, asset string, newPrice uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	if newPrice == 0 {
		return 0, ErrInvalidPrice
	}

	debt, err := e.state.GetDebt(user, asset)
	if err != nil {
		return 0, err
	}
	if debt == nil || debt.User.IsZero() {
		return 0, ErrUnauthorizedUser
	}

	feed, err := e.loadPrice(asset)
	if err != nil {
		return 0, err
	}
	feed.Price = newPrice

	hf, err := healthFactor(debt.CollateralBalance, debt.BorrowedAmount, feed.Price, e.cfg.LiquidationThreshold)
	if err != nil {
		return 0, err
	}

	debt.HealthFactor = hf
	if err := e.state.PutDebt(debt); err != nil {
		return 0, err
	}
	if err := e.state.PutPrice(feed); err != nil {
		return 0, err
	}

	e.emit(NewHealthFactorEvent(hf))
	return hf, nil
}

// --- Read surface ---

// CollateralOf returns the deposited amount for a (user, asset) pair. Users
// without a position read as zero.
func (e *Engine) CollateralOf(user crypto.Address, asset string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	position, err := e.state.GetCollateral(user, asset)
	if err != nil {
		return 0, err
	}
	if position == nil {
		return 0, nil
	}
	return position.DepositedAmount, nil
}

// DebtOf returns a copy of the user's debt position against an asset, or nil
// when none exists.
func (e *Engine) DebtOf(user crypto.Address, asset string) (*DebtPosition, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	debt, err := e.state.GetDebt(user, asset)
	if err != nil {
		return nil, err
	}
	return debt.Clone(), nil
}

// HealthFactorOf computes the current health factor for a borrower at the
// stored price, without mutating any record.
func (e *Engine) HealthFactorOf(user crypto.Address, asset string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	debt, err := e.state.GetDebt(user, asset)
	if err != nil {
		return 0, err
	}
	if debt == nil {
		return math.MaxUint64, nil
	}
	feed, err := e.loadPrice(asset)
	if err != nil {
		return 0, err
	}
	return healthFactor(debt.CollateralBalance, debt.BorrowedAmount, feed.Price, e.cfg.LiquidationThreshold)
}

// PoolOf returns a copy of the pool state for an asset.
func (e *Engine) PoolOf(asset string) (*PoolConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.state.GetPool(asset)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrAssetNotRegistered
	}
	return pool.Clone(), nil
}

// PriceOf returns the stored price for an asset.
func (e *Engine) PriceOf(asset string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	feed, err := e.loadPrice(asset)
	if err != nil {
		return 0, err
	}
	return feed.Price, nil
}

// --- Helpers ---

func (e *Engine) loadPool(asset string) (*PoolConfig, error) {
	pool, err := e.state.GetPool(asset)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrAssetNotRegistered
	}
	return pool, nil
}

func (e *Engine) loadPrice(asset string) (*PriceFeed, error) {
	feed, err := e.state.GetPrice(asset)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, ErrAssetNotRegistered
	}
	return feed, nil
}

// findOrCreateCollateral resolves the caller's collateral position, creating
// a fresh record with the owner stamped when none exists. A stored position
// owned by a different user is rejected.
func (e *Engine) findOrCreateCollateral(user crypto.Address, asset string) (*CollateralPosition, bool, error) {
	position, err := e.state.GetCollateral(user, asset)
	if err != nil {
		return nil, false, err
	}
	if position == nil {
		return &CollateralPosition{User: user, Asset: asset}, true, nil
	}
	if !position.User.Equal(user) {
		return nil, false, ErrUnauthorizedUser
	}
	return position, false, nil
}

// findOrCreateDebt resolves the caller's debt position against an asset,
// stamping the owner and primary asset on first use. Positions are held per
// (user, asset) pair so balances never mix across collateral assets.
func (e *Engine) findOrCreateDebt(user crypto.Address, asset string) (*DebtPosition, bool, error) {
	debt, err := e.state.GetDebt(user, asset)
	if err != nil {
		return nil, false, err
	}
	if debt == nil {
		return &DebtPosition{
			User:         user,
			PrimaryAsset: asset,
			HealthFactor: math.MaxUint64,
		}, true, nil
	}
	if !debt.User.Equal(user) {
		return nil, false, ErrUnauthorizedUser
	}
	return debt, false, nil
}
