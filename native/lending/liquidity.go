package lending

import (
	"dsclend/core/events"
	"dsclend/core/types"
	"dsclend/crypto"
	nativecommon "dsclend/native/common"
)

const liquidityModuleName = "liquidity"

// LiquidityEngine orchestrates the provider side of the protocol: funding a
// pool and redeeming the contribution together with a proportional share of
// the fees collected from borrower activity.
type LiquidityEngine struct {
	state   engineState
	bridge  TokenBridge
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewLiquidityEngine constructs a liquidity engine with a no-op emitter.
func NewLiquidityEngine() *LiquidityEngine {
	return &LiquidityEngine{emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *LiquidityEngine) SetState(state engineState) { e.state = state }

// SetBridge wires the engine to the token custody collaborator.
func (e *LiquidityEngine) SetBridge(bridge TokenBridge) { e.bridge = bridge }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *LiquidityEngine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *LiquidityEngine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

func (e *LiquidityEngine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(lendingEvent{evt: event})
}

func (e *LiquidityEngine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.bridge == nil {
		return ErrNilBridge
	}
	return nil
}

// Supply moves the provider's tokens into the pool vault and credits their
// position. Re-deposits are additive.
func (e *LiquidityEngine) Supply(user crypto.Address, asset string, amount uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, liquidityModuleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrAmountZero
	}

	pool, err := e.loadPool(asset)
	if err != nil {
		return err
	}
	lp, _, err := e.findOrCreateLiquidity(user, asset)
	if err != nil {
		return err
	}
	deposit, _, err := e.findOrCreateDeposit(user, asset)
	if err != nil {
		return err
	}

	newContributed, err := checkedAdd(lp.ContributedAmount, amount)
	if err != nil {
		return err
	}
	newDeposit, err := checkedAdd(deposit.Amount, amount)
	if err != nil {
		return err
	}
	newTotal, err := checkedAdd(pool.TotalLiquidity, amount)
	if err != nil {
		return err
	}

	if err := e.bridge.Transfer(asset, user, pool.Vault, amount); err != nil {
		return err
	}

	lp.ContributedAmount = newContributed
	deposit.Amount = newDeposit
	pool.TotalLiquidity = newTotal
	if err := e.state.PutLiquidity(lp); err != nil {
		return err
	}
	if err := e.state.PutLiquidityDeposit(deposit); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}

	e.emit(NewLiquiditySuppliedEvent(user, asset, amount))
	return nil
}

// Redeem pays out the provider's full contribution plus their pro-rata share
// of the currently collected fees, zeroes the position and closes the paired
// deposit record. The payout and the interest portion are returned.
//
// The share is computed at the moment of redemption: late redeemers benefit
// from fees collected after earlier providers have already withdrawn, since
// the denominator shrinks as others exit.
func (e *LiquidityEngine) Redeem(user crypto.Address, asset string) (uint64, uint64, error) {
	if err := e.ready(); err != nil {
		return 0, 0, err
	}
	if err := nativecommon.Guard(e.pauses, liquidityModuleName); err != nil {
		return 0, 0, err
	}

	pool, err := e.loadPool(asset)
	if err != nil {
		return 0, 0, err
	}
	deposit, err := e.state.GetLiquidityDeposit(user, asset)
	if err != nil {
		return 0, 0, err
	}
	if deposit == nil || !deposit.User.Equal(user) {
		return 0, 0, ErrUnauthorizedUser
	}
	if deposit.Amount == 0 {
		return 0, 0, ErrNotEnoughCollateral
	}

	lp, err := e.state.GetLiquidity(user, asset)
	if err != nil {
		return 0, 0, err
	}
	if lp == nil || lp.User.IsZero() {
		return 0, 0, ErrUnauthorizedUser
	}
	if pool.TotalLiquidity == 0 {
		return 0, 0, ErrZeroTotalLiquidity
	}

	contributed := lp.ContributedAmount
	ratio, err := mulDiv(contributed, liquidityRatioScale, pool.TotalLiquidity)
	if err != nil {
		return 0, 0, err
	}
	interest, err := mulDiv(pool.TotalCollectedFees, ratio, liquidityRatioScale)
	if err != nil {
		return 0, 0, err
	}
	payout, err := checkedAdd(contributed, interest)
	if err != nil {
		return 0, 0, err
	}
	newCollected, err := checkedSub(pool.TotalCollectedFees, interest)
	if err != nil {
		return 0, 0, err
	}
	newTotal, err := checkedSub(pool.TotalLiquidity, contributed)
	if err != nil {
		return 0, 0, err
	}

	if err := e.bridge.Transfer(asset, pool.Vault, user, payout); err != nil {
		return 0, 0, err
	}

	lp.ContributedAmount = 0
	pool.TotalCollectedFees = newCollected
	pool.TotalLiquidity = newTotal
	if err := e.state.PutLiquidity(lp); err != nil {
		return 0, 0, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return 0, 0, err
	}
	if err := e.state.DeleteLiquidityDeposit(user, asset); err != nil {
		return 0, 0, err
	}

	e.emit(NewLiquidityRedeemedEvent(user, asset, interest))
	return payout, interest, nil
}

// LiquidityOf returns the provider's currently contributed amount.
func (e *LiquidityEngine) LiquidityOf(user crypto.Address, asset string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	lp, err := e.state.GetLiquidity(user, asset)
	if err != nil {
		return 0, err
	}
	if lp == nil {
		return 0, nil
	}
	return lp.ContributedAmount, nil
}

func (e *LiquidityEngine) loadPool(asset string) (*PoolConfig, error) {
	pool, err := e.state.GetPool(asset)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrAssetNotRegistered
	}
	return pool, nil
}

func (e *LiquidityEngine) findOrCreateLiquidity(user crypto.Address, asset string) (*LiquidityPosition, bool, error) {
	lp, err := e.state.GetLiquidity(user, asset)
	if err != nil {
		return nil, false, err
	}
	if lp == nil {
		return &LiquidityPosition{User: user, Asset: asset}, true, nil
	}
	if !lp.User.Equal(user) {
		return nil, false, ErrUnauthorizedUser
	}
	return lp, false, nil
}

func (e *LiquidityEngine) findOrCreateDeposit(user crypto.Address, asset string) (*LiquidityDeposit, bool, error) {
	deposit, err := e.state.GetLiquidityDeposit(user, asset)
	if err != nil {
		return nil, false, err
	}
	if deposit == nil {
		return &LiquidityDeposit{User: user, Asset: asset}, true, nil
	}
	if !deposit.User.Equal(user) {
		return nil, false, ErrUnauthorizedUser
	}
	return deposit, false, nil
}
