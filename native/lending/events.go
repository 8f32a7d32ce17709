package lending

import (
	"strconv"

	"dsclend/core/types"
	"dsclend/crypto"
)

const (
	EventTypeCollateralDeposited = "lending.collateral_deposited"
	EventTypeDebtMinted          = "lending.debt_minted"
	EventTypeCollateralRedeemed  = "lending.collateral_redeemed"
	EventTypeLiquidated          = "lending.liquidated"
	EventTypeLiquiditySupplied   = "lending.liquidity_supplied"
	EventTypeLiquidityRedeemed   = "lending.liquidity_redeemed"
	EventTypeHealthFactor        = "lending.health_factor"
)

// NewCollateralDepositedEvent returns the canonical payload emitted when a
// user locks collateral.
func NewCollateralDepositedEvent(user crypto.Address, asset string, amount uint64) *types.Event {
	return newPositionEvent(EventTypeCollateralDeposited, user, asset, amount)
}

// NewDebtMintedEvent returns the canonical payload emitted when debt asset is
// minted to a borrower.
func NewDebtMintedEvent(user crypto.Address, asset string, amount uint64) *types.Event {
	return newPositionEvent(EventTypeDebtMinted, user, asset, amount)
}

// NewCollateralRedeemedEvent returns the canonical payload emitted when
// collateral leaves the vault back to its owner.
func NewCollateralRedeemedEvent(user crypto.Address, asset string, amount uint64) *types.Event {
	return newPositionEvent(EventTypeCollateralRedeemed, user, asset, amount)
}

// NewLiquiditySuppliedEvent returns the canonical payload emitted when a
// liquidity provider funds the pool.
func NewLiquiditySuppliedEvent(user crypto.Address, asset string, amount uint64) *types.Event {
	return newPositionEvent(EventTypeLiquiditySupplied, user, asset, amount)
}

// NewLiquidatedEvent returns the canonical payload emitted when a third party
// seizes collateral from an unsafe position.
func NewLiquidatedEvent(liquidator, user crypto.Address, asset string, amount uint64) *types.Event {
	evt := newPositionEvent(EventTypeLiquidated, user, asset, amount)
	evt.Attributes["liquidator"] = liquidator.String()
	return evt
}

// NewLiquidityRedeemedEvent returns the canonical payload emitted when a
// liquidity provider exits with their accrued interest share.
func NewLiquidityRedeemedEvent(user crypto.Address, asset string, interest uint64) *types.Event {
	return &types.Event{
		Type: EventTypeLiquidityRedeemed,
		Attributes: map[string]string{
			"user":     user.String(),
			"asset":    asset,
			"interest": strconv.FormatUint(interest, 10),
		},
	}
}

// NewHealthFactorEvent returns the canonical payload emitted when a position's
// health factor is recomputed.
func NewHealthFactorEvent(healthFactor uint64) *types.Event {
	return &types.Event{
		Type: EventTypeHealthFactor,
		Attributes: map[string]string{
			"healthFactor": strconv.FormatUint(healthFactor, 10),
		},
	}
}

func newPositionEvent(eventType string, user crypto.Address, asset string, amount uint64) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"user":   user.String(),
			"asset":  asset,
			"amount": strconv.FormatUint(amount, 10),
		},
	}
}

// lendingEvent adapts a typed payload to the events.Emitter interface.
type lendingEvent struct {
	evt *types.Event
}

// EventType satisfies the events.Event interface.
func (l lendingEvent) EventType() string {
	if l.evt == nil {
		return ""
	}
	return l.evt.Type
}

// Event exposes the underlying broadcast payload.
func (l lendingEvent) Event() *types.Event { return l.evt }
