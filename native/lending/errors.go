package lending

import "errors"

var (
	// ErrNilState signals an engine that was never wired to persistence.
	ErrNilState = errors.New("lending engine: state not configured")
	// ErrNilBridge signals an engine that was never wired to token custody.
	ErrNilBridge = errors.New("lending engine: token bridge not configured")
	// ErrAssetNotRegistered signals an operation against an asset with no
	// pool configuration.
	ErrAssetNotRegistered = errors.New("lending engine: asset not registered")

	// Input validation.
	ErrAmountZero        = errors.New("lending engine: amount must be greater than zero")
	ErrUnauthorizedUser  = errors.New("lending engine: unauthorized user")
	ErrInvalidRiskConfig = errors.New("lending engine: invalid risk configuration")

	// Arithmetic.
	ErrOverflow     = errors.New("lending engine: arithmetic overflow")
	ErrMathOverflow = errors.New("lending engine: result does not fit in 64 bits")
	ErrDivision     = errors.New("lending engine: division error")
	ErrInvalidPrice = errors.New("lending engine: price must be greater than zero")

	// Solvency and business rules.
	ErrLessHealthFactor    = errors.New("lending engine: health factor below minimum")
	ErrOverCollateralLimit = errors.New("lending engine: debt too large for collateral at this scale")
	ErrNotEnoughCollateral = errors.New("lending engine: not enough tokens in collateral")
	ErrNoNeedToLiquidate   = errors.New("lending engine: no need to liquidate")
	ErrCannotLiquidateSelf = errors.New("lending engine: cannot liquidate own position")
	ErrTooMuchRepay        = errors.New("lending engine: repay exceeds outstanding debt")
	ErrMustRepayDebtFirst  = errors.New("lending engine: outstanding debt must be repaid first")
	ErrZeroTotalLiquidity  = errors.New("lending engine: pool has zero total liquidity")
)
