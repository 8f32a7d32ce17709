package lending

import (
	"math"

	"github.com/holiman/uint256"
)

const (
	// priceScale is the fixed-point scale collateral prices are quoted in.
	priceScale = 10_000
	// debtUnitScale converts debt-asset token amounts into the canonical
	// internal debt unit used for all solvency accounting.
	debtUnitScale = 1_000
	// feePercentScale is the denominator applied to RiskConfig.FeePercent.
	feePercentScale = 100_000_000
	// thresholdDenominator converts the 0-100 liquidation threshold into a
	// fraction of collateral value.
	thresholdDenominator = 100

	// healthFactorScaleUp and healthFactorScaleDown form the two-stage
	// fixed-point scale of the health factor result.
	healthFactorScaleUp   = 1_000_000
	healthFactorScaleDown = 10_000_000_000

	// lpFeeShareNum and lpFeeShareDen split withdrawal fees between the
	// liquidity-provider pool and the protocol reserve.
	lpFeeShareNum = 3
	lpFeeShareDen = 4

	// liquidityRatioScale is the fixed-point scale used when splitting
	// collected fees pro rata between liquidity providers.
	liquidityRatioScale = 1_000_000_000
)

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, ErrMathOverflow
	}
	return a * b, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// mulDiv computes a*b/div in a 256-bit intermediate and narrows the result
// back to 64 bits.
func mulDiv(a, b, div uint64) (uint64, error) {
	if div == 0 {
		return 0, ErrDivision
	}
	wide := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	wide.Div(wide, uint256.NewInt(div))
	if !wide.IsUint64() {
		return 0, ErrMathOverflow
	}
	return wide.Uint64(), nil
}

// debtToCollateral converts a canonical debt amount into collateral units at
// the supplied price.
func debtToCollateral(debtAmount, price uint64) (uint64, error) {
	if price == 0 {
		return 0, ErrInvalidPrice
	}
	return mulDiv(debtAmount, priceScale, price)
}

// collateralFee computes the protocol fee charged on a repaid debt amount,
// returned in collateral units.
func collateralFee(debtAmount, price, feePercent uint64) (uint64, error) {
	feeDebt, err := mulDiv(debtAmount, feePercent, feePercentScale)
	if err != nil {
		return 0, err
	}
	return debtToCollateral(feeDebt, price)
}
