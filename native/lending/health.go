package lending

import (
	"math"

	"github.com/holiman/uint256"
)

// healthFactor computes the solvency ratio for a position. Debt is expressed
// in canonical debt units, collateral in raw asset units, price in 1e4 fixed
// point and threshold on a 0-100 scale.
//
// A position with no debt is infinitely solvent. The early guard rejects
// positions whose debt is too large relative to collateral for the chosen
// fixed-point scale before the final division can truncate the result into a
// deceptively high value.
func healthFactor(collateralAmount, debtAmount, price, threshold uint64) (uint64, error) {
	if debtAmount == 0 {
		return math.MaxUint64, nil
	}

	collateralValue, err := checkedMul(collateralAmount, price)
	if err != nil {
		return 0, err
	}
	thresholdValue, err := checkedMul(collateralValue, threshold)
	if err != nil {
		return 0, err
	}
	thresholdValue /= thresholdDenominator

	scaledDebt, err := checkedMul(debtAmount, priceScale)
	if err != nil {
		return 0, err
	}
	if scaledDebt > thresholdValue {
		return 0, ErrOverCollateralLimit
	}

	wide := new(uint256.Int).Mul(uint256.NewInt(thresholdValue), uint256.NewInt(healthFactorScaleUp))
	wide.Div(wide, uint256.NewInt(healthFactorScaleDown))
	wide.Div(wide, uint256.NewInt(debtAmount))
	if !wide.IsUint64() {
		return 0, ErrMathOverflow
	}
	return wide.Uint64(), nil
}

// healthFactorAfter computes the health factor a position would have with a
// hypothetical remaining collateral balance. It backs the withdrawal
// pre-flight check and performs no mutation. Unlike healthFactor it carries
// no over-collateral guard: a shrinking collateral balance is bounded by the
// caller's solvency check against the minimum.
func healthFactorAfter(debtAmount, price, threshold, remainingCollateral uint64) (uint64, error) {
	if debtAmount == 0 {
		return math.MaxUint64, nil
	}

	collateralValue, err := checkedMul(remainingCollateral, price)
	if err != nil {
		return 0, err
	}
	thresholdValue, err := checkedMul(collateralValue, threshold)
	if err != nil {
		return 0, err
	}
	thresholdValue /= thresholdDenominator

	wide := new(uint256.Int).Mul(uint256.NewInt(thresholdValue), uint256.NewInt(healthFactorScaleUp))
	wide.Div(wide, uint256.NewInt(healthFactorScaleDown))
	wide.Div(wide, uint256.NewInt(debtAmount))
	if !wide.IsUint64() {
		return 0, ErrMathOverflow
	}
	return wide.Uint64(), nil
}
