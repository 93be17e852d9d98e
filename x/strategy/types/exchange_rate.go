package types

import (
	"cosmossdk.io/math"
)

// The functions below are the stateless exchange rate engine. All of them
// divide with truncation so rounding always favours the pool.

// SharesToUnderlying converts shares to underlying at the given pool state.
// An empty pool converts 1:1.
func SharesToUnderlying(balance, totalShares, shares math.Int) (math.Int, error) {
	if totalShares.IsZero() {
		return shares, nil
	}
	return MulDiv(balance, shares, totalShares)
}

// UnderlyingToShares converts an underlying amount to shares at the given pool state.
func UnderlyingToShares(balance, totalShares, amount math.Int) (math.Int, error) {
	if balance.IsZero() || totalShares.IsZero() {
		return amount, nil
	}
	return MulDiv(amount, totalShares, balance)
}

// DepositShares returns the shares minted for amount when balance already
// includes amount. An empty or drained pool (prior balance zero) mints 1:1.
func DepositShares(balance, totalShares, amount math.Int) (math.Int, error) {
	prior := balance.Sub(amount)
	if prior.IsNegative() {
		return math.Int{}, ErrInvalidAmount.Wrapf("balance %s does not include deposit %s", balance, amount)
	}
	if totalShares.IsZero() || prior.IsZero() {
		return amount, nil
	}
	return MulDiv(amount, totalShares, prior)
}

// WithdrawPayout returns the underlying owed for shares measured against the
// total before the withdrawal. A full drain pays out the whole balance.
func WithdrawPayout(balance, priorTotalShares, shares math.Int) (math.Int, error) {
	if shares.IsZero() {
		return math.ZeroInt(), nil
	}
	if shares.Equal(priorTotalShares) {
		return balance, nil
	}
	return MulDiv(balance, shares, priorTotalShares)
}

// MulDiv computes floor(a*b/denom) for non-negative operands.
func MulDiv(a, b, denom math.Int) (math.Int, error) {
	product, err := a.SafeMul(b)
	if err != nil {
		return math.Int{}, ErrArithmeticOverflow.Wrapf("%s * %s", a, b)
	}
	return product.Quo(denom), nil
}

// ExchangeRate returns the underlying value of ExchangeRatePrecision shares.
func ExchangeRate(balance, totalShares math.Int) (math.Int, error) {
	return SharesToUnderlying(balance, totalShares, ExchangeRatePrecision)
}
