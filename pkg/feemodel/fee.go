package feemodel

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TenThousands is the scale of fee rates expressed in basis points
// (ie. 0.35% = 35).
var TenThousands = uint64(10000)

// WithdrawalGross calculates the amount to request from the privacy pool so
// that the recipient receives exactly netAmount after the pool deducts its
// percentage fee and flat rent from the requested amount. Returns the gross
// amount and the calculated percentage fee.
func WithdrawalGross(netAmount, feeAsBasisPoint, flatRent uint64) (gross, calculatedFee uint64) {
	feeDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(feeAsBasisPoint), 0)
	netDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(netAmount), 0)
	rentDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(flatRent), 0)

	calculatedFeeDecimal := netDecimal.Mul(feeDecimal).
		Div(decimal.NewFromInt(int64(TenThousands)))
	grossDecimal := netDecimal.Add(calculatedFeeDecimal).Add(rentDecimal)

	return grossDecimal.BigInt().Uint64(), calculatedFeeDecimal.BigInt().Uint64()
}

// MaxNet is the inverse of WithdrawalGross: the highest net amount that can
// be withdrawn given a balance ceiling, clamped to zero.
func MaxNet(balance, feeAsBasisPoint, flatRent uint64) uint64 {
	if balance <= flatRent {
		return 0
	}

	available := decimal.NewFromBigInt(new(big.Int).SetUint64(balance-flatRent), 0)
	divisor := decimal.NewFromInt(1).Add(
		decimal.NewFromBigInt(new(big.Int).SetUint64(feeAsBasisPoint), 0).
			Div(decimal.NewFromInt(int64(TenThousands))),
	)

	return available.Div(divisor).BigInt().Uint64()
}

// TotalWithFees aggregates the gross amounts of numRecipients withdrawals of
// netAmount each.
func TotalWithFees(netAmount uint64, numRecipients int, feeAsBasisPoint, flatRent uint64) uint64 {
	gross, _ := WithdrawalGross(netAmount, feeAsBasisPoint, flatRent)
	return gross * uint64(numRecipients)
}

// ShieldingNeed returns the extra amount that must be shielded to cover
// totalWithFees with the current shielded balance, never negative.
func ShieldingNeed(totalWithFees, shieldedBalance uint64) uint64 {
	if shieldedBalance >= totalWithFees {
		return 0
	}
	return totalWithFees - shieldedBalance
}

// ProtocolFee calculates the fee charged on a newly shielded amount, paid to
// the protocol treasury with a plain transfer.
func ProtocolFee(amountToShield, feeAsBasisPoint uint64) uint64 {
	feeDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(feeAsBasisPoint), 0)
	amountDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(amountToShield), 0)

	return amountDecimal.Mul(feeDecimal).
		Div(decimal.NewFromInt(int64(TenThousands))).
		BigInt().Uint64()
}
