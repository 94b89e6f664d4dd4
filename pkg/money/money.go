// Package money contains integer arithmetic helpers for amounts expressed in whole currency units.
package money

import "math"

// BasisPointsPerUnit number of basis points in a ratio of 1.0
const BasisPointsPerUnit int64 = 10000

// RatioToBasisPoints converts a fractional ratio (0.08) to basis points (800).
// The ratio is rounded to the nearest basis point so that float noise never leaks into amounts.
func RatioToBasisPoints(ratio float64) int64 {
	return int64(math.Round(ratio * float64(BasisPointsPerUnit)))
}

// PercentToBasisPoints converts a percentage (12.5) to basis points (1250).
func PercentToBasisPoints(percent float64) int64 {
	return int64(math.Round(percent * 100))
}

// ApplyBasisPoints returns amount * bp / 10000 rounded half-up.
// Both arguments must be non-negative.
func ApplyBasisPoints(amount, bp int64) int64 {
	return (amount*bp + BasisPointsPerUnit/2) / BasisPointsPerUnit
}

// Max returns the larger of two amounts
func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of two amounts
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
