package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Bps expresses a percentage in basis points (100 bps = 1%).
type Bps = int32

// FullBps is the basis-point representation of 100%.
const FullBps Bps = 10000

// ErrDivisionGuard is returned when a reverse computation would divide by
// (1 - p) with p >= 100%. Persisted data producing this is corrupt.
var ErrDivisionGuard = errors.New("money: division by non-positive remainder")

// ErrInvalidBps is returned when a basis-point value falls outside the
// accepted range for the operation.
var ErrInvalidBps = errors.New("money: basis points out of range")

// ApplyPercentOff reduces amount by the given percentage, rounding half up.
// Accepts the full closed range [0, 10000] bps; 10000 yields zero.
func ApplyPercentOff(amount Money, bps Bps) (Money, error) {
	if bps < 0 || bps > FullBps {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBps, bps)
	}
	if amount < 0 {
		return 0, fmt.Errorf("money: negative amount %d", amount)
	}
	return divRoundHalfUp(amount*int64(FullBps-bps), int64(FullBps)), nil
}

// RemovePercentOff reverses ApplyPercentOff: it reconstructs the amount that,
// discounted by bps, produced the given amount. Rounds half up. bps must be
// strictly below 10000 or the division has no meaning.
func RemovePercentOff(amount Money, bps Bps) (Money, error) {
	if bps < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBps, bps)
	}
	if bps >= FullBps {
		return 0, fmt.Errorf("%w: %d bps", ErrDivisionGuard, bps)
	}
	if amount < 0 {
		return 0, fmt.Errorf("money: negative amount %d", amount)
	}
	return divRoundHalfUp(amount*int64(FullBps), int64(FullBps-bps)), nil
}

// EffectiveBps derives the discount percentage that turned before into after,
// rounded half up to whole basis points. before must be positive.
func EffectiveBps(before, after Money) (Bps, error) {
	if before <= 0 {
		return 0, fmt.Errorf("%w: baseline %d", ErrDivisionGuard, before)
	}
	if after < 0 || after > before {
		return 0, fmt.Errorf("money: amount %d outside [0, %d]", after, before)
	}
	bps := divRoundHalfUp((before-after)*int64(FullBps), before)
	return Bps(bps), nil
}

// FormatPercent renders a basis-point value as a human readable percentage
// label ("15%" or "12.5%"). Display only; arithmetic always uses Bps.
func FormatPercent(bps Bps) string {
	whole := bps / 100
	frac := bps % 100
	if frac == 0 {
		return strconv.Itoa(int(whole)) + "%"
	}
	s := fmt.Sprintf("%d.%02d", whole, frac)
	s = strings.TrimRight(s, "0")
	return s + "%"
}

func divRoundHalfUp(numerator, denominator int64) int64 {
	// callers guarantee numerator >= 0 and denominator > 0
	return (numerator + denominator/2) / denominator
}
