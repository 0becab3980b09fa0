// Package ledger implements the discount chain of a single line item: the
// pure state transitions for coupon and admin discounts, and the
// reconstruction of historical price points from the persisted snapshot.
//
// Only two price fields are ever persisted: the current price and, while an
// admin discount is active, the price immediately before it. Every displayed
// value (strike-through original, price after coupon, final) is derived from
// those via the functions here, so every surface shows the same numbers.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/travela-id/backend-travela/internal/money"
)

// ApplyCoupon applies a percentage coupon to the item's current price and
// records the coupon layer. The discount applies to whatever the current
// price is, not to a reconstructed original; the redisplay math depends on
// that. Valid coupon percentages are [0%, 100%).
func ApplyCoupon(item LineItem, bps money.Bps, title string) (LineItem, error) {
	if item.Booked() {
		return LineItem{}, ErrItemLocked
	}
	if item.HasCoupon() {
		return LineItem{}, ErrCouponAlreadyApplied
	}
	if bps < 0 || bps >= money.FullBps {
		return LineItem{}, fmt.Errorf("%w: coupon %d bps", ErrInvalidPercent, bps)
	}
	discounted, err := money.ApplyPercentOff(item.CurrentPrice, bps)
	if err != nil {
		return LineItem{}, err
	}
	item.CurrentPrice = discounted
	item.Coupon = &AppliedCoupon{Title: strings.TrimSpace(title), Bps: bps}
	return item, nil
}

// RemoveCoupon reverses the coupon layer. It is rejected while an admin
// discount snapshot exists: the snapshot holds the price after the coupon,
// so the coupon-layer value cannot be unwound without first removing the
// admin discount. This asymmetry is a property of the persisted schema.
func RemoveCoupon(item LineItem) (LineItem, error) {
	if item.Booked() {
		return LineItem{}, ErrItemLocked
	}
	if !item.HasCoupon() {
		return LineItem{}, ErrNoCouponApplied
	}
	if item.HasAdminDiscount() {
		return LineItem{}, ErrCouponRemovalBlocked
	}
	restored, err := money.RemovePercentOff(item.CurrentPrice, item.Coupon.Bps)
	if err != nil {
		if errors.Is(err, money.ErrDivisionGuard) {
			return LineItem{}, fmt.Errorf("%w: coupon %d bps", ErrDivisionGuard, item.Coupon.Bps)
		}
		return LineItem{}, err
	}
	item.CurrentPrice = restored
	item.Coupon = nil
	return item, nil
}

// ApplyAdminDiscount applies or replaces the admin discount layer. The first
// application snapshots the current price as the baseline; a repeated
// application recomputes against that same baseline, so admin discounts
// replace rather than compound. Admins may discount booked items. Valid
// percentages are [0%, 100%].
func ApplyAdminDiscount(item LineItem, bps money.Bps) (LineItem, error) {
	if bps < 0 || bps > money.FullBps {
		return LineItem{}, fmt.Errorf("%w: admin %d bps", ErrInvalidPercent, bps)
	}
	baseline := item.CurrentPrice
	if item.HasAdminDiscount() {
		baseline = *item.PriceBeforeAdmin
	}
	discounted, err := money.ApplyPercentOff(baseline, bps)
	if err != nil {
		return LineItem{}, err
	}
	item.PriceBeforeAdmin = &baseline
	item.CurrentPrice = discounted
	return item, nil
}

// RemoveAdminDiscount restores the snapshotted baseline and clears the admin
// layer, returning the item to its coupon-only (or undiscounted) price.
func RemoveAdminDiscount(item LineItem) (LineItem, error) {
	if !item.HasAdminDiscount() {
		return LineItem{}, ErrNoAdminDiscount
	}
	item.CurrentPrice = *item.PriceBeforeAdmin
	item.PriceBeforeAdmin = nil
	return item, nil
}

// ResetToBase replaces the item's prices with a fresh catalog quote and
// clears the whole discount chain. Called when duration, traveler count or
// flight selection changes: the schema cannot represent a discount against a
// price that no longer exists.
func ResetToBase(item LineItem, cfg QuantityConfig, packagePrice, visaCost money.Money) (LineItem, error) {
	if item.Booked() {
		return LineItem{}, ErrItemLocked
	}
	if packagePrice < 0 || visaCost < 0 {
		return LineItem{}, fmt.Errorf("ledger: negative quote (package %d, visa %d)", packagePrice, visaCost)
	}
	item.Config = cfg
	item.CurrentPrice = packagePrice
	item.VisaCost = visaCost
	item.Coupon = nil
	item.PriceBeforeAdmin = nil
	return item, nil
}

// OriginalPrice reconstructs the pre-discount package price for the
// strike-through display. Read only.
func OriginalPrice(item LineItem) (money.Money, error) {
	switch {
	case !item.HasCoupon() && !item.HasAdminDiscount():
		return item.CurrentPrice, nil
	case item.HasCoupon() && !item.HasAdminDiscount():
		return removeCouponLayer(item.CurrentPrice, item.Coupon.Bps)
	case !item.HasCoupon():
		return *item.PriceBeforeAdmin, nil
	default:
		return removeCouponLayer(*item.PriceBeforeAdmin, item.Coupon.Bps)
	}
}

// PriceAfterCoupon reconstructs the mid-chain value: the price the coupon
// produced before any admin discount. Read only.
func PriceAfterCoupon(item LineItem) money.Money {
	if item.HasAdminDiscount() {
		return *item.PriceBeforeAdmin
	}
	return item.CurrentPrice
}

// Breakdown is the full derived price history of a line item, computed for
// admin review screens.
type Breakdown struct {
	Original    money.Money `json:"original"`
	AfterCoupon money.Money `json:"afterCoupon"`
	Final       money.Money `json:"final"`
	CouponBps   money.Bps   `json:"couponBps"`
	AdminBps    money.Bps   `json:"adminBps"`
}

// Reconstruct derives the complete price breakdown from the persisted
// fields. The admin percentage is not stored; it is derived from the ratio
// of the current price to the snapshot.
func Reconstruct(item LineItem) (Breakdown, error) {
	original, err := OriginalPrice(item)
	if err != nil {
		return Breakdown{}, err
	}
	b := Breakdown{
		Original:    original,
		AfterCoupon: PriceAfterCoupon(item),
		Final:       item.CurrentPrice,
	}
	if item.HasCoupon() {
		b.CouponBps = item.Coupon.Bps
	}
	if item.HasAdminDiscount() && *item.PriceBeforeAdmin != 0 {
		adminBps, err := money.EffectiveBps(*item.PriceBeforeAdmin, item.CurrentPrice)
		if err != nil {
			if errors.Is(err, money.ErrDivisionGuard) {
				return Breakdown{}, fmt.Errorf("%w: admin baseline %d", ErrDivisionGuard, *item.PriceBeforeAdmin)
			}
			return Breakdown{}, err
		}
		b.AdminBps = adminBps
	}
	return b, nil
}

func removeCouponLayer(amount money.Money, bps money.Bps) (money.Money, error) {
	restored, err := money.RemovePercentOff(amount, bps)
	if err != nil {
		if errors.Is(err, money.ErrDivisionGuard) {
			return 0, fmt.Errorf("%w: coupon %d bps", ErrDivisionGuard, bps)
		}
		return 0, err
	}
	return restored, nil
}
