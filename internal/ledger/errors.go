package ledger

import "errors"

var (
	// ErrInvalidPercent is returned when a percentage falls outside the
	// accepted window for the operation.
	ErrInvalidPercent = errors.New("ledger: percent out of range")
	// ErrCouponAlreadyApplied is returned when a coupon is applied over an
	// existing coupon layer. Only one coupon may be active at a time.
	ErrCouponAlreadyApplied = errors.New("ledger: coupon already applied")
	// ErrNoCouponApplied is returned when removing a coupon that is not there.
	ErrNoCouponApplied = errors.New("ledger: no coupon applied")
	// ErrCouponRemovalBlocked is returned when removing a coupon while an
	// admin discount snapshot exists. The snapshot does not preserve the
	// coupon-layer value, so the admin discount must be removed first.
	ErrCouponRemovalBlocked = errors.New("ledger: coupon removal blocked by admin discount")
	// ErrDivisionGuard is surfaced when reconstruction meets a persisted
	// percent at or above 100%. Treated as a data-integrity alarm.
	ErrDivisionGuard = errors.New("ledger: reconstruction division guard")
	// ErrItemLocked is returned when a shopper mutation targets a booked item.
	ErrItemLocked = errors.New("ledger: item is booked")
	// ErrNoAdminDiscount is returned when removing an admin discount that is
	// not active.
	ErrNoAdminDiscount = errors.New("ledger: no admin discount applied")
)
