package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/money"
)

// State is the lifecycle state of a line item.
type State string

const (
	// StateCart marks an item still editable by the shopper.
	StateCart State = "CART"
	// StateBooked marks an item locked by booking conversion.
	StateBooked State = "BOOKED"
)

// QuantityConfig captures the inputs to the base price formula. Changing any
// of these resets the discount chain.
type QuantityConfig struct {
	DurationDays int  `json:"durationDays"`
	Travelers    int  `json:"travelers"`
	WithFlight   bool `json:"withFlight"`
	WithVisa     bool `json:"withVisa"`
}

// AppliedCoupon records the single active coupon layer on a line item.
type AppliedCoupon struct {
	Title string    `json:"title"`
	Bps   money.Bps `json:"bps"`
}

// Contact holds the booking contact attached at conversion time.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// LineItem is one configured package instance in a cart or booking. The
// package-portion price and the partial discount history are the only
// persisted price fields; every display value is reconstructed from them.
type LineItem struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	PackageID uuid.UUID
	Config    QuantityConfig

	// CurrentPrice is the package portion only; VisaCost is additive and
	// never discounted.
	CurrentPrice money.Money
	VisaCost     money.Money

	// PriceBeforeAdmin is the snapshot taken when an admin discount was
	// applied: the price after any coupon but before the admin layer.
	// nil means no admin discount is active.
	PriceBeforeAdmin *money.Money

	// Coupon is nil when no coupon is active.
	Coupon *AppliedCoupon

	State   State
	Contact *Contact

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total is the amount the item contributes to a cart or booking total.
func (it LineItem) Total() money.Money {
	return it.CurrentPrice + it.VisaCost
}

// HasCoupon reports whether a coupon layer is active.
func (it LineItem) HasCoupon() bool {
	return it.Coupon != nil
}

// HasAdminDiscount reports whether an admin discount snapshot exists.
func (it LineItem) HasAdminDiscount() bool {
	return it.PriceBeforeAdmin != nil
}

// Booked reports whether the item has been locked by booking conversion.
func (it LineItem) Booked() bool {
	return it.State == StateBooked
}
