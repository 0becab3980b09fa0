package events

// Topic constants for item-change events emitted by the booking core.
const (
	TopicItemUpdated     = "item.updated"
	TopicItemRemoved     = "item.removed"
	TopicCouponApplied   = "coupon.applied"
	TopicCouponRemoved   = "coupon.removed"
	TopicDiscountApplied = "discount.applied"
	TopicBookingCreated  = "booking.created"
)

// DefaultTopics returns the canonical list of topics pushed to sync channels.
func DefaultTopics() []string {
	return []string{
		TopicItemUpdated,
		TopicItemRemoved,
		TopicCouponApplied,
		TopicCouponRemoved,
		TopicDiscountApplied,
		TopicBookingCreated,
	}
}
