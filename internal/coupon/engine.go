package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/money"
)

var (
	// ErrNotFound indicates the code does not exist or belongs to another owner.
	ErrNotFound = errors.New("coupon: not found")
	// ErrUsed indicates the single-use coupon has already been redeemed.
	ErrUsed = errors.New("coupon: already used")
	// ErrExpired is returned when the coupon validity window has passed.
	ErrExpired = errors.New("coupon: expired")
	// ErrNotYetActive is returned when the coupon window has not opened.
	ErrNotYetActive = errors.New("coupon: not active yet")
	// ErrInvalidPercent indicates a persisted percentage outside [0%, 100%).
	ErrInvalidPercent = errors.New("coupon: percent out of range")
)

// Rule captures the runtime constraints of a coupon. OwnerID is zero for
// codes redeemable by anyone.
type Rule struct {
	Code      string
	Title     string
	Bps       money.Bps
	OwnerID   uuid.UUID
	ValidFrom *time.Time
	ExpiresAt *time.Time
	Used      bool
}

// Validate ensures the rule can be redeemed by the owner at the provided instant.
func (r Rule) Validate(ownerID uuid.UUID, now time.Time) error {
	if r.OwnerID != uuid.Nil && r.OwnerID != ownerID {
		return ErrNotFound
	}
	if r.Bps < 0 || r.Bps >= money.FullBps {
		return ErrInvalidPercent
	}
	if r.Used {
		return ErrUsed
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrNotYetActive
	}
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return ErrExpired
	}
	return nil
}
