// Package booking converts cart line items into their locked booked state
// and distributes a booking-level coupon across the converted items.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/cart"
	"github.com/travela-id/backend-travela/internal/events"
	"github.com/travela-id/backend-travela/internal/ledger"
	"github.com/travela-id/backend-travela/internal/money"
	"github.com/travela-id/backend-travela/internal/obs"
)

// ErrNoNewItems indicates the selection contains nothing left to convert.
var ErrNoNewItems = errors.New("booking: no new items to convert")

// ItemOutcome reports what happened to one selected item. Conversion is not
// atomic across items, so the caller always learns exactly which items
// succeeded and which did not.
type ItemOutcome struct {
	ItemID uuid.UUID   `json:"itemId"`
	Status string      `json:"status"` // converted | already_booked | failed
	Total  money.Money `json:"total"`
	Weight money.Money `json:"weight,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Result is the finalized outcome of a conversion.
type Result struct {
	Outcomes []ItemOutcome `json:"outcomes"`
	Total    money.Money   `json:"total"`
	Partial  bool          `json:"partial"`
}

// Coupon is a booking-level coupon applied to every newly converted item.
type Coupon struct {
	Title string
	Bps   money.Bps
}

// Service performs booking conversions.
type Service struct {
	Items   cart.ItemStore
	Coupons cart.Coupons
	Events  *events.Bus
}

// Convert locks the selected cart items into the booked state, optionally
// distributing couponCode across them, and returns the finalized total.
// Already-booked items re-selected into a later booking are left untouched;
// their own earlier discounts persist. Each newly converted item receives
// the same coupon percentage, so the aggregate currency effect is
// proportional to each item's pre-discount weight.
func (s *Service) Convert(ctx context.Context, ownerID uuid.UUID, itemIDs []uuid.UUID, couponCode string, contact ledger.Contact) (Result, error) {
	if s == nil || s.Items == nil {
		return Result{}, errors.New("booking service not configured")
	}
	if len(itemIDs) == 0 {
		return Result{}, ErrNoNewItems
	}

	var bookingCoupon *Coupon
	if couponCode != "" {
		if s.Coupons == nil {
			return Result{}, errors.New("booking service not configured")
		}
		rule, err := s.Coupons.Lookup(ctx, couponCode, ownerID)
		if err != nil {
			return Result{}, err
		}
		bookingCoupon = &Coupon{Title: rule.Title, Bps: rule.Bps}
		couponCode = rule.Code
	}

	selection := make([]ledger.LineItem, 0, len(itemIDs))
	outcomes := make([]ItemOutcome, 0, len(itemIDs))
	newItems := 0
	for _, id := range itemIDs {
		item, err := s.Items.Load(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("load item %s: %w", id, err)
		}
		if item.OwnerID != ownerID {
			return Result{}, cart.ErrNotFound
		}
		selection = append(selection, item)
		if !item.Booked() {
			newItems++
		}
	}
	if newItems == 0 {
		obs.IncConversion("no_new_items")
		return Result{}, ErrNoNewItems
	}

	var total money.Money
	failed := false
	for _, item := range selection {
		if item.Booked() {
			total += item.Total()
			outcomes = append(outcomes, ItemOutcome{ItemID: item.ID, Status: "already_booked", Total: item.Total()})
			continue
		}
		outcome, converted := s.convertOne(ctx, item, bookingCoupon, contact)
		outcomes = append(outcomes, outcome)
		if !converted {
			failed = true
			continue
		}
		total += outcome.Total
	}

	if couponCode != "" && anyConverted(outcomes) {
		if err := s.Coupons.MarkUsed(ctx, couponCode, ownerID); err != nil {
			// the per-item discounts are already persisted; report, don't unwind
			failed = true
		}
	}

	if anyConverted(outcomes) {
		s.emit(ctx, outcomes)
	}
	if failed {
		obs.IncConversion("partial")
	} else {
		obs.IncConversion("converted")
	}
	return Result{Outcomes: outcomes, Total: total, Partial: failed}, nil
}

func (s *Service) convertOne(ctx context.Context, item ledger.LineItem, bookingCoupon *Coupon, contact ledger.Contact) (ItemOutcome, bool) {
	weight, err := ledger.OriginalPrice(item)
	if err != nil {
		return ItemOutcome{ItemID: item.ID, Status: "failed", Error: err.Error()}, false
	}
	updated := item
	if bookingCoupon != nil {
		updated, err = ledger.ApplyCoupon(updated, bookingCoupon.Bps, bookingCoupon.Title)
		if err != nil {
			return ItemOutcome{ItemID: item.ID, Status: "failed", Weight: weight, Error: err.Error()}, false
		}
	}
	contactCopy := contact
	updated.State = ledger.StateBooked
	updated.Contact = &contactCopy

	saved, err := s.Items.Save(ctx, updated, item.UpdatedAt)
	if err != nil {
		return ItemOutcome{ItemID: item.ID, Status: "failed", Weight: weight, Error: err.Error()}, false
	}
	return ItemOutcome{ItemID: saved.ID, Status: "converted", Total: saved.Total(), Weight: weight}, true
}

// ReplaceBookingCoupon swaps the booking coupon on a set of booked items by
// removing the old layer and re-running the distribution, never by an
// in-place percentage swap that would compound rounding error. It only works
// while no admin discount is active on any affected item.
func (s *Service) ReplaceBookingCoupon(ctx context.Context, ownerID uuid.UUID, itemIDs []uuid.UUID, newCode string) (Result, error) {
	if s == nil || s.Items == nil || s.Coupons == nil {
		return Result{}, errors.New("booking service not configured")
	}
	rule, err := s.Coupons.Lookup(ctx, newCode, ownerID)
	if err != nil {
		return Result{}, err
	}

	outcomes := make([]ItemOutcome, 0, len(itemIDs))
	var total money.Money
	failed := false
	for _, id := range itemIDs {
		item, err := s.Items.Load(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("load item %s: %w", id, err)
		}
		if item.OwnerID != ownerID {
			return Result{}, cart.ErrNotFound
		}
		// the ledger refuses shopper coupon ops on booked items; the
		// replacement path unlocks for the rewrite and relocks before save
		updated := item
		updated.State = ledger.StateCart
		if updated.HasCoupon() {
			updated, err = ledger.RemoveCoupon(updated)
			if err != nil {
				outcomes = append(outcomes, ItemOutcome{ItemID: item.ID, Status: "failed", Error: err.Error()})
				failed = true
				continue
			}
		}
		updated, err = ledger.ApplyCoupon(updated, rule.Bps, rule.Title)
		if err != nil {
			outcomes = append(outcomes, ItemOutcome{ItemID: item.ID, Status: "failed", Error: err.Error()})
			failed = true
			continue
		}
		updated.State = item.State
		saved, err := s.Items.Save(ctx, updated, item.UpdatedAt)
		if err != nil {
			outcomes = append(outcomes, ItemOutcome{ItemID: item.ID, Status: "failed", Error: err.Error()})
			failed = true
			continue
		}
		total += saved.Total()
		outcomes = append(outcomes, ItemOutcome{ItemID: saved.ID, Status: "converted", Total: saved.Total()})
	}
	if anyConverted(outcomes) {
		if err := s.Coupons.MarkUsed(ctx, rule.Code, ownerID); err != nil {
			failed = true
		}
		s.emit(ctx, outcomes)
	}
	return Result{Outcomes: outcomes, Total: total, Partial: failed}, nil
}

func (s *Service) emit(ctx context.Context, outcomes []ItemOutcome) {
	if s.Events == nil {
		return
	}
	for _, o := range outcomes {
		if o.Status != "converted" {
			continue
		}
		_, _ = s.Events.Emit(ctx, events.TopicBookingCreated, o.ItemID, map[string]any{"total": o.Total})
	}
}

func anyConverted(outcomes []ItemOutcome) bool {
	for _, o := range outcomes {
		if o.Status == "converted" {
			return true
		}
	}
	return false
}
