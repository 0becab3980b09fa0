// Package cart orchestrates line-item mutations: catalog quotes, the
// discount ledger, coupon redemption, persistence and change events. All
// price arithmetic lives in the ledger; this package only glues it to I/O.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/catalog"
	"github.com/travela-id/backend-travela/internal/coupon"
	"github.com/travela-id/backend-travela/internal/events"
	"github.com/travela-id/backend-travela/internal/ledger"
	"github.com/travela-id/backend-travela/internal/money"
	"github.com/travela-id/backend-travela/internal/obs"
)

// ErrNotFound indicates the requested item could not be located for the owner.
var ErrNotFound = errors.New("cart: item not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("cart: invalid input")

// ItemStore is the persistence port for line items.
type ItemStore interface {
	Load(ctx context.Context, id uuid.UUID) (ledger.LineItem, error)
	Create(ctx context.Context, item ledger.LineItem) (ledger.LineItem, error)
	Save(ctx context.Context, item ledger.LineItem, expectedUpdatedAt time.Time) (ledger.LineItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, state *ledger.State) ([]ledger.LineItem, error)
}

// Catalog resolves travel packages.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Package, error)
}

// Coupons validates and redeems coupon codes.
type Coupons interface {
	Lookup(ctx context.Context, code string, ownerID uuid.UUID) (coupon.Rule, error)
	MarkUsed(ctx context.Context, code string, ownerID uuid.UUID) error
}

// Service encapsulates cart domain operations.
type Service struct {
	Items   ItemStore
	Catalog Catalog
	Coupons Coupons
	Events  *events.Bus
}

// CreateItem configures a new package instance in the owner's cart.
func (s *Service) CreateItem(ctx context.Context, ownerID, packageID uuid.UUID, cfg ledger.QuantityConfig) (ledger.LineItem, error) {
	if s == nil || s.Items == nil || s.Catalog == nil {
		return ledger.LineItem{}, errors.New("cart service not configured")
	}
	pkg, err := s.Catalog.Get(ctx, packageID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	packagePrice, visaCost, err := catalog.Quote(pkg, cfg)
	if err != nil {
		return ledger.LineItem{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	item := ledger.LineItem{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		PackageID:    packageID,
		Config:       cfg,
		CurrentPrice: packagePrice,
		VisaCost:     visaCost,
		State:        ledger.StateCart,
	}
	created, err := s.Items.Create(ctx, item)
	if err != nil {
		return ledger.LineItem{}, err
	}
	s.emit(ctx, events.TopicItemUpdated, created.ID, map[string]any{"reason": "created"})
	return created, nil
}

// UpdateConfig requotes the item for a new quantity configuration. Any
// active discount chain is cleared: the schema cannot represent a discount
// against a price that no longer exists.
func (s *Service) UpdateConfig(ctx context.Context, ownerID, itemID uuid.UUID, cfg ledger.QuantityConfig) (ledger.LineItem, error) {
	item, err := s.loadOwned(ctx, ownerID, itemID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	pkg, err := s.Catalog.Get(ctx, item.PackageID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	packagePrice, visaCost, err := catalog.Quote(pkg, cfg)
	if err != nil {
		return ledger.LineItem{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	updated, err := ledger.ResetToBase(item, cfg, packagePrice, visaCost)
	if err != nil {
		return ledger.LineItem{}, err
	}
	saved, err := s.Items.Save(ctx, updated, item.UpdatedAt)
	if err != nil {
		return ledger.LineItem{}, err
	}
	s.emit(ctx, events.TopicItemUpdated, saved.ID, map[string]any{"reason": "reconfigured"})
	return saved, nil
}

// ApplyCoupon redeems a code against an item. The coupon is marked used only
// after the discounted price is persisted.
func (s *Service) ApplyCoupon(ctx context.Context, ownerID, itemID uuid.UUID, code string) (ledger.LineItem, error) {
	if s == nil || s.Coupons == nil {
		return ledger.LineItem{}, errors.New("cart service not configured")
	}
	item, err := s.loadOwned(ctx, ownerID, itemID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	rule, err := s.Coupons.Lookup(ctx, code, ownerID)
	if err != nil {
		obs.IncCouponApply("rejected")
		return ledger.LineItem{}, err
	}
	updated, err := ledger.ApplyCoupon(item, rule.Bps, rule.Title)
	if err != nil {
		obs.IncCouponApply("rejected")
		return ledger.LineItem{}, err
	}
	saved, err := s.Items.Save(ctx, updated, item.UpdatedAt)
	if err != nil {
		obs.IncCouponApply("error")
		return ledger.LineItem{}, err
	}
	if err := s.Coupons.MarkUsed(ctx, rule.Code, ownerID); err != nil {
		// the discount is already persisted; redemption bookkeeping must not
		// undo it, so surface nothing beyond the log event
		s.emit(ctx, events.TopicCouponApplied, saved.ID, map[string]any{"code": rule.Code, "markUsedError": err.Error()})
		obs.IncCouponApply("applied")
		return saved, nil
	}
	s.emit(ctx, events.TopicCouponApplied, saved.ID, map[string]any{"code": rule.Code})
	obs.IncCouponApply("applied")
	return saved, nil
}

// RemoveCoupon unwinds the coupon layer of an item.
func (s *Service) RemoveCoupon(ctx context.Context, ownerID, itemID uuid.UUID) (ledger.LineItem, error) {
	item, err := s.loadOwned(ctx, ownerID, itemID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	updated, err := ledger.RemoveCoupon(item)
	if err != nil {
		if errors.Is(err, ledger.ErrCouponRemovalBlocked) {
			obs.IncCouponRemovalBlocked()
		}
		return ledger.LineItem{}, err
	}
	saved, err := s.Items.Save(ctx, updated, item.UpdatedAt)
	if err != nil {
		return ledger.LineItem{}, err
	}
	s.emit(ctx, events.TopicCouponRemoved, saved.ID, nil)
	return saved, nil
}

// ApplyAdminDiscount applies or replaces the staff discount on any item,
// booked ones included.
func (s *Service) ApplyAdminDiscount(ctx context.Context, itemID uuid.UUID, bps money.Bps) (ledger.LineItem, error) {
	if s == nil || s.Items == nil {
		return ledger.LineItem{}, errors.New("cart service not configured")
	}
	item, err := s.Items.Load(ctx, itemID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	updated, err := ledger.ApplyAdminDiscount(item, bps)
	if err != nil {
		return ledger.LineItem{}, err
	}
	saved, err := s.Items.Save(ctx, updated, item.UpdatedAt)
	if err != nil {
		return ledger.LineItem{}, err
	}
	s.emit(ctx, events.TopicDiscountApplied, saved.ID, map[string]any{"bps": bps})
	obs.IncAdminDiscount()
	return saved, nil
}

// RemoveAdminDiscount restores the snapshotted baseline.
func (s *Service) RemoveAdminDiscount(ctx context.Context, itemID uuid.UUID) (ledger.LineItem, error) {
	if s == nil || s.Items == nil {
		return ledger.LineItem{}, errors.New("cart service not configured")
	}
	item, err := s.Items.Load(ctx, itemID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	updated, err := ledger.RemoveAdminDiscount(item)
	if err != nil {
		return ledger.LineItem{}, err
	}
	saved, err := s.Items.Save(ctx, updated, item.UpdatedAt)
	if err != nil {
		return ledger.LineItem{}, err
	}
	s.emit(ctx, events.TopicDiscountApplied, saved.ID, map[string]any{"bps": 0, "removed": true})
	return saved, nil
}

// DeleteItem removes a cart item. Booked items cannot be deleted.
func (s *Service) DeleteItem(ctx context.Context, ownerID, itemID uuid.UUID) error {
	item, err := s.loadOwned(ctx, ownerID, itemID)
	if err != nil {
		return err
	}
	if item.Booked() {
		return ledger.ErrItemLocked
	}
	if err := s.Items.Delete(ctx, itemID); err != nil {
		return err
	}
	s.emit(ctx, events.TopicItemRemoved, itemID, nil)
	return nil
}

// ItemView is one line item with every display value reconstructed from the
// persisted fields. No client-side price state survives a reload.
type ItemView struct {
	Item        ledger.LineItem
	Breakdown   ledger.Breakdown
	CouponLabel string
	Total       money.Money
}

// View lists the owner's items with reconstructed display prices.
func (s *Service) View(ctx context.Context, ownerID uuid.UUID, state *ledger.State) ([]ItemView, money.Money, error) {
	if s == nil || s.Items == nil {
		return nil, 0, errors.New("cart service not configured")
	}
	items, err := s.Items.ListByOwner(ctx, ownerID, state)
	if err != nil {
		return nil, 0, err
	}
	views := make([]ItemView, 0, len(items))
	var total money.Money
	for _, item := range items {
		breakdown, err := ledger.Reconstruct(item)
		if err != nil {
			return nil, 0, err
		}
		view := ItemView{Item: item, Breakdown: breakdown, Total: item.Total()}
		if item.Coupon != nil {
			view.CouponLabel = fmt.Sprintf("%s (%s off)", item.Coupon.Title, money.FormatPercent(item.Coupon.Bps))
		}
		views = append(views, view)
		total += view.Total
	}
	return views, total, nil
}

// Breakdown reconstructs the full price history of a single item for admin
// review.
func (s *Service) Breakdown(ctx context.Context, itemID uuid.UUID) (ledger.LineItem, ledger.Breakdown, error) {
	if s == nil || s.Items == nil {
		return ledger.LineItem{}, ledger.Breakdown{}, errors.New("cart service not configured")
	}
	item, err := s.Items.Load(ctx, itemID)
	if err != nil {
		return ledger.LineItem{}, ledger.Breakdown{}, err
	}
	breakdown, err := ledger.Reconstruct(item)
	if err != nil {
		return ledger.LineItem{}, ledger.Breakdown{}, err
	}
	return item, breakdown, nil
}

func (s *Service) loadOwned(ctx context.Context, ownerID, itemID uuid.UUID) (ledger.LineItem, error) {
	if s == nil || s.Items == nil {
		return ledger.LineItem{}, errors.New("cart service not configured")
	}
	item, err := s.Items.Load(ctx, itemID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	if item.OwnerID != ownerID {
		return ledger.LineItem{}, ErrNotFound
	}
	return item, nil
}

func (s *Service) emit(ctx context.Context, topic string, itemID uuid.UUID, payload any) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, topic, itemID, payload)
}
