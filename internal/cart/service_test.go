package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/catalog"
	"github.com/travela-id/backend-travela/internal/coupon"
	"github.com/travela-id/backend-travela/internal/ledger"
	"github.com/travela-id/backend-travela/internal/money"
	"github.com/travela-id/backend-travela/internal/repo"
)

type memItemStore struct {
	items map[uuid.UUID]ledger.LineItem
	clock time.Time
}

func newMemItemStore() *memItemStore {
	return &memItemStore{items: map[uuid.UUID]ledger.LineItem{}, clock: time.Unix(1700000000, 0).UTC()}
}

func (m *memItemStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memItemStore) Load(_ context.Context, id uuid.UUID) (ledger.LineItem, error) {
	item, ok := m.items[id]
	if !ok {
		return ledger.LineItem{}, repo.ErrNotFound
	}
	return item, nil
}

func (m *memItemStore) Create(_ context.Context, item ledger.LineItem) (ledger.LineItem, error) {
	now := m.tick()
	item.CreatedAt = now
	item.UpdatedAt = now
	m.items[item.ID] = item
	return item, nil
}

func (m *memItemStore) Save(_ context.Context, item ledger.LineItem, expectedUpdatedAt time.Time) (ledger.LineItem, error) {
	current, ok := m.items[item.ID]
	if !ok {
		return ledger.LineItem{}, repo.ErrNotFound
	}
	if !current.UpdatedAt.Equal(expectedUpdatedAt) {
		return ledger.LineItem{}, repo.ErrStaleWrite
	}
	item.UpdatedAt = m.tick()
	m.items[item.ID] = item
	return item, nil
}

func (m *memItemStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memItemStore) ListByOwner(_ context.Context, ownerID uuid.UUID, state *ledger.State) ([]ledger.LineItem, error) {
	var out []ledger.LineItem
	for _, item := range m.items {
		if item.OwnerID != ownerID {
			continue
		}
		if state != nil && item.State != *state {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

type stubCatalog struct {
	pkg catalog.Package
}

func (s stubCatalog) Get(_ context.Context, id uuid.UUID) (catalog.Package, error) {
	if id != s.pkg.ID {
		return catalog.Package{}, catalog.ErrNotFound
	}
	return s.pkg, nil
}

type stubCoupons struct {
	rules map[string]coupon.Rule
	used  map[string]int
}

func newStubCoupons(rules ...coupon.Rule) *stubCoupons {
	s := &stubCoupons{rules: map[string]coupon.Rule{}, used: map[string]int{}}
	for _, r := range rules {
		s.rules[r.Code] = r
	}
	return s
}

func (s *stubCoupons) Lookup(_ context.Context, code string, ownerID uuid.UUID) (coupon.Rule, error) {
	rule, ok := s.rules[code]
	if !ok {
		return coupon.Rule{}, coupon.ErrNotFound
	}
	if err := rule.Validate(ownerID, time.Now()); err != nil {
		return coupon.Rule{}, err
	}
	return rule, nil
}

func (s *stubCoupons) MarkUsed(_ context.Context, code string, _ uuid.UUID) error {
	if _, ok := s.rules[code]; !ok {
		return coupon.ErrNotFound
	}
	s.used[code]++
	return nil
}

func testPackage() catalog.Package {
	return catalog.Package{
		ID:          uuid.New(),
		Slug:        "bali-getaway",
		Title:       "Bali Getaway",
		BasePrice:   8000,
		PerDayPrice: 1000,
		FlightPrice: 2500,
		VisaFee:     500,
		BaseDays:    3,
	}
}

func testService(t *testing.T) (*Service, *memItemStore, *stubCoupons, catalog.Package) {
	t.Helper()
	store := newMemItemStore()
	pkg := testPackage()
	coupons := newStubCoupons(coupon.Rule{Code: "SAVE20", Title: "Save 20%", Bps: 2000})
	svc := &Service{Items: store, Catalog: stubCatalog{pkg: pkg}, Coupons: coupons}
	return svc, store, coupons, pkg
}

func TestCreateItemQuotesCatalogPrice(t *testing.T) {
	svc, _, _, pkg := testService(t)
	ownerID := uuid.New()

	cfg := ledger.QuantityConfig{DurationDays: 3, Travelers: 2, WithVisa: true}
	item, err := svc.CreateItem(context.Background(), ownerID, pkg.ID, cfg)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.CurrentPrice != 16000 {
		t.Fatalf("expected package price 16000, got %d", item.CurrentPrice)
	}
	if item.VisaCost != 1000 {
		t.Fatalf("expected visa cost 1000, got %d", item.VisaCost)
	}
	if item.State != ledger.StateCart {
		t.Fatalf("expected CART state, got %s", item.State)
	}
}

func TestCreateItemUnknownPackage(t *testing.T) {
	svc, _, _, _ := testService(t)

	_, err := svc.CreateItem(context.Background(), uuid.New(), uuid.New(), ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected catalog.ErrNotFound, got %v", err)
	}
}

func TestApplyCouponPersistsThenMarksUsed(t *testing.T) {
	svc, store, coupons, pkg := testService(t)
	ownerID := uuid.New()

	item, err := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	updated, err := svc.ApplyCoupon(context.Background(), ownerID, item.ID, "SAVE20")
	if err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	want := money.Money(6400) // 8000 - 20%
	if updated.CurrentPrice != want {
		t.Fatalf("expected discounted price %d, got %d", want, updated.CurrentPrice)
	}
	if coupons.used["SAVE20"] != 1 {
		t.Fatalf("expected coupon marked used once, got %d", coupons.used["SAVE20"])
	}
	persisted, _ := store.Load(context.Background(), item.ID)
	if persisted.CurrentPrice != want {
		t.Fatalf("discount not persisted, store has %d", persisted.CurrentPrice)
	}
}

func TestApplyCouponUnknownCode(t *testing.T) {
	svc, _, _, pkg := testService(t)
	ownerID := uuid.New()

	item, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	_, err := svc.ApplyCoupon(context.Background(), ownerID, item.ID, "NOPE")
	if !errors.Is(err, coupon.ErrNotFound) {
		t.Fatalf("expected coupon.ErrNotFound, got %v", err)
	}
}

func TestRemoveCouponBlockedAfterAdminDiscount(t *testing.T) {
	svc, _, _, pkg := testService(t)
	ownerID := uuid.New()

	item, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	if _, err := svc.ApplyCoupon(context.Background(), ownerID, item.ID, "SAVE20"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if _, err := svc.ApplyAdminDiscount(context.Background(), item.ID, 1000); err != nil {
		t.Fatalf("ApplyAdminDiscount: %v", err)
	}
	_, err := svc.RemoveCoupon(context.Background(), ownerID, item.ID)
	if !errors.Is(err, ledger.ErrCouponRemovalBlocked) {
		t.Fatalf("expected ErrCouponRemovalBlocked, got %v", err)
	}
	// removing the admin layer first unblocks the coupon
	if _, err := svc.RemoveAdminDiscount(context.Background(), item.ID); err != nil {
		t.Fatalf("RemoveAdminDiscount: %v", err)
	}
	restored, err := svc.RemoveCoupon(context.Background(), ownerID, item.ID)
	if err != nil {
		t.Fatalf("RemoveCoupon after unblock: %v", err)
	}
	if restored.CurrentPrice != 8000 {
		t.Fatalf("expected original 8000 after removal, got %d", restored.CurrentPrice)
	}
}

func TestUpdateConfigClearsDiscountChain(t *testing.T) {
	svc, _, _, pkg := testService(t)
	ownerID := uuid.New()

	item, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	if _, err := svc.ApplyCoupon(context.Background(), ownerID, item.ID, "SAVE20"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	updated, err := svc.UpdateConfig(context.Background(), ownerID, item.ID, ledger.QuantityConfig{DurationDays: 5, Travelers: 2})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if updated.HasCoupon() || updated.HasAdminDiscount() {
		t.Fatalf("expected discount chain cleared, got coupon=%v admin=%v", updated.Coupon, updated.PriceBeforeAdmin)
	}
	if updated.CurrentPrice != 20000 { // (8000 + 2 extra days * 1000) * 2 travelers
		t.Fatalf("expected requoted price 20000, got %d", updated.CurrentPrice)
	}
}

func TestDeleteBookedItemRefused(t *testing.T) {
	svc, store, _, pkg := testService(t)
	ownerID := uuid.New()

	item, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	stored := store.items[item.ID]
	stored.State = ledger.StateBooked
	store.items[item.ID] = stored

	err := svc.DeleteItem(context.Background(), ownerID, item.ID)
	if !errors.Is(err, ledger.ErrItemLocked) {
		t.Fatalf("expected ErrItemLocked, got %v", err)
	}
}

func TestOwnerScopingHidesForeignItems(t *testing.T) {
	svc, _, _, pkg := testService(t)
	ownerID := uuid.New()

	item, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	_, err := svc.ApplyCoupon(context.Background(), uuid.New(), item.ID, "SAVE20")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

type staleStore struct {
	*memItemStore
}

func (s staleStore) Save(context.Context, ledger.LineItem, time.Time) (ledger.LineItem, error) {
	return ledger.LineItem{}, repo.ErrStaleWrite
}

func TestStaleWriteSurfaced(t *testing.T) {
	svc, store, _, pkg := testService(t)
	ownerID := uuid.New()

	item, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})

	// a concurrent writer wins the row between load and save
	svc.Items = staleStore{memItemStore: store}
	_, err := svc.ApplyCoupon(context.Background(), ownerID, item.ID, "SAVE20")
	if !errors.Is(err, repo.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
}

func TestViewReconstructsPrices(t *testing.T) {
	svc, _, _, pkg := testService(t)
	ownerID := uuid.New()

	a, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1})
	if _, err := svc.ApplyCoupon(context.Background(), ownerID, a.ID, "SAVE20"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	b, _ := svc.CreateItem(context.Background(), ownerID, pkg.ID, ledger.QuantityConfig{DurationDays: 3, Travelers: 1, WithVisa: true})

	views, total, err := svc.View(context.Background(), ownerID, nil)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	wantTotal := money.Money(6400) + b.Total()
	if total != wantTotal {
		t.Fatalf("expected total %d, got %d", wantTotal, total)
	}
	for _, v := range views {
		if v.Item.ID == a.ID {
			if v.Breakdown.Original != 8000 {
				t.Fatalf("expected reconstructed original 8000, got %d", v.Breakdown.Original)
			}
			if v.CouponLabel == "" {
				t.Fatalf("expected coupon label on discounted item")
			}
		}
	}
}
