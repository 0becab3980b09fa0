package coupon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/travela-id/backend-travela/internal/coupon"
)

type stubStore struct {
	rules       map[string]coupon.Rule
	lookupCalls int
	usedCalls   int
}

func (s *stubStore) GetCouponByCode(_ context.Context, code string) (coupon.Rule, error) {
	s.lookupCalls++
	rule, ok := s.rules[code]
	if !ok {
		return coupon.Rule{}, coupon.ErrNotFound
	}
	return rule, nil
}

func (s *stubStore) MarkCouponUsed(_ context.Context, code string, _ uuid.UUID) error {
	s.usedCalls++
	rule, ok := s.rules[code]
	if !ok {
		return coupon.ErrNotFound
	}
	if rule.Used {
		return coupon.ErrUsed
	}
	rule.Used = true
	s.rules[code] = rule
	return nil
}

func newDirectory(t *testing.T, store *stubStore) (*coupon.Directory, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &coupon.Directory{Store: store, R: rdb, CacheTTL: time.Minute}, mr
}

func TestLookupCaches(t *testing.T) {
	store := &stubStore{rules: map[string]coupon.Rule{
		"SUMMER20": {Code: "SUMMER20", Title: "Summer sale", Bps: 2000},
	}}
	dir, _ := newDirectory(t, store)

	for i := 0; i < 2; i++ {
		rule, err := dir.Lookup(context.Background(), "summer20", uuid.New())
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if rule.Bps != 2000 {
			t.Fatalf("unexpected rule: %+v", rule)
		}
	}
	if store.lookupCalls != 1 {
		t.Fatalf("expected 1 store lookup, got %d", store.lookupCalls)
	}
}

func TestMarkUsedInvalidatesCache(t *testing.T) {
	store := &stubStore{rules: map[string]coupon.Rule{
		"ONCE": {Code: "ONCE", Bps: 1500},
	}}
	dir, _ := newDirectory(t, store)
	owner := uuid.New()

	if _, err := dir.Lookup(context.Background(), "ONCE", owner); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if err := dir.MarkUsed(context.Background(), "ONCE", owner); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if _, err := dir.Lookup(context.Background(), "ONCE", owner); !errors.Is(err, coupon.ErrUsed) {
		t.Fatalf("expected ErrUsed after redemption, got %v", err)
	}
}

func TestLookupUnknownCode(t *testing.T) {
	dir, _ := newDirectory(t, &stubStore{rules: map[string]coupon.Rule{}})
	if _, err := dir.Lookup(context.Background(), "NOPE", uuid.New()); !errors.Is(err, coupon.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
