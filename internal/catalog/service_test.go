package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/travela-id/backend-travela/internal/catalog"
	"github.com/travela-id/backend-travela/internal/ledger"
)

type stubStore struct {
	pkg   catalog.Package
	calls int
}

func (s *stubStore) GetPackage(_ context.Context, id uuid.UUID) (catalog.Package, error) {
	s.calls++
	if id != s.pkg.ID {
		return catalog.Package{}, catalog.ErrNotFound
	}
	return s.pkg, nil
}

func samplePackage() catalog.Package {
	return catalog.Package{
		ID:          uuid.New(),
		Slug:        "bali-getaway",
		Title:       "Bali Getaway",
		Destination: "Bali",
		BasePrice:   4_000,
		ListPrice:   5_000,
		PerDayPrice: 500,
		FlightPrice: 1_200,
		VisaFee:     350,
		BaseDays:    4,
	}
}

func TestGetCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &stubStore{pkg: samplePackage()}
	svc := &catalog.Service{Store: store, Cache: catalog.NewCache(rdb, time.Minute)}

	if _, err := svc.Get(context.Background(), store.pkg.ID); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if _, err := svc.Get(context.Background(), store.pkg.ID); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected 1 store call, got %d", store.calls)
	}
}

func TestGetNotFound(t *testing.T) {
	store := &stubStore{pkg: samplePackage()}
	svc := &catalog.Service{Store: store}
	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuote(t *testing.T) {
	pkg := samplePackage()
	cfg := ledger.QuantityConfig{DurationDays: 6, Travelers: 2, WithFlight: true, WithVisa: true}
	price, visa, err := catalog.Quote(pkg, cfg)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// per traveler: 4000 base + 2 extra days * 500 + 1200 flight = 6200
	if price != 12_400 {
		t.Fatalf("expected 12400, got %d", price)
	}
	if visa != 700 {
		t.Fatalf("expected visa 700, got %d", visa)
	}
}

func TestQuoteWithoutExtras(t *testing.T) {
	pkg := samplePackage()
	cfg := ledger.QuantityConfig{DurationDays: 3, Travelers: 1}
	price, visa, err := catalog.Quote(pkg, cfg)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if price != 4_000 || visa != 0 {
		t.Fatalf("expected 4000/0, got %d/%d", price, visa)
	}
}

func TestQuoteRejectsInvalidConfig(t *testing.T) {
	pkg := samplePackage()
	if _, _, err := catalog.Quote(pkg, ledger.QuantityConfig{DurationDays: 5}); !errors.Is(err, catalog.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, _, err := catalog.Quote(pkg, ledger.QuantityConfig{Travelers: 2}); !errors.Is(err, catalog.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
