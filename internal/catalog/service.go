// Package catalog exposes read-only travel package data and the base price
// formula used whenever a line item is created or reconfigured.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/ledger"
	"github.com/travela-id/backend-travela/internal/money"
)

// ErrNotFound indicates the requested package could not be located.
var ErrNotFound = errors.New("catalog: package not found")

// ErrInvalidConfig is returned when a quantity configuration cannot be priced.
var ErrInvalidConfig = errors.New("catalog: invalid quantity config")

// Package is a catalog entry. BasePrice covers one traveler for BaseDays;
// ListPrice is the advertised strike-through amount and never goes below
// BasePrice.
type Package struct {
	ID          uuid.UUID   `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Destination string      `json:"destination"`
	BasePrice   money.Money `json:"basePrice"`
	ListPrice   money.Money `json:"listPrice"`
	PerDayPrice money.Money `json:"perDayPrice"`
	FlightPrice money.Money `json:"flightPrice"`
	VisaFee     money.Money `json:"visaFee"`
	BaseDays    int         `json:"baseDays"`
}

// Store defines the persistence operations the service needs.
type Store interface {
	GetPackage(ctx context.Context, id uuid.UUID) (Package, error)
}

// Service serves package lookups through a Redis cache.
type Service struct {
	Store Store
	Cache *Cache
}

// Get loads a package by id, consulting the cache first.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Package, error) {
	if s == nil || s.Store == nil {
		return Package{}, errors.New("catalog service not configured")
	}
	key := cacheKey(id)
	var cached Package
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	pkg, err := s.Store.GetPackage(ctx, id)
	if err != nil {
		return Package{}, err
	}
	_ = s.Cache.SetJSON(ctx, key, pkg)
	return pkg, nil
}

// Quote prices a quantity configuration against a package. It returns the
// package-portion price and the visa cost separately; the visa cost is
// additive and never participates in the discount chain.
func Quote(pkg Package, cfg ledger.QuantityConfig) (packagePrice, visaCost money.Money, err error) {
	if cfg.Travelers <= 0 {
		return 0, 0, fmt.Errorf("%w: travelers %d", ErrInvalidConfig, cfg.Travelers)
	}
	if cfg.DurationDays <= 0 {
		return 0, 0, fmt.Errorf("%w: duration %d days", ErrInvalidConfig, cfg.DurationDays)
	}
	perTraveler := pkg.BasePrice
	if extra := cfg.DurationDays - pkg.BaseDays; extra > 0 {
		perTraveler += pkg.PerDayPrice * money.Money(extra)
	}
	if cfg.WithFlight {
		perTraveler += pkg.FlightPrice
	}
	packagePrice = perTraveler * money.Money(cfg.Travelers)
	if cfg.WithVisa {
		visaCost = pkg.VisaFee * money.Money(cfg.Travelers)
	}
	return packagePrice, visaCost, nil
}

func cacheKey(id uuid.UUID) string {
	return "catalog:pkg:" + id.String()
}
