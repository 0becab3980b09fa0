package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/travela-id/backend-travela/internal/catalog"
)

// PackageStore reads catalog packages.
type PackageStore struct {
	DB Querier
}

// GetPackage loads a package by id.
func (s PackageStore) GetPackage(ctx context.Context, id uuid.UUID) (catalog.Package, error) {
	var pkg catalog.Package
	err := s.DB.QueryRow(ctx, `
SELECT id, slug, title, destination, base_price, list_price, per_day_price,
       flight_price, visa_fee, base_days
FROM packages WHERE id = $1`, id).Scan(
		&pkg.ID, &pkg.Slug, &pkg.Title, &pkg.Destination,
		&pkg.BasePrice, &pkg.ListPrice, &pkg.PerDayPrice,
		&pkg.FlightPrice, &pkg.VisaFee, &pkg.BaseDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Package{}, catalog.ErrNotFound
		}
		return catalog.Package{}, fmt.Errorf("get package: %w", err)
	}
	return pkg, nil
}
