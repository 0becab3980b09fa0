package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/travela-id/backend-travela/internal/ledger"
)

const itemColumns = `id, owner_id, package_id, duration_days, travelers, with_flight, with_visa,
current_price, visa_cost, price_before_admin, coupon_title, coupon_bps,
state, contact_name, contact_email, contact_phone, created_at, updated_at`

// ItemStore persists line items with optimistic concurrency on updated_at.
type ItemStore struct {
	DB Querier
}

// Load fetches a line item by id.
func (s ItemStore) Load(ctx context.Context, id uuid.UUID) (ledger.LineItem, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+itemColumns+` FROM line_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.LineItem{}, ErrNotFound
		}
		return ledger.LineItem{}, fmt.Errorf("load line item: %w", err)
	}
	return item, nil
}

// Create inserts a new line item and returns it with the stored timestamps.
func (s ItemStore) Create(ctx context.Context, item ledger.LineItem) (ledger.LineItem, error) {
	row := s.DB.QueryRow(ctx, `
INSERT INTO line_items (
  id, owner_id, package_id, duration_days, travelers, with_flight, with_visa,
  current_price, visa_cost, price_before_admin, coupon_title, coupon_bps,
  state, contact_name, contact_email, contact_phone
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING `+itemColumns,
		item.ID, item.OwnerID, item.PackageID,
		item.Config.DurationDays, item.Config.Travelers, item.Config.WithFlight, item.Config.WithVisa,
		item.CurrentPrice, item.VisaCost, item.PriceBeforeAdmin,
		couponTitle(item), couponBps(item),
		string(item.State), contactField(item, "name"), contactField(item, "email"), contactField(item, "phone"),
	)
	created, err := scanItem(row)
	if err != nil {
		return ledger.LineItem{}, fmt.Errorf("create line item: %w", err)
	}
	return created, nil
}

// Save writes the item back guarded by the expected updated_at token. A
// mismatch returns ErrStaleWrite; the caller reloads and retries.
func (s ItemStore) Save(ctx context.Context, item ledger.LineItem, expectedUpdatedAt time.Time) (ledger.LineItem, error) {
	row := s.DB.QueryRow(ctx, `
UPDATE line_items SET
  duration_days = $3, travelers = $4, with_flight = $5, with_visa = $6,
  current_price = $7, visa_cost = $8, price_before_admin = $9,
  coupon_title = $10, coupon_bps = $11, state = $12,
  contact_name = $13, contact_email = $14, contact_phone = $15,
  updated_at = now()
WHERE id = $1 AND updated_at = $2
RETURNING `+itemColumns,
		item.ID, expectedUpdatedAt,
		item.Config.DurationDays, item.Config.Travelers, item.Config.WithFlight, item.Config.WithVisa,
		item.CurrentPrice, item.VisaCost, item.PriceBeforeAdmin,
		couponTitle(item), couponBps(item), string(item.State),
		contactField(item, "name"), contactField(item, "email"), contactField(item, "phone"),
	)
	saved, err := scanItem(row)
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ledger.LineItem{}, fmt.Errorf("save line item: %w", err)
	}
	// distinguish a vanished row from a concurrent write
	var exists bool
	if checkErr := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM line_items WHERE id = $1)`, item.ID).Scan(&exists); checkErr != nil {
		return ledger.LineItem{}, fmt.Errorf("save line item: %w", checkErr)
	}
	if !exists {
		return ledger.LineItem{}, ErrNotFound
	}
	return ledger.LineItem{}, ErrStaleWrite
}

// Delete removes a cart item. Booked items are kept for the booking record.
func (s ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM line_items WHERE id = $1 AND state = $2`, id, string(ledger.StateCart))
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner returns the owner's items, optionally filtered by state.
func (s ItemStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, state *ledger.State) ([]ledger.LineItem, error) {
	query := `SELECT ` + itemColumns + ` FROM line_items WHERE owner_id = $1`
	args := []any{ownerID}
	if state != nil {
		query += ` AND state = $2`
		args = append(args, string(*state))
	}
	query += ` ORDER BY created_at`
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()
	var items []ledger.LineItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (ledger.LineItem, error) {
	var (
		item         ledger.LineItem
		state        string
		couponTitle  *string
		couponBps    *int32
		contactName  *string
		contactEmail *string
		contactPhone *string
	)
	err := row.Scan(
		&item.ID, &item.OwnerID, &item.PackageID,
		&item.Config.DurationDays, &item.Config.Travelers, &item.Config.WithFlight, &item.Config.WithVisa,
		&item.CurrentPrice, &item.VisaCost, &item.PriceBeforeAdmin,
		&couponTitle, &couponBps,
		&state, &contactName, &contactEmail, &contactPhone,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return ledger.LineItem{}, err
	}
	item.State = ledger.State(state)
	if couponTitle != nil && couponBps != nil {
		item.Coupon = &ledger.AppliedCoupon{Title: *couponTitle, Bps: *couponBps}
	}
	if contactName != nil || contactEmail != nil || contactPhone != nil {
		item.Contact = &ledger.Contact{
			Name:  deref(contactName),
			Email: deref(contactEmail),
			Phone: deref(contactPhone),
		}
	}
	return item, nil
}

func couponTitle(item ledger.LineItem) *string {
	if item.Coupon == nil {
		return nil
	}
	return &item.Coupon.Title
}

func couponBps(item ledger.LineItem) *int32 {
	if item.Coupon == nil {
		return nil
	}
	return &item.Coupon.Bps
}

func contactField(item ledger.LineItem, field string) *string {
	if item.Contact == nil {
		return nil
	}
	switch field {
	case "name":
		return &item.Contact.Name
	case "email":
		return &item.Contact.Email
	default:
		return &item.Contact.Phone
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
