package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/travela-id/backend-travela/internal/coupon"
)

// CouponStore persists coupon codes.
type CouponStore struct {
	DB Querier
}

// GetCouponByCode loads a coupon rule by its (upper-cased) code.
func (s CouponStore) GetCouponByCode(ctx context.Context, code string) (coupon.Rule, error) {
	var (
		rule    coupon.Rule
		ownerID *uuid.UUID
	)
	err := s.DB.QueryRow(ctx, `
SELECT code, title, bps, owner_id, valid_from, expires_at, used
FROM coupons WHERE code = $1`, code).Scan(
		&rule.Code, &rule.Title, &rule.Bps, &ownerID, &rule.ValidFrom, &rule.ExpiresAt, &rule.Used,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Rule{}, coupon.ErrNotFound
		}
		return coupon.Rule{}, fmt.Errorf("get coupon: %w", err)
	}
	if ownerID != nil {
		rule.OwnerID = *ownerID
	}
	return rule, nil
}

// MarkCouponUsed redeems a single-use code. The update only matches unused
// rows, so a lost race surfaces as ErrUsed rather than a double redemption.
func (s CouponStore) MarkCouponUsed(ctx context.Context, code string, ownerID uuid.UUID) error {
	tag, err := s.DB.Exec(ctx, `
UPDATE coupons SET used = TRUE, used_by = $2, used_at = now()
WHERE code = $1 AND used = FALSE`, code, ownerID)
	if err != nil {
		return fmt.Errorf("mark coupon used: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1)`, code).Scan(&exists); err != nil {
		return fmt.Errorf("mark coupon used: %w", err)
	}
	if !exists {
		return coupon.ErrNotFound
	}
	return coupon.ErrUsed
}
