package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store defines the persistence operations the directory needs.
type Store interface {
	GetCouponByCode(ctx context.Context, code string) (Rule, error)
	MarkCouponUsed(ctx context.Context, code string, ownerID uuid.UUID) error
}

// Directory validates and redeems coupon codes. Lookups go through a small
// Redis cache; redemption writes through and invalidates.
type Directory struct {
	Store    Store
	R        *redis.Client
	CacheTTL time.Duration
	Now      func() time.Time
}

func (d *Directory) now() time.Time {
	if d != nil && d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Lookup resolves a code for an owner and checks every redemption rule.
func (d *Directory) Lookup(ctx context.Context, code string, ownerID uuid.UUID) (Rule, error) {
	if d == nil || d.Store == nil {
		return Rule{}, errors.New("coupon directory not configured")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Rule{}, ErrNotFound
	}
	rule, err := d.load(ctx, code)
	if err != nil {
		return Rule{}, err
	}
	if err := rule.Validate(ownerID, d.now()); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// MarkUsed redeems a single-use code and drops any cached copy.
func (d *Directory) MarkUsed(ctx context.Context, code string, ownerID uuid.UUID) error {
	if d == nil || d.Store == nil {
		return errors.New("coupon directory not configured")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := d.Store.MarkCouponUsed(ctx, code, ownerID); err != nil {
		return err
	}
	if d.R != nil {
		_ = d.R.Del(ctx, cacheKey(code)).Err()
	}
	return nil
}

func (d *Directory) load(ctx context.Context, code string) (Rule, error) {
	key := cacheKey(code)
	if d.R != nil {
		data, err := d.R.Get(ctx, key).Bytes()
		if err == nil {
			var cached Rule
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}
	rule, err := d.Store.GetCouponByCode(ctx, code)
	if err != nil {
		return Rule{}, err
	}
	if d.R != nil && d.CacheTTL > 0 {
		if data, err := json.Marshal(rule); err == nil {
			_ = d.R.Set(ctx, key, data, d.CacheTTL).Err()
		}
	}
	return rule, nil
}

func cacheKey(code string) string {
	return "coupon:code:" + code
}
