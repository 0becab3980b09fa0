package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CouponApplyTotal counts coupon application attempts by outcome.
	CouponApplyTotal *prometheus.CounterVec
	// CouponRemovalBlockedTotal counts coupon removals rejected because an
	// admin discount snapshot was present.
	CouponRemovalBlockedTotal prometheus.Counter
	// AdminDiscountTotal counts admin discount grants and replacements.
	AdminDiscountTotal prometheus.Counter
	// BookingConversionTotal counts per-item booking conversion outcomes.
	BookingConversionTotal *prometheus.CounterVec
	// SyncPublishTotal counts sync notification publish outcomes.
	SyncPublishTotal *prometheus.CounterVec
	// StaleWriteTotal counts optimistic-concurrency conflicts surfaced to callers.
	StaleWriteTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CouponApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_apply_total",
			Help:      "Count of coupon application attempts by outcome.",
		}, []string{"result"})
		CouponRemovalBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_removal_blocked_total",
			Help:      "Coupon removals rejected due to an existing admin discount.",
		})
		AdminDiscountTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_discount_total",
			Help:      "Admin discounts granted or replaced on line items.",
		})
		BookingConversionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conversion_total",
			Help:      "Per-item booking conversion outcomes.",
		}, []string{"result"})
		SyncPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_publish_total",
			Help:      "Sync notification publish outcomes.",
		}, []string{"result"})
		StaleWriteTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_write_total",
			Help:      "Optimistic-concurrency conflicts surfaced to callers.",
		})

		mustRegisterCollector(reg, CouponApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponApplyTotal = v
			}
		})
		mustRegisterCollector(reg, CouponRemovalBlockedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CouponRemovalBlockedTotal = v
			}
		})
		mustRegisterCollector(reg, AdminDiscountTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				AdminDiscountTotal = v
			}
		})
		mustRegisterCollector(reg, BookingConversionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BookingConversionTotal = v
			}
		})
		mustRegisterCollector(reg, SyncPublishTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SyncPublishTotal = v
			}
		})
		mustRegisterCollector(reg, StaleWriteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				StaleWriteTotal = v
			}
		})
	})
}

// IncCouponApply increments the coupon application counter when registered.
func IncCouponApply(result string) {
	if CouponApplyTotal != nil {
		CouponApplyTotal.WithLabelValues(result).Inc()
	}
}

// IncCouponRemovalBlocked increments the blocked removal counter when registered.
func IncCouponRemovalBlocked() {
	if CouponRemovalBlockedTotal != nil {
		CouponRemovalBlockedTotal.Inc()
	}
}

// IncAdminDiscount increments the admin discount counter when registered.
func IncAdminDiscount() {
	if AdminDiscountTotal != nil {
		AdminDiscountTotal.Inc()
	}
}

// IncConversion increments the booking conversion counter when registered.
func IncConversion(result string) {
	if BookingConversionTotal != nil {
		BookingConversionTotal.WithLabelValues(result).Inc()
	}
}

// IncStaleWrite increments the stale write counter when registered.
func IncStaleWrite() {
	if StaleWriteTotal != nil {
		StaleWriteTotal.Inc()
	}
}

// IncSyncPublish increments the sync publish counter when registered.
func IncSyncPublish(result string) {
	if SyncPublishTotal != nil {
		SyncPublishTotal.WithLabelValues(result).Inc()
	}
}
