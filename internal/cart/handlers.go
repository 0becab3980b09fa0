package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/catalog"
	"github.com/travela-id/backend-travela/internal/common"
	"github.com/travela-id/backend-travela/internal/coupon"
	"github.com/travela-id/backend-travela/internal/ledger"
	"github.com/travela-id/backend-travela/internal/money"
	"github.com/travela-id/backend-travela/internal/obs"
	"github.com/travela-id/backend-travela/internal/repo"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc       *Service
	Validator *validator.Validate
}

type configPayload struct {
	DurationDays int  `json:"durationDays" validate:"required,gte=1,lte=90"`
	Travelers    int  `json:"travelers" validate:"required,gte=1,lte=50"`
	WithFlight   bool `json:"withFlight"`
	WithVisa     bool `json:"withVisa"`
}

func (p configPayload) toConfig() ledger.QuantityConfig {
	return ledger.QuantityConfig{
		DurationDays: p.DurationDays,
		Travelers:    p.Travelers,
		WithFlight:   p.WithFlight,
		WithVisa:     p.WithVisa,
	}
}

// Create adds a configured package to the caller's cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	var payload struct {
		PackageID string `json:"packageId" validate:"required,uuid4"`
		configPayload
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	packageID, err := uuid.Parse(payload.PackageID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid package id", nil)
		return
	}
	item, err := h.Svc.CreateItem(r.Context(), ownerID, packageID, payload.toConfig())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": itemJSON(item)})
}

// List returns the caller's items with reconstructed display prices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	var state *ledger.State
	switch strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("state"))) {
	case "":
	case string(ledger.StateCart):
		s := ledger.StateCart
		state = &s
	case string(ledger.StateBooked):
		s := ledger.StateBooked
		state = &s
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "state must be CART or BOOKED", nil)
		return
	}
	views, total, err := h.Svc.View(r.Context(), ownerID, state)
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(views))
	for _, v := range views {
		entry := itemJSON(v.Item)
		entry["breakdown"] = v.Breakdown
		if v.CouponLabel != "" {
			entry["couponLabel"] = v.CouponLabel
		}
		items = append(items, entry)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"items": items,
			"total": total,
		},
	})
}

// UpdateConfig requotes an item for a new quantity configuration.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var payload configPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	item, err := h.Svc.UpdateConfig(r.Context(), ownerID, itemID, payload.toConfig())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": itemJSON(item)})
}

// ApplyCoupon redeems a coupon code against an item.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Code string `json:"code" validate:"required,min=3,max=64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	item, err := h.Svc.ApplyCoupon(r.Context(), ownerID, itemID, payload.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": itemJSON(item)})
}

// RemoveCoupon unwinds the coupon layer of an item.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	item, err := h.Svc.RemoveCoupon(r.Context(), ownerID, itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": itemJSON(item)})
}

// Delete removes a cart item.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.DeleteItem(r.Context(), ownerID, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyAdminDiscount sets or replaces the staff discount on an item.
func (h *Handler) ApplyAdminDiscount(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var payload struct {
		PercentBps int32 `json:"percentBps" validate:"gte=0,lte=10000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	item, err := h.Svc.ApplyAdminDiscount(r.Context(), itemID, money.Bps(payload.PercentBps))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": itemJSON(item)})
}

// RemoveAdminDiscount restores the snapshotted baseline on an item.
func (h *Handler) RemoveAdminDiscount(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	item, err := h.Svc.RemoveAdminDiscount(r.Context(), itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": itemJSON(item)})
}

// Breakdown returns the reconstructed price history of one item.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	item, breakdown, err := h.Svc.Breakdown(r.Context(), itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entry := itemJSON(item)
	entry["breakdown"] = breakdown
	common.JSON(w, http.StatusOK, map[string]any{"data": entry})
}

func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok || strings.TrimSpace(raw) == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject identifier", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) validate(v any) error {
	if h.Validator == nil {
		return nil
	}
	return h.Validator.Struct(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, catalog.ErrInvalidConfig):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "PACKAGE_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, coupon.ErrUsed):
		common.JSONError(w, http.StatusConflict, "COUPON_USED", err.Error(), nil)
	case errors.Is(err, coupon.ErrExpired), errors.Is(err, coupon.ErrNotYetActive):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INVALID", err.Error(), nil)
	case errors.Is(err, ledger.ErrCouponAlreadyApplied):
		common.JSONError(w, http.StatusConflict, "COUPON_ALREADY_APPLIED", err.Error(), nil)
	case errors.Is(err, ledger.ErrNoCouponApplied), errors.Is(err, ledger.ErrNoAdminDiscount):
		common.JSONError(w, http.StatusConflict, "NO_DISCOUNT_APPLIED", err.Error(), nil)
	case errors.Is(err, ledger.ErrCouponRemovalBlocked):
		common.JSONError(w, http.StatusConflict, "COUPON_REMOVAL_BLOCKED", err.Error(), nil)
	case errors.Is(err, ledger.ErrItemLocked):
		common.JSONError(w, http.StatusConflict, "ITEM_LOCKED", err.Error(), nil)
	case errors.Is(err, ledger.ErrInvalidPercent), errors.Is(err, money.ErrInvalidBps):
		common.JSONError(w, http.StatusBadRequest, "INVALID_PERCENT", err.Error(), nil)
	case errors.Is(err, ledger.ErrDivisionGuard), errors.Is(err, money.ErrDivisionGuard):
		common.JSONError(w, http.StatusUnprocessableEntity, "DIVISION_GUARD", err.Error(), nil)
	case errors.Is(err, repo.ErrStaleWrite):
		obs.IncStaleWrite()
		common.JSONError(w, http.StatusConflict, "STALE_WRITE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func itemJSON(item ledger.LineItem) map[string]any {
	entry := map[string]any{
		"id":           item.ID.String(),
		"packageId":    item.PackageID.String(),
		"config":       item.Config,
		"currentPrice": item.CurrentPrice,
		"visaCost":     item.VisaCost,
		"total":        item.Total(),
		"state":        item.State,
		"createdAt":    item.CreatedAt,
		"updatedAt":    item.UpdatedAt,
	}
	if item.Coupon != nil {
		entry["coupon"] = item.Coupon
	}
	if item.PriceBeforeAdmin != nil {
		entry["priceBeforeAdmin"] = *item.PriceBeforeAdmin
	}
	if item.Contact != nil {
		entry["contact"] = item.Contact
	}
	return entry
}
