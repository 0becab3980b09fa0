package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/cart"
	"github.com/travela-id/backend-travela/internal/common"
	"github.com/travela-id/backend-travela/internal/coupon"
	"github.com/travela-id/backend-travela/internal/ledger"
	"github.com/travela-id/backend-travela/internal/obs"
	"github.com/travela-id/backend-travela/internal/repo"
)

// Handler wires booking conversion to HTTP.
type Handler struct {
	Svc       *Service
	Validator *validator.Validate
}

type convertPayload struct {
	ItemIDs []string `json:"itemIds" validate:"required,min=1,dive,uuid4"`
	Coupon  string   `json:"coupon" validate:"omitempty,min=3,max=64"`
	Contact struct {
		Name  string `json:"name" validate:"required,min=2,max=120"`
		Email string `json:"email" validate:"required,email"`
		Phone string `json:"phone" validate:"required,min=6,max=32"`
	} `json:"contact"`
}

// Convert locks the selected cart items into a booking.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking service not configured", nil)
		return
	}
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	var payload convertPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	itemIDs, err := parseIDs(payload.ItemIDs)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	contact := ledger.Contact{
		Name:  strings.TrimSpace(payload.Contact.Name),
		Email: strings.TrimSpace(payload.Contact.Email),
		Phone: strings.TrimSpace(payload.Contact.Phone),
	}
	result, err := h.Svc.Convert(r.Context(), ownerID, itemIDs, strings.TrimSpace(payload.Coupon), contact)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Partial {
		status = http.StatusMultiStatus
	}
	common.JSON(w, status, map[string]any{"data": result})
}

// ReplaceCoupon swaps the booking coupon across a set of booked items.
func (h *Handler) ReplaceCoupon(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking service not configured", nil)
		return
	}
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	var payload struct {
		ItemIDs []string `json:"itemIds" validate:"required,min=1,dive,uuid4"`
		Coupon  string   `json:"coupon" validate:"required,min=3,max=64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	itemIDs, err := parseIDs(payload.ItemIDs)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	result, err := h.Svc.ReplaceBookingCoupon(r.Context(), ownerID, itemIDs, strings.TrimSpace(payload.Coupon))
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	if result.Partial {
		status = http.StatusMultiStatus
	}
	common.JSON(w, status, map[string]any{"data": result})
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

func (h *Handler) validate(v any) error {
	if h.Validator == nil {
		return nil
	}
	return h.Validator.Struct(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoNewItems):
		common.JSONError(w, http.StatusConflict, "NO_NEW_ITEMS", err.Error(), nil)
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, coupon.ErrUsed):
		common.JSONError(w, http.StatusConflict, "COUPON_USED", err.Error(), nil)
	case errors.Is(err, coupon.ErrExpired), errors.Is(err, coupon.ErrNotYetActive):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INVALID", err.Error(), nil)
	case errors.Is(err, repo.ErrStaleWrite):
		obs.IncStaleWrite()
		common.JSONError(w, http.StatusConflict, "STALE_WRITE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
