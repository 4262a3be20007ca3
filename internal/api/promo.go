package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

type validatePromoRequest struct {
	Code     string   `json:"code"`
	Subtotal *float64 `json:"subtotal,omitempty"`
}

type validatePromoResponse struct {
	Valid           bool    `json:"valid"`
	Discount        float64 `json:"discount"`
	Type            string  `json:"type"`
	MinimumPurchase float64 `json:"minimumPurchase"`
}

// ValidatePromo checks a promo code for the storefront checkout page and
// returns the normalized discount.
func (h *Handler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	var req validatePromoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var subtotal *decimal.Decimal
	if req.Subtotal != nil {
		s := decimal.NewFromFloat(*req.Subtotal)
		subtotal = &s
	}

	result, err := h.validator.Validate(r.Context(), req.Code, subtotal)
	if err != nil {
		var minErr *promo.MinimumPurchaseError
		switch {
		case errors.Is(err, promo.ErrNotFound),
			errors.Is(err, promo.ErrUsageLimitReached):
			writeError(w, r, http.StatusNotFound, err.Error())
		case errors.As(err, &minErr):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			internalError(w, r, err)
		}
		return
	}

	writeJSON(w, r, http.StatusOK, validatePromoResponse{
		Valid:           true,
		Discount:        result.Discount.InexactFloat64(),
		Type:            string(result.Type),
		MinimumPurchase: result.MinimumPurchase.InexactFloat64(),
	})
}

type promoPayload struct {
	ID              string    `json:"id,omitempty"`
	Code            string    `json:"code"`
	Description     string    `json:"description,omitempty"`
	DiscountType    string    `json:"discountType"`
	DiscountValue   float64   `json:"discountValue"`
	MinimumPurchase float64   `json:"minimumPurchase"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	UsageLimit      *int      `json:"usageLimit,omitempty"`
	UsedCount       int       `json:"usedCount"`
	IsActive        bool      `json:"isActive"`
}

// ListPromos returns every promo code for the admin panel.
func (h *Handler) ListPromos(w http.ResponseWriter, r *http.Request) {
	codes, err := h.promos.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	out := make([]promoPayload, len(codes))
	for i := range codes {
		out[i] = toPromoPayload(&codes[i])
	}
	writeJSON(w, r, http.StatusOK, out)
}

// GetPromo returns a single promo code by ID.
func (h *Handler) GetPromo(w http.ResponseWriter, r *http.Request) {
	p, err := h.promos.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, promo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "promo code not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPromoPayload(p))
}

// CreatePromo creates a new promo code.
func (h *Handler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var req promoPayload
	if !decodeJSON(w, r, &req) {
		return
	}

	p := fromPromoPayload(&req)
	p.ID = uuid.New().String()
	if err := p.CheckValid(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.promos.Create(r.Context(), p); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toPromoPayload(p))
}

// UpdatePromo replaces the mutable fields of a promo code.
func (h *Handler) UpdatePromo(w http.ResponseWriter, r *http.Request) {
	var req promoPayload
	if !decodeJSON(w, r, &req) {
		return
	}

	p := fromPromoPayload(&req)
	p.ID = r.PathValue("id")
	if err := p.CheckValid(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.promos.Update(r.Context(), p); err != nil {
		if errors.Is(err, promo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "promo code not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPromoPayload(p))
}

// DeletePromo removes a promo code.
func (h *Handler) DeletePromo(w http.ResponseWriter, r *http.Request) {
	if err := h.promos.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, promo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "promo code not found")
			return
		}
		internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toPromoPayload(p *promo.PromoCode) promoPayload {
	return promoPayload{
		ID:              p.ID,
		Code:            p.Code,
		Description:     p.Description,
		DiscountType:    string(p.DiscountType),
		DiscountValue:   p.DiscountValue.InexactFloat64(),
		MinimumPurchase: p.MinimumPurchase.InexactFloat64(),
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		UsageLimit:      p.UsageLimit,
		UsedCount:       p.UsedCount,
		IsActive:        p.IsActive,
	}
}

func fromPromoPayload(req *promoPayload) *promo.PromoCode {
	return &promo.PromoCode{
		ID:              req.ID,
		Code:            req.Code,
		Description:     req.Description,
		DiscountType:    promo.DiscountType(req.DiscountType),
		DiscountValue:   decimal.NewFromFloat(req.DiscountValue),
		MinimumPurchase: decimal.NewFromFloat(req.MinimumPurchase),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		UsageLimit:      req.UsageLimit,
		IsActive:        req.IsActive,
	}
}
