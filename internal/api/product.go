package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/avelinak/atelier-shop/internal/domain/product"
)

// productResponse is the JSON shape of a catalog product. Monetary values
// are rendered as floats for client display only.
type productResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Price              float64    `json:"price"`
	OriginalPrice      *float64   `json:"originalPrice,omitempty"`
	CurrentPrice       float64    `json:"currentPrice"`
	DiscountPercentage float64    `json:"discountPercentage"`
	DiscountType       string     `json:"discountType"`
	DiscountEndDate    *time.Time `json:"discountEndDate,omitempty"`
	IsBlackFridayDeal  bool       `json:"isBlackFridayDeal"`
	Colors             []string   `json:"colors,omitempty"`
	Sizes              []string   `json:"sizes,omitempty"`
	Images             []string   `json:"images,omitempty"`
	Category           string     `json:"category"`
	Categories         []string   `json:"categories,omitempty"`
	SalesCount         int64      `json:"salesCount"`
	Stock              int        `json:"stock"`
	SoldOut            bool       `json:"soldOut"`
	Rating             float64    `json:"rating"`
	ReviewCount        int        `json:"reviewCount"`
}

// ListProducts returns the visible catalog, optionally filtered by the
// category query parameter.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []product.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.products.ListByCategory(r.Context(), category)
	} else {
		products, err = h.products.List(r.Context())
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	writeJSON(w, r, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.toProductResponse(*p))
}

// discountRequest is the admin payload for bulk discount application.
type discountRequest struct {
	ProductID    string     `json:"productId,omitempty"`
	Category     string     `json:"category,omitempty"`
	Value        float64    `json:"value"`
	DiscountType string     `json:"discountType"`
	EndDate      *time.Time `json:"endDate,omitempty"`
}

// ApplyDiscount applies a discount to the targeted products: one by ID, a
// whole category, or the entire catalog.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	endDate := time.Now().Add(7 * 24 * time.Hour)
	if req.EndDate != nil {
		endDate = *req.EndDate
	}

	target := product.Target{ProductID: req.ProductID, Category: req.Category}
	updated, err := h.catalog.ApplyDiscount(r.Context(),
		target,
		decimal.NewFromFloat(req.Value),
		product.DiscountType(req.DiscountType),
		&endDate,
	)
	if err != nil {
		switch {
		case errors.Is(err, product.ErrInvalidDiscountValue),
			errors.Is(err, product.ErrPercentageTooLarge):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, product.ErrNoProductsMatched):
			writeError(w, r, http.StatusNotFound, err.Error())
		default:
			internalError(w, r, err)
		}
		return
	}

	out := make([]productResponse, len(updated))
	for i, p := range updated {
		out[i] = h.toProductResponse(p)
	}
	writeJSON(w, r, http.StatusOK, out)
}

// ResetDiscount removes discounts from the targeted products and restores
// their original prices.
func (h *Handler) ResetDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId,omitempty"`
		Category  string `json:"category,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.catalog.ResetDiscount(r.Context(), product.Target{
		ProductID: req.ProductID,
		Category:  req.Category,
	})
	if err != nil {
		if errors.Is(err, product.ErrNoProductsMatched) {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}

	out := make([]productResponse, len(updated))
	for i, p := range updated {
		out[i] = h.toProductResponse(p)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) toProductResponse(p product.Product) productResponse {
	images := make([]string, len(p.Images))
	for i, img := range p.Images {
		images[i] = h.imageBaseURL + img
	}

	resp := productResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price.InexactFloat64(),
		CurrentPrice:       product.CurrentPrice(p, time.Now()).InexactFloat64(),
		DiscountPercentage: p.DiscountPercentage.InexactFloat64(),
		DiscountType:       string(p.DiscountType),
		DiscountEndDate:    p.DiscountEndDate,
		IsBlackFridayDeal:  p.IsBlackFridayDeal,
		Colors:             p.Colors,
		Sizes:              p.Sizes,
		Images:             images,
		Category:           p.Category,
		Categories:         p.Categories,
		SalesCount:         p.SalesCount,
		Stock:              p.Stock,
		SoldOut:            p.SoldOut,
		Rating:             p.Rating,
		ReviewCount:        p.ReviewCount,
	}
	if p.OriginalPrice != nil {
		v := p.OriginalPrice.InexactFloat64()
		resp.OriginalPrice = &v
	}
	return resp
}
