// Package api implements the HTTP handlers for the storefront and admin
// endpoints.
package api

import (
	"context"
	"net/http"

	"github.com/avelinak/atelier-shop/internal/domain/auth"
	"github.com/avelinak/atelier-shop/internal/domain/order"
	"github.com/avelinak/atelier-shop/internal/domain/product"
	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

// DeviceRegistry stores admin push notification device tokens.
type DeviceRegistry interface {
	RegisterDevice(ctx context.Context, id, name, token string) error
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// APIKeyPepper is the server-side HMAC key under which API keys are
	// hashed before lookup.
	APIKeyPepper string
}

// Handler serves the HTTP API, delegating business logic to the injected
// domain services and repositories.
type Handler struct {
	products  product.Repository
	catalog   *product.Service
	promos    promo.Repository
	validator *promo.Validator
	orders    *order.Service
	orderRepo order.Repository
	admins    DeviceRegistry
	apikeys   auth.Repository

	imageBaseURL string
	apiKeyPepper string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products product.Repository,
	catalog *product.Service,
	promos promo.Repository,
	validator *promo.Validator,
	orders *order.Service,
	orderRepo order.Repository,
	admins DeviceRegistry,
	apikeys auth.Repository,
) *Handler {
	return &Handler{
		products:     products,
		catalog:      catalog,
		promos:       promos,
		validator:    validator,
		orders:       orders,
		orderRepo:    orderRepo,
		admins:       admins,
		apikeys:      apikeys,
		imageBaseURL: cfg.ImageBaseURL,
		apiKeyPepper: cfg.APIKeyPepper,
	}
}

// Routes registers all endpoints on the mux. Admin endpoints are wrapped
// with API key authentication.
func (h *Handler) Routes(mux *http.ServeMux) {
	// Public storefront.
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /api/promo-codes/validate", h.ValidatePromo)

	// Admin.
	mux.Handle("GET /api/orders", h.requireAPIKey(h.ListOrders))
	mux.Handle("GET /api/orders/stats", h.requireAPIKey(h.OrderStats))
	mux.Handle("PATCH /api/orders/{id}", h.requireAPIKey(h.UpdateOrder))
	mux.Handle("DELETE /api/orders/{id}", h.requireAPIKey(h.DeleteOrder))

	mux.Handle("GET /api/promo-codes", h.requireAPIKey(h.ListPromos))
	mux.Handle("POST /api/promo-codes", h.requireAPIKey(h.CreatePromo))
	mux.Handle("GET /api/promo-codes/{id}", h.requireAPIKey(h.GetPromo))
	mux.Handle("PUT /api/promo-codes/{id}", h.requireAPIKey(h.UpdatePromo))
	mux.Handle("DELETE /api/promo-codes/{id}", h.requireAPIKey(h.DeletePromo))

	mux.Handle("POST /api/products/discounts/apply", h.requireAPIKey(h.ApplyDiscount))
	mux.Handle("POST /api/products/discounts/reset", h.requireAPIKey(h.ResetDiscount))

	mux.Handle("POST /api/admin/devices", h.requireAPIKey(h.RegisterDevice))
}
