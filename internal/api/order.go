package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/avelinak/atelier-shop/internal/domain/order"
	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

type orderItemPayload struct {
	ProductID     string  `json:"productId"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	SelectedColor string  `json:"selectedColor,omitempty"`
	SelectedSize  string  `json:"selectedSize,omitempty"`
}

type discountPayload struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type placeOrderRequest struct {
	Items               []orderItemPayload `json:"items"`
	Subtotal            float64            `json:"subtotal"`
	ShippingFee         *float64           `json:"shippingFee,omitempty"`
	PromoCode           string             `json:"promoCode,omitempty"`
	PromoDiscount       *discountPayload   `json:"promoDiscount,omitempty"`
	CustomerName        string             `json:"customerName"`
	CustomerEmail       string             `json:"customerEmail,omitempty"`
	PhoneNumber         string             `json:"phoneNumber"`
	Address             string             `json:"address"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
}

type orderResponse struct {
	ID                  string             `json:"id"`
	Number              int64              `json:"orderNumber"`
	Items               []orderItemPayload `json:"items"`
	Subtotal            float64            `json:"subtotal"`
	PromoCode           string             `json:"promoCode,omitempty"`
	PromoDiscount       *discountPayload   `json:"promoDiscount,omitempty"`
	ShippingFee         float64            `json:"shippingFee"`
	TotalAmount         float64            `json:"totalAmount"`
	CustomerName        string             `json:"customerName"`
	CustomerEmail       string             `json:"customerEmail,omitempty"`
	PhoneNumber         string             `json:"phoneNumber"`
	Address             string             `json:"address"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
	Status              string             `json:"status"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type placeOrderResponse struct {
	Order    orderResponse     `json:"order"`
	Products []productResponse `json:"products"`
}

// PlaceOrder creates a guest order from the submitted cart.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]order.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.LineItem{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Price:         decimal.NewFromFloat(item.Price),
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
		}
	}

	createReq := order.CreateRequest{
		Items:               items,
		Subtotal:            decimal.NewFromFloat(req.Subtotal),
		PromoCode:           req.PromoCode,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		PhoneNumber:         req.PhoneNumber,
		Address:             req.Address,
		SpecialInstructions: req.SpecialInstructions,
	}
	if req.ShippingFee != nil {
		fee := decimal.NewFromFloat(*req.ShippingFee)
		createReq.ShippingFee = &fee
	}
	if req.PromoDiscount != nil {
		createReq.PromoDiscount = &order.Discount{
			Type:  promo.DiscountType(req.PromoDiscount.Type),
			Value: decimal.NewFromFloat(req.PromoDiscount.Value),
		}
	}

	result, err := h.orders.Create(r.Context(), createReq)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	products := make([]productResponse, len(result.Products))
	for i, p := range result.Products {
		products[i] = h.toProductResponse(p)
	}
	writeJSON(w, r, http.StatusCreated, placeOrderResponse{
		Order:    toOrderResponse(result.Order),
		Products: products,
	})
}

// GetOrder returns a single order by ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderRepo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}

// ListOrders returns all orders, or the orders of one customer when the
// email query parameter is set.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		out []order.Order
		err error
	)
	if email := r.URL.Query().Get("email"); email != "" {
		out, err = h.orderRepo.ListByEmail(r.Context(), email)
	} else {
		out, err = h.orderRepo.List(r.Context())
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(out))
	for i := range out {
		resp[i] = toOrderResponse(&out[i])
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type updateOrderRequest struct {
	Status              *string          `json:"status,omitempty"`
	ShippingFee         *float64         `json:"shippingFee,omitempty"`
	PromoCode           *string          `json:"promoCode,omitempty"`
	PromoDiscount       *discountPayload `json:"promoDiscount,omitempty"`
	SpecialInstructions *string          `json:"specialInstructions,omitempty"`
	Address             *string          `json:"address,omitempty"`
	PhoneNumber         *string          `json:"phoneNumber,omitempty"`
	Subtotal            *float64         `json:"subtotal,omitempty"`
}

// UpdateOrder applies a partial update to an order.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := order.Patch{
		Status:              req.Status,
		PromoCode:           req.PromoCode,
		SpecialInstructions: req.SpecialInstructions,
		Address:             req.Address,
		PhoneNumber:         req.PhoneNumber,
	}
	if req.ShippingFee != nil {
		fee := decimal.NewFromFloat(*req.ShippingFee)
		patch.ShippingFee = &fee
	}
	if req.Subtotal != nil {
		sub := decimal.NewFromFloat(*req.Subtotal)
		patch.Subtotal = &sub
	}
	if req.PromoDiscount != nil {
		patch.PromoDiscount = &order.Discount{
			Type:  promo.DiscountType(req.PromoDiscount.Type),
			Value: decimal.NewFromFloat(req.PromoDiscount.Value),
		}
	}

	o, err := h.orders.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}

// DeleteOrder removes an order and reverses its sales counters.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	TotalOrders  int64            `json:"totalOrders"`
	TotalRevenue float64          `json:"totalRevenue"`
	ByStatus     map[string]int64 `json:"byStatus"`
}

// OrderStats returns aggregate counts and revenue for the admin dashboard.
func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orderRepo.Stats(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	writeJSON(w, r, http.StatusOK, statsResponse{
		TotalOrders:  stats.TotalOrders,
		TotalRevenue: stats.TotalRevenue.InexactFloat64(),
		ByStatus:     byStatus,
	})
}

// RegisterDevice stores an admin push notification token.
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Name  string `json:"name,omitempty"`
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" || req.Token == "" {
		writeError(w, r, http.StatusBadRequest, "id and token required")
		return
	}

	if err := h.admins.RegisterDevice(r.Context(), req.ID, req.Name, req.Token); err != nil {
		internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeOrderError maps domain order errors onto HTTP status codes.
func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		quantityErr *order.InvalidQuantityError
		priceErr    *order.InvalidPriceError
		notFoundErr *order.ProductNotFoundError
		customerErr *order.MissingCustomerInfoError
		statusErr   *order.InvalidStatusError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &quantityErr), errors.As(err, &priceErr),
		errors.As(err, &customerErr), errors.As(err, &statusErr):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "order not found")
	default:
		internalError(w, r, err)
	}
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemPayload, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemPayload{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Price:         item.Price.InexactFloat64(),
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
		}
	}

	resp := orderResponse{
		ID:                  o.ID,
		Number:              o.Number,
		Items:               items,
		Subtotal:            o.Subtotal.InexactFloat64(),
		PromoCode:           o.PromoCode,
		ShippingFee:         o.ShippingFee.InexactFloat64(),
		TotalAmount:         o.TotalAmount.InexactFloat64(),
		CustomerName:        o.CustomerName,
		CustomerEmail:       o.CustomerEmail,
		PhoneNumber:         o.PhoneNumber,
		Address:             o.Address,
		SpecialInstructions: o.SpecialInstructions,
		Status:              string(o.Status),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if o.PromoDiscount != nil {
		resp.PromoDiscount = &discountPayload{
			Type:  string(o.PromoDiscount.Type),
			Value: o.PromoDiscount.Value.InexactFloat64(),
		}
	}
	return resp
}
