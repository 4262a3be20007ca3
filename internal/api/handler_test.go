package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinak/atelier-shop/internal/domain/auth"
	"github.com/avelinak/atelier-shop/internal/domain/order"
	"github.com/avelinak/atelier-shop/internal/domain/product"
	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	byID     map[string]*product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) ListByCategory(_ context.Context, category string) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Update(_ context.Context, _ *product.Product) error      { return nil }
func (m *mockProductRepo) IncrementSales(_ context.Context, _ string, _ int) error { return nil }

type mockPromoRepo struct {
	byCode map[string]*promo.PromoCode
}

func (m *mockPromoRepo) FindByCode(_ context.Context, code string) (*promo.PromoCode, error) {
	p, ok := m.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, promo.ErrNotFound
	}
	return p, nil
}

func (m *mockPromoRepo) Redeem(_ context.Context, _ string) error { return nil }
func (m *mockPromoRepo) List(_ context.Context) ([]promo.PromoCode, error) {
	var out []promo.PromoCode
	for _, p := range m.byCode {
		out = append(out, *p)
	}
	return out, nil
}
func (m *mockPromoRepo) GetByID(_ context.Context, _ string) (*promo.PromoCode, error) {
	return nil, promo.ErrNotFound
}
func (m *mockPromoRepo) Create(_ context.Context, _ *promo.PromoCode) error { return nil }
func (m *mockPromoRepo) Update(_ context.Context, _ *promo.PromoCode) error { return nil }
func (m *mockPromoRepo) Delete(_ context.Context, _ string) error           { return nil }

type mockOrderRepo struct {
	byID      map[string]*order.Order
	lastOrder *order.Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.lastOrder = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]order.Order, error) { return nil, nil }
func (m *mockOrderRepo) ListByEmail(_ context.Context, _ string) ([]order.Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) Update(_ context.Context, o *order.Order) error {
	m.lastOrder = o
	return nil
}
func (m *mockOrderRepo) Delete(_ context.Context, _ string) error { return nil }
func (m *mockOrderRepo) Stats(_ context.Context) (*order.Stats, error) {
	return &order.Stats{TotalOrders: 3, TotalRevenue: decimal.NewFromInt(120)}, nil
}

type mockSequence struct{ n int64 }

func (m *mockSequence) Next(_ context.Context) (int64, error) {
	m.n++
	return m.n, nil
}

type mockNotifier struct{}

func (mockNotifier) OrderCreated(_ context.Context, _ *order.Order)       {}
func (mockNotifier) OrderStatusChanged(_ context.Context, _ *order.Order) {}

type mockAPIKeyRepo struct {
	info *auth.APIKeyInfo
	err  error
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, _ string) (*auth.APIKeyInfo, error) {
	return m.info, m.err
}

type mockDeviceRegistry struct {
	tokens map[string]string
}

func (m *mockDeviceRegistry) RegisterDevice(_ context.Context, id, _, token string) error {
	if m.tokens == nil {
		m.tokens = make(map[string]string)
	}
	m.tokens[id] = token
	return nil
}

// --- Helpers ---

const testPepper = "test-pepper"

type testEnv struct {
	products *mockProductRepo
	promos   *mockPromoRepo
	orders   *mockOrderRepo
	apikeys  *mockAPIKeyRepo
	devices  *mockDeviceRegistry
	mux      *http.ServeMux
}

func newTestEnv(products ...product.Product) *testEnv {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	env := &testEnv{
		products: &mockProductRepo{products: products, byID: byID},
		promos:   &mockPromoRepo{byCode: make(map[string]*promo.PromoCode)},
		orders:   &mockOrderRepo{byID: make(map[string]*order.Order)},
		apikeys:  &mockAPIKeyRepo{err: errors.New("not found")},
		devices:  &mockDeviceRegistry{},
		mux:      http.NewServeMux(),
	}

	h := NewHandler(
		HandlerConfig{APIKeyPepper: testPepper},
		env.products,
		product.NewService(env.products),
		env.promos,
		promo.NewValidator(env.promos),
		order.NewService(env.orders, env.products, env.promos, &mockSequence{}, mockNotifier{}),
		env.orders,
		env.devices,
		env.apikeys,
	)
	h.Routes(env.mux)
	return env
}

func (env *testEnv) allowKey(rawKey string) {
	env.apikeys.err = nil
	env.apikeys.info = &auth.APIKeyInfo{
		ID:      "key-1",
		KeyHash: auth.HashKey(rawKey, testPepper),
		Name:    "admin",
	}
}

func (env *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func testProduct(id, name string, price int64, category string) product.Product {
	return product.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Category: category,
	}
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	env := newTestEnv(
		testProduct("p1", "Crewneck Tee", 24, "t-shirts"),
		testProduct("p2", "Oxford Shirt", 58, "shirts"),
	)

	rec := env.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].ID)
	assert.Equal(t, "Crewneck Tee", out[0].Name)
	assert.InDelta(t, 24.0, out[0].Price, 0.001)
}

func TestListProducts_CategoryFilter(t *testing.T) {
	env := newTestEnv(
		testProduct("p1", "Crewneck Tee", 24, "t-shirts"),
		testProduct("p2", "Oxford Shirt", 58, "shirts"),
	)

	rec := env.do(http.MethodGet, "/api/products?category=shirts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "p2", out[0].ID)
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/products/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(testProduct("p1", "Crewneck Tee", 24, "t-shirts"))

	body := `{
		"items": [{"productId": "p1", "quantity": 2, "price": 24}],
		"subtotal": 48,
		"customerName": "Ada Lovelace",
		"phoneNumber": "+355551234",
		"address": "1 Analytical St"
	}`
	rec := env.do(http.MethodPost, "/api/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out placeOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(1), out.Order.Number)
	assert.Equal(t, "Pending", out.Order.Status)
	assert.InDelta(t, 48.0, out.Order.Subtotal, 0.001)
	assert.InDelta(t, 53.0, out.Order.TotalAmount, 0.001)
	require.Len(t, out.Products, 1)
	require.NotNil(t, env.orders.lastOrder)
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	env := newTestEnv(testProduct("p1", "Crewneck Tee", 24, "t-shirts"))

	tests := []struct {
		name string
		body string
		code int
	}{
		{
			name: "no items",
			body: `{"items": [], "subtotal": 0, "customerName": "A", "phoneNumber": "1", "address": "x"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			body: `{"items": [{"productId": "p1", "quantity": 0, "price": 24}], "subtotal": 0, "customerName": "A", "phoneNumber": "1", "address": "x"}`,
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown product",
			body: `{"items": [{"Quantity": 1, "productId": "ghost", "price": 5}], "subtotal": 5, "customerName": "A", "phoneNumber": "1", "address": "x"}`,
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "missing customer name",
			body: `{"items": [{"productId": "p1", "quantity": 1, "price": 24}], "subtotal": 24, "phoneNumber": "1", "address": "x"}`,
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed json",
			body: `{"items": `,
			code: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/orders", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestValidatePromo(t *testing.T) {
	env := newTestEnv()
	env.promos.byCode["SAVE20"] = &promo.PromoCode{
		ID:            "pc-1",
		Code:          "SAVE20",
		DiscountType:  promo.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(time.Hour),
		IsActive:      true,
	}

	rec := env.do(http.MethodPost, "/api/promo-codes/validate", `{"code": "save20"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out validatePromoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Valid)
	assert.InDelta(t, 20.0, out.Discount, 0.001)
	assert.Equal(t, "percentage", out.Type)
}

func TestValidatePromo_Unknown(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodPost, "/api/promo-codes/validate", `{"code": "GHOST"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEndpoints_RequireAPIKey(t *testing.T) {
	env := newTestEnv()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/stats"},
		{http.MethodGet, "/api/promo-codes"},
		{http.MethodPost, "/api/products/discounts/apply"},
	}
	for _, p := range paths {
		rec := env.do(p.method, p.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestAdminEndpoints_WrongKeyRejected(t *testing.T) {
	env := newTestEnv()
	env.allowKey("right-key")
	// Repository returns the stored info regardless of hash; the
	// constant-time comparison must still reject a mismatched key.
	rec := env.do(http.MethodGet, "/api/orders", "", "X-API-Key", "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateOrder_StatusChange(t *testing.T) {
	env := newTestEnv()
	env.allowKey("admin-key")
	env.orders.byID["ord-1"] = &order.Order{
		ID:          "ord-1",
		Number:      9,
		Items:       []order.LineItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(24)}},
		Subtotal:    decimal.NewFromInt(24),
		ShippingFee: decimal.NewFromInt(5),
		TotalAmount: decimal.NewFromInt(29),
		Status:      order.StatusPending,
	}

	rec := env.do(http.MethodPatch, "/api/orders/ord-1", `{"status": "Shipped"}`, "X-API-Key", "admin-key")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Shipped", out.Status)
	assert.InDelta(t, 29.0, out.TotalAmount, 0.001)
}

func TestOrderStats(t *testing.T) {
	env := newTestEnv()
	env.allowKey("admin-key")

	rec := env.do(http.MethodGet, "/api/orders/stats", "", "X-API-Key", "admin-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var out statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(3), out.TotalOrders)
	assert.InDelta(t, 120.0, out.TotalRevenue, 0.001)
}

func TestRegisterDevice(t *testing.T) {
	env := newTestEnv()
	env.allowKey("admin-key")

	rec := env.do(http.MethodPost, "/api/admin/devices",
		`{"id": "admin-1", "token": "fcm-token-abc"}`, "X-API-Key", "admin-key")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, "fcm-token-abc", env.devices.tokens["admin-1"])
}

func TestApplyDiscount(t *testing.T) {
	env := newTestEnv(testProduct("p1", "Crewneck Tee", 100, "t-shirts"))
	env.allowKey("admin-key")

	body := `{"productId": "p1", "value": 20, "discountType": "percentage"}`
	rec := env.do(http.MethodPost, "/api/products/discounts/apply", body, "X-API-Key", "admin-key")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out []productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.InDelta(t, 80.0, out[0].Price, 0.001)
	require.NotNil(t, out[0].OriginalPrice)
	assert.InDelta(t, 100.0, *out[0].OriginalPrice, 0.001)

	// Default sale window is a week out when the request omits endDate.
	require.NotNil(t, out[0].DiscountEndDate)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *out[0].DiscountEndDate, time.Minute)
}
