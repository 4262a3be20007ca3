//go:build integration

package integration

import (
	"net/http"
	"testing"
)

const adminAPIKey = "integration-test-key"

func placeTestOrder(t *testing.T, req orderRequest) placeOrderResponse {
	t.Helper()

	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body := decodeJSON[errorResponse](t, resp)
		t.Fatalf("place order: got status %d (%s), want %d", resp.StatusCode, body.Message, http.StatusCreated)
	}

	return decodeJSON[placeOrderResponse](t, resp)
}

func TestPlaceGuestOrder(t *testing.T) {
	placed := placeTestOrder(t, orderRequest{
		Items: []orderItemRequest{
			{ProductID: "classic-crewneck-tee", Quantity: 2, Price: 24},
		},
		Subtotal:     48,
		CustomerName: "Ada Wong",
		PhoneNumber:  "+15550001111",
		Address:      "1 Main St, Springfield",
	})

	o := placed.Order
	if o.ID == "" {
		t.Error("order ID is empty")
	}
	if o.Number <= 0 {
		t.Errorf("order number: got %d, want > 0", o.Number)
	}
	if o.Subtotal != 48 {
		t.Errorf("subtotal: got %v, want 48", o.Subtotal)
	}
	if o.ShippingFee != 5 {
		t.Errorf("shipping fee: got %v, want 5", o.ShippingFee)
	}
	if o.TotalAmount != 53 {
		t.Errorf("total: got %v, want 53", o.TotalAmount)
	}
	if o.Status != "Pending" {
		t.Errorf("status: got %q, want %q", o.Status, "Pending")
	}
	if len(placed.Products) != 1 || placed.Products[0].ID != "classic-crewneck-tee" {
		t.Errorf("product snapshots: got %+v, want the ordered product", placed.Products)
	}
}

func TestOrderNumbersIncrease(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{{ProductID: "merino-beanie", Quantity: 1, Price: 32}},
		Subtotal:     32,
		CustomerName: "Billie Park",
		PhoneNumber:  "+15550002222",
		Address:      "2 Oak Ave",
	}

	first := placeTestOrder(t, req)
	second := placeTestOrder(t, req)

	if second.Order.Number <= first.Order.Number {
		t.Errorf("order numbers: got %d then %d, want strictly increasing",
			first.Order.Number, second.Order.Number)
	}
}

func TestGetOrder(t *testing.T) {
	placed := placeTestOrder(t, orderRequest{
		Items:        []orderItemRequest{{ProductID: "canvas-weekender", Quantity: 1, Price: 96}},
		Subtotal:     96,
		CustomerName: "Casey Hart",
		PhoneNumber:  "+15550003333",
		Address:      "3 Pine Rd",
	})

	resp := doGet(t, "/api/orders/"+placed.Order.ID)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order: got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	got := decodeJSON[orderResponse](t, resp)
	if got.ID != placed.Order.ID {
		t.Errorf("order ID: got %q, want %q", got.ID, placed.Order.ID)
	}
	if got.TotalAmount != 101 {
		t.Errorf("total: got %v, want 101", got.TotalAmount)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/does-not-exist")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing order: got status %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name       string
		req        orderRequest
		wantStatus int
	}{
		{
			name: "empty items",
			req: orderRequest{
				CustomerName: "Dee Voss",
				PhoneNumber:  "+15550004444",
				Address:      "4 Elm St",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown product",
			req: orderRequest{
				Items:        []orderItemRequest{{ProductID: "no-such-product", Quantity: 1, Price: 10}},
				Subtotal:     10,
				CustomerName: "Dee Voss",
				PhoneNumber:  "+15550004444",
				Address:      "4 Elm St",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "missing customer name",
			req: orderRequest{
				Items:       []orderItemRequest{{ProductID: "merino-beanie", Quantity: 1, Price: 32}},
				Subtotal:    32,
				PhoneNumber: "+15550004444",
				Address:     "4 Elm St",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "zero quantity",
			req: orderRequest{
				Items:        []orderItemRequest{{ProductID: "merino-beanie", Quantity: 0, Price: 32}},
				Subtotal:     0,
				CustomerName: "Dee Voss",
				PhoneNumber:  "+15550004444",
				Address:      "4 Elm St",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doPost(t, "/api/orders", tt.req)
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("got status %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestAdminEndpointsRequireAPIKey(t *testing.T) {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/stats"},
		{http.MethodGet, "/api/promo-codes"},
	}

	for _, p := range paths {
		resp := doWithAuth(t, p.method, p.path, nil, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without key: got status %d, want %d",
				p.method, p.path, resp.StatusCode, http.StatusUnauthorized)
		}

		resp = doWithAuth(t, p.method, p.path, nil, "wrong-key")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s with wrong key: got status %d, want %d",
				p.method, p.path, resp.StatusCode, http.StatusUnauthorized)
		}
	}
}

func TestListOrdersAsAdmin(t *testing.T) {
	placeTestOrder(t, orderRequest{
		Items:         []orderItemRequest{{ProductID: "oxford-button-down", Quantity: 1, Price: 58}},
		Subtotal:      58,
		CustomerName:  "Eli North",
		CustomerEmail: "eli.north@example.com",
		PhoneNumber:   "+15550005555",
		Address:       "5 Birch Ln",
	})

	resp := doWithAuth(t, http.MethodGet, "/api/orders?email=eli.north@example.com", nil, adminAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list orders: got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	orders := decodeJSON[[]orderResponse](t, resp)
	if len(orders) == 0 {
		t.Fatal("expected at least one order for the customer email")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	placed := placeTestOrder(t, orderRequest{
		Items:        []orderItemRequest{{ProductID: "slim-selvedge-denim", Quantity: 1, Price: 128}},
		Subtotal:     128,
		CustomerName: "Frankie Ortiz",
		PhoneNumber:  "+15550006666",
		Address:      "6 Cedar Ct",
	})

	patch := map[string]any{"status": "Shipped"}
	resp := doWithAuth(t, http.MethodPatch, "/api/orders/"+placed.Order.ID, patch, adminAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update order: got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	got := decodeJSON[orderResponse](t, resp)
	if got.Status != "Shipped" {
		t.Errorf("status after update: got %q, want %q", got.Status, "Shipped")
	}
	if got.TotalAmount != placed.Order.TotalAmount {
		t.Errorf("total changed on status update: got %v, want %v",
			got.TotalAmount, placed.Order.TotalAmount)
	}
}

func TestUpdateOrderInvalidStatus(t *testing.T) {
	placed := placeTestOrder(t, orderRequest{
		Items:        []orderItemRequest{{ProductID: "merino-beanie", Quantity: 1, Price: 32}},
		Subtotal:     32,
		CustomerName: "Gale Imura",
		PhoneNumber:  "+15550007777",
		Address:      "7 Walnut Way",
	})

	patch := map[string]any{"status": "teleported"}
	resp := doWithAuth(t, http.MethodPatch, "/api/orders/"+placed.Order.ID, patch, adminAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("invalid status: got %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestDeleteOrder(t *testing.T) {
	placed := placeTestOrder(t, orderRequest{
		Items:        []orderItemRequest{{ProductID: "hooded-parka", Quantity: 1, Price: 248}},
		Subtotal:     248,
		CustomerName: "Harper Quinn",
		PhoneNumber:  "+15550008888",
		Address:      "8 Maple Dr",
	})

	resp := doWithAuth(t, http.MethodDelete, "/api/orders/"+placed.Order.ID, nil, adminAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete order: got status %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp = doGet(t, "/api/orders/"+placed.Order.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted order: got status %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestOrderStats(t *testing.T) {
	placeTestOrder(t, orderRequest{
		Items:        []orderItemRequest{{ProductID: "merino-beanie", Quantity: 1, Price: 32}},
		Subtotal:     32,
		CustomerName: "Iris Vale",
		PhoneNumber:  "+15550009999",
		Address:      "9 Aspen Pl",
	})

	resp := doWithAuth(t, http.MethodGet, "/api/orders/stats", nil, adminAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("order stats: got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	stats := decodeJSON[struct {
		TotalOrders  int64            `json:"totalOrders"`
		TotalRevenue float64          `json:"totalRevenue"`
		ByStatus     map[string]int64 `json:"byStatus"`
	}](t, resp)

	if stats.TotalOrders < 1 {
		t.Errorf("total orders: got %d, want >= 1", stats.TotalOrders)
	}
	if stats.TotalRevenue <= 0 {
		t.Errorf("total revenue: got %v, want > 0", stats.TotalRevenue)
	}
	if len(stats.ByStatus) == 0 {
		t.Error("by-status breakdown is empty")
	}
}
