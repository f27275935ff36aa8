package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/cart"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/checkout"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/handler"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/session"
)

type mockCatalogService struct {
	catalog.Service

	getProductFunc func(ctx context.Context, id int64) (*catalog.Product, error)
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	return m.getProductFunc(ctx, id)
}

type mockOrderService struct {
	order.Service
}

func (m *mockOrderService) CreateOrder(ctx context.Context, customer order.CustomerInfo, items []cart.Item, total float64) (*order.Order, error) {
	orderItems := make([]order.OrderItem, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, order.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}
	return &order.Order{ID: 7, OrderDate: time.Now().UTC(), TotalAmount: total, Status: order.StatusPending, Items: orderItems}, nil
}

type mockPaymentService struct {
	payment.Service
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, orderID int64, method string, amount float64, cardNumber string) (*payment.Payment, error) {
	return &payment.Payment{
		ID: 1, OrderID: orderID, Method: method, Status: payment.StatusPending,
		TransactionID: "txn-1", Amount: amount, PaymentDate: time.Now().UTC(),
	}, nil
}

// client keeps the session cookie across requests, like a browser would.
type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rr := httptest.NewRecorder()
	c.router.ServeHTTP(rr, req)

	for _, ck := range rr.Result().Cookies() {
		if ck.Name == "storefront_session" {
			c.cookie = ck
		}
	}
	return rr
}

func newTestClient(t *testing.T) *client {
	t.Helper()

	sessions := session.NewMemoryStore(30 * time.Minute)
	t.Cleanup(sessions.Close)
	carts := cart.NewStore(sessions)

	catalogSvc := &mockCatalogService{
		getProductFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			if id == 1 {
				return &catalog.Product{ID: 1, Name: "Headphones", Price: 149.99, CategoryID: 1}, nil
			}
			return nil, catalog.ErrProductNotFound
		},
	}

	orders := &mockOrderService{}
	payments := &mockPaymentService{}
	checkoutSvc := checkout.NewService(carts, orders, payments, nil)

	router := handler.NewRouter(handler.Services{
		Catalog:  catalogSvc,
		Carts:    carts,
		Orders:   orders,
		Payments: payments,
		Checkout: checkoutSvc,
	})

	return &client{t: t, router: router}
}

func TestCartEndpoints(t *testing.T) {
	c := newTestClient(t)

	rr := c.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = c.do(http.MethodPost, "/cart/items", map[string]any{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Items     []cart.Item `json:"items"`
		Total     float64     `json:"total"`
		ItemCount int         `json:"item_count"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Headphones", resp.Items[0].ProductName)
	assert.Equal(t, 299.98, resp.Total)
	assert.Equal(t, 2, resp.ItemCount)

	rr = c.do(http.MethodPut, "/cart/items/1", map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 5, resp.ItemCount)

	rr = c.do(http.MethodDelete, "/cart/items/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.Items)
}

func TestCartEndpoints_Rejections(t *testing.T) {
	c := newTestClient(t)

	rr := c.do(http.MethodPost, "/cart/items", map[string]any{"product_id": 1, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = c.do(http.MethodPost, "/cart/items", map[string]any{"product_id": 99, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func validCheckoutBody() map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"full_name":   "Jane Doe",
			"phone":       "+1 555 0100",
			"email":       "jane@example.com",
			"address":     "1 Main St",
			"city":        "Springfield",
			"postal_code": "12345",
			"country":     "USA",
		},
		"payment_method": payment.MethodCashOnDelivery,
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	c := newTestClient(t)

	// empty cart first
	rr := c.do(http.MethodPost, "/checkout", validCheckoutBody())
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = c.do(http.MethodPost, "/cart/items", map[string]any{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code)

	// bad form
	body := validCheckoutBody()
	body["customer"].(map[string]any)["email"] = "nope"
	rr = c.do(http.MethodPost, "/checkout", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// success
	rr = c.do(http.MethodPost, "/checkout", validCheckoutBody())
	require.Equal(t, http.StatusCreated, rr.Code)

	var res checkout.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, int64(7), res.Order.ID)
	assert.Equal(t, 299.98, res.Order.TotalAmount)
	assert.Equal(t, payment.StatusPending, res.Payment.Status)

	// cart is empty afterwards
	rr = c.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var cartResp struct {
		Items []cart.Item `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cartResp))
	assert.Empty(t, cartResp.Items)
}
