package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/cart"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/checkout"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/events"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/session"
)

const sid = "checkout-session"

type mockOrderService struct {
	order.Service

	createFunc func(ctx context.Context, customer order.CustomerInfo, items []cart.Item, total float64) (*order.Order, error)
	created    int
}

func (m *mockOrderService) CreateOrder(ctx context.Context, customer order.CustomerInfo, items []cart.Item, total float64) (*order.Order, error) {
	m.created++
	return m.createFunc(ctx, customer, items, total)
}

type mockPaymentService struct {
	payment.Service

	processFunc func(ctx context.Context, orderID int64, method string, amount float64, cardNumber string) (*payment.Payment, error)
	processed   int
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, orderID int64, method string, amount float64, cardNumber string) (*payment.Payment, error) {
	m.processed++
	return m.processFunc(ctx, orderID, method, amount, cardNumber)
}

type mockPublisher struct {
	events []events.OrderCreated
	err    error
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, e events.OrderCreated) error {
	m.events = append(m.events, e)
	return m.err
}

var customer = order.CustomerInfo{
	FullName:   "Jane Doe",
	Phone:      "+1 555 0100",
	Email:      "jane@example.com",
	Address:    "1 Main St",
	City:       "Springfield",
	PostalCode: "12345",
	Country:    "USA",
}

// passThroughOrders mints an order id and echoes the input back, the way
// the real service does against the database.
func passThroughOrders() *mockOrderService {
	svc := &mockOrderService{}
	svc.createFunc = func(ctx context.Context, c order.CustomerInfo, items []cart.Item, total float64) (*order.Order, error) {
		orderItems := make([]order.OrderItem, 0, len(items))
		for _, it := range items {
			orderItems = append(orderItems, order.OrderItem{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
			})
		}
		return &order.Order{
			ID:          101,
			OrderDate:   time.Now().UTC(),
			TotalAmount: total,
			Status:      order.StatusPending,
			Items:       orderItems,
		}, nil
	}
	return svc
}

func paymentsWithOutcome(status payment.Status, notes string) *mockPaymentService {
	svc := &mockPaymentService{}
	svc.processFunc = func(ctx context.Context, orderID int64, method string, amount float64, cardNumber string) (*payment.Payment, error) {
		txn := ""
		if status != payment.StatusFailed {
			txn = "txn-1"
		}
		return &payment.Payment{
			ID:            1,
			OrderID:       orderID,
			Method:        method,
			Status:        status,
			TransactionID: txn,
			Amount:        amount,
			PaymentDate:   time.Now().UTC(),
			Notes:         notes,
		}, nil
	}
	return svc
}

func newCart(t *testing.T, items ...cart.Item) *cart.Store {
	t.Helper()
	sessions := session.NewMemoryStore(30 * time.Minute)
	t.Cleanup(sessions.Close)
	carts := cart.NewStore(sessions)
	for _, it := range items {
		carts.Add(sid, it)
	}
	return carts
}

func TestService_Checkout_EmptyCart(t *testing.T) {
	carts := newCart(t)
	orders := passThroughOrders()
	payments := paymentsWithOutcome(payment.StatusPending, "")
	svc := checkout.NewService(carts, orders, payments, nil)

	_, err := svc.Checkout(context.Background(), sid, customer, payment.MethodCashOnDelivery, "")

	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.Zero(t, orders.created, "no order may be created for an empty cart")
	assert.Zero(t, payments.processed, "no payment may be attempted for an empty cart")
}

func TestService_Checkout_ValidationFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *order.CustomerInfo)
		method     string
		cardNumber string
		wantField  string
	}{
		{name: "missing_name", mutate: func(c *order.CustomerInfo) { c.FullName = "" }, method: payment.MethodCashOnDelivery, wantField: "FullName"},
		{name: "bad_email", mutate: func(c *order.CustomerInfo) { c.Email = "not-an-email" }, method: payment.MethodCashOnDelivery, wantField: "Email"},
		{name: "no_method", method: "", wantField: "PaymentMethod"},
		{name: "unknown_method", method: "Barter", wantField: "PaymentMethod"},
		{name: "visa_missing_card", method: payment.MethodVisaCard, cardNumber: "", wantField: "CardNumber"},
		{name: "visa_bad_format", method: payment.MethodVisaCard, cardNumber: "123", wantField: "CardNumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := newCart(t, cart.Item{ProductID: 1, ProductName: "Mug", UnitPrice: 10, Quantity: 1})
			orders := passThroughOrders()
			payments := paymentsWithOutcome(payment.StatusPending, "")
			svc := checkout.NewService(carts, orders, payments, nil)

			c := customer
			if tt.mutate != nil {
				tt.mutate(&c)
			}

			_, err := svc.Checkout(context.Background(), sid, c, tt.method, tt.cardNumber)

			var vErr *checkout.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tt.wantField)
			assert.Zero(t, orders.created, "validation failures must not create orders")
			assert.Zero(t, payments.processed)
			assert.Len(t, carts.Get(sid), 1, "cart must be untouched")
		})
	}
}

func TestService_Checkout_CashOnDeliveryEndToEnd(t *testing.T) {
	carts := newCart(t, cart.Item{ProductID: 1, ProductName: "Headphones", UnitPrice: 149.99, Quantity: 2})
	orders := passThroughOrders()
	payments := paymentsWithOutcome(payment.StatusPending, "Cash payment will be collected on delivery")
	publisher := &mockPublisher{}
	svc := checkout.NewService(carts, orders, payments, publisher)

	res, err := svc.Checkout(context.Background(), sid, customer, payment.MethodCashOnDelivery, "")

	require.NoError(t, err)
	assert.False(t, res.Declined)
	assert.Equal(t, 299.98, res.Order.TotalAmount)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, 2, res.Order.Items[0].Quantity)
	assert.Equal(t, 149.99, res.Order.Items[0].UnitPrice)
	assert.Equal(t, payment.StatusPending, res.Payment.Status)
	assert.NotEmpty(t, res.Payment.TransactionID)

	assert.Empty(t, carts.Get(sid), "cart must be cleared after a successful checkout")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, int64(101), publisher.events[0].OrderID)
	assert.Equal(t, 299.98, publisher.events[0].TotalAmount)
}

func TestService_Checkout_PaymentDeclinedKeepsCart(t *testing.T) {
	carts := newCart(t, cart.Item{ProductID: 1, ProductName: "Mug", UnitPrice: 10, Quantity: 1})
	orders := passThroughOrders()
	payments := paymentsWithOutcome(payment.StatusFailed, "Payment declined by bank")
	publisher := &mockPublisher{}
	svc := checkout.NewService(carts, orders, payments, publisher)

	res, err := svc.Checkout(context.Background(), sid, customer, payment.MethodVisaCard, "5000000000000000")

	require.NoError(t, err, "a decline is a business outcome, not an error")
	assert.True(t, res.Declined)
	assert.Equal(t, "Payment declined by bank", res.DeclineReason)
	assert.Equal(t, order.StatusPending, res.Order.Status, "order stays pending for a later retry")
	assert.Len(t, carts.Get(sid), 1, "cart must be kept so the visitor can retry")
	assert.Empty(t, publisher.events, "no event for a declined checkout")
}

func TestService_Checkout_OrderWriteFailureAborts(t *testing.T) {
	carts := newCart(t, cart.Item{ProductID: 1, UnitPrice: 10, Quantity: 1})
	orders := &mockOrderService{}
	orders.createFunc = func(ctx context.Context, c order.CustomerInfo, items []cart.Item, total float64) (*order.Order, error) {
		return nil, errors.New("connection refused")
	}
	payments := paymentsWithOutcome(payment.StatusPending, "")
	svc := checkout.NewService(carts, orders, payments, nil)

	_, err := svc.Checkout(context.Background(), sid, customer, payment.MethodCashOnDelivery, "")

	assert.ErrorContains(t, err, "failed to create order")
	assert.Zero(t, payments.processed, "payment must not run after a failed order write")
	assert.Len(t, carts.Get(sid), 1, "cart must be untouched on infrastructure failure")
}

func TestService_Checkout_PaymentSystemFailureKeepsCart(t *testing.T) {
	carts := newCart(t, cart.Item{ProductID: 1, UnitPrice: 10, Quantity: 1})
	orders := passThroughOrders()
	payments := &mockPaymentService{}
	payments.processFunc = func(ctx context.Context, orderID int64, method string, amount float64, cardNumber string) (*payment.Payment, error) {
		return nil, errors.New("connection refused")
	}
	svc := checkout.NewService(carts, orders, payments, nil)

	_, err := svc.Checkout(context.Background(), sid, customer, payment.MethodCashOnDelivery, "")

	assert.ErrorContains(t, err, "failed to process payment")
	assert.Len(t, carts.Get(sid), 1)
}

func TestService_Checkout_PublisherFailureDoesNotUndoCheckout(t *testing.T) {
	carts := newCart(t, cart.Item{ProductID: 1, UnitPrice: 10, Quantity: 1})
	orders := passThroughOrders()
	payments := paymentsWithOutcome(payment.StatusCompleted, "Payment processed successfully")
	publisher := &mockPublisher{err: errors.New("broker unavailable")}
	svc := checkout.NewService(carts, orders, payments, publisher)

	res, err := svc.Checkout(context.Background(), sid, customer, payment.MethodVisaCard, "4111111111111111")

	require.NoError(t, err)
	assert.False(t, res.Declined)
	assert.Empty(t, carts.Get(sid), "checkout stands even if the event publish fails")
}
