package order

import (
	"time"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
)

func (s Status) String() string {
	return string(s)
}

// CustomerInfo is the transient checkout form. It is never stored on its
// own; the fields are denormalized into the order row at creation time.
type CustomerInfo struct {
	FullName   string `json:"full_name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Email      string `json:"email" validate:"required,email,max=100"`
	Address    string `json:"address" validate:"required,max=500"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

// OrderItem snapshots the product name and price at purchase time. The
// snapshot is immutable: invoices stay accurate even after the catalog
// changes or the product is deleted.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

type Order struct {
	ID              int64     `json:"id"`
	OrderDate       time.Time `json:"order_date"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone"`
	ShippingAddress string    `json:"shipping_address"`
	City            string    `json:"city"`
	PostalCode      string    `json:"postal_code"`
	Country         string    `json:"country"`
	// TotalAmount is frozen at order creation and never recomputed from
	// the items.
	TotalAmount float64          `json:"total_amount"`
	Status      Status           `json:"status"`
	Items       []OrderItem      `json:"items"`
	Payment     *payment.Payment `json:"payment,omitempty"`
}
