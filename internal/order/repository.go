package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	// CreateOrder writes the header and all items in one transaction and
	// fills in the generated ids.
	CreateOrder(ctx context.Context, o *Order) error
	// GetOrderByID eager-loads the order's items and its payment, if any.
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	// GetAllOrders returns every order newest-first, items and payments
	// included.
	GetAllOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback order transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit order transaction: %w", commitErr)
		}
	}()

	headerQuery := `
		INSERT INTO orders (order_date, customer_name, customer_email, customer_phone,
			shipping_address, city, postal_code, country, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err = tx.QueryRow(ctx, headerQuery,
		o.OrderDate, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.ShippingAddress, o.City, o.PostalCode, o.Country, o.TotalAmount, string(o.Status),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRow(ctx, itemQuery,
			o.ID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %d: %w", o.ID, err)
		}
	}

	return nil
}

const orderColumns = `
	id, order_date, customer_name, customer_email, customer_phone,
	shipping_address, city, postal_code, country, total_amount, status
`

func (r *postgresRepository) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.OrderDate, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.City, &o.PostalCode, &o.Country, &o.TotalAmount, &o.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	p, err := r.loadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Payment = p

	return &o, nil
}

func (r *postgresRepository) GetAllOrders(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY order_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[int64]*Order)
	var orderIDs []int64

	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID, &o.OrderDate, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
			&o.ShippingAddress, &o.City, &o.PostalCode, &o.Country, &o.TotalAmount, &o.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]OrderItem, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemRows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	paymentRows, err := r.db.Query(ctx, `
		SELECT id, order_id, method, status, transaction_id, amount, payment_date, notes
		FROM payments
		WHERE order_id = ANY($1)
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query payments: %w", err)
	}
	defer paymentRows.Close()

	for paymentRows.Next() {
		var p payment.Payment
		err := paymentRows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &p.TransactionID, &p.Amount, &p.PaymentDate, &p.Notes)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan payment: %w", err)
		}
		if o, ok := ordersMap[p.OrderID]; ok {
			pay := p
			o.Payment = &pay
		}
	}
	if err := paymentRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating payments: %w", err)
	}

	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *ordersMap[id])
	}

	return orders, nil
}

func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update status for order %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan item for order %d: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating items for order %d: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) loadPayment(ctx context.Context, orderID int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.QueryRow(ctx, `
		SELECT id, order_id, method, status, transaction_id, amount, payment_date, notes
		FROM payments
		WHERE order_id = $1
	`, orderID).Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &p.TransactionID, &p.Amount, &p.PaymentDate, &p.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select payment for order %d: %w", orderID, err)
	}
	return &p, nil
}
