package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentExists guards the one-payment-per-order invariant, backed
	// by a unique index on payments.order_id.
	ErrPaymentExists = errors.New("payment already exists for this order")
)

type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*Payment, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreatePayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (order_id, method, status, transaction_id, amount, payment_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		p.OrderID, p.Method, string(p.Status), p.TransactionID, p.Amount, p.PaymentDate, p.Notes,
	).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrPaymentExists
		}
		return fmt.Errorf("repository: failed to insert payment for order %d: %w", p.OrderID, err)
	}
	return nil
}

func (r *postgresRepository) GetPaymentByOrderID(ctx context.Context, orderID int64) (*Payment, error) {
	query := `
		SELECT id, order_id, method, status, transaction_id, amount, payment_date, notes
		FROM payments
		WHERE order_id = $1
	`

	var p Payment
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Status, &p.TransactionID,
		&p.Amount, &p.PaymentDate, &p.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to select payment for order %d: %w", orderID, err)
	}

	return &p, nil
}
