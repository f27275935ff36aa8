package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/cart"
)

var (
	ErrNoItems       = errors.New("order must contain at least one item")
	ErrUnknownStatus = errors.New("unknown order status")
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusPaid:      true,
	StatusFailed:    true,
	StatusCancelled: true,
	StatusShipped:   true,
	StatusDelivered: true,
}

type Service interface {
	// CreateOrder persists a Pending order from the customer form and the
	// cart snapshot. The total is taken as given, not recomputed: it is the
	// cart total at the moment of checkout and stays frozen afterwards.
	CreateOrder(ctx context.Context, customer CustomerInfo, items []cart.Item, totalAmount float64) (*Order, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	GetAllOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateOrder(ctx context.Context, customer CustomerInfo, items []cart.Item, totalAmount float64) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if totalAmount < 0 {
		return nil, fmt.Errorf("service: total amount cannot be negative, got %f", totalAmount)
	}

	orderItems := make([]OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("service: quantity for product %d must be at least 1, got %d", item.ProductID, item.Quantity)
		}
		orderItems = append(orderItems, OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	o := &Order{
		OrderDate:       time.Now().UTC(),
		CustomerName:    customer.FullName,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		ShippingAddress: customer.Address,
		City:            customer.City,
		PostalCode:      customer.PostalCode,
		Country:         customer.Country,
		TotalAmount:     totalAmount,
		Status:          StatusPending,
		Items:           orderItems,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		log.Error().Err(err).Str("customer", customer.FullName).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Int64("order_id", o.ID).Float64("total", o.TotalAmount).Msg("service: order created")
	return o, nil
}

func (s *service) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order %d: %w", id, err)
	}
	return o, nil
}

func (s *service) GetAllOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.GetAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	if !validStatuses[status] {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	if err := s.repo.UpdateOrderStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to update status for order %d: %w", id, err)
	}

	log.Info().Int64("order_id", id).Stringer("status", status).Msg("service: order status updated")
	return nil
}
