package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/cart"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/events"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
)

var ErrEmptyCart = errors.New("cart is empty")

// ValidationError carries field-level messages for the checkout form.
// Nothing has been written when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed for %d field(s)", len(e.Fields))
}

// Result is the outcome of a checkout attempt that reached the payment
// step. Declined means the payment was processed and refused: the order
// stays Pending and the cart is kept so the visitor can retry.
type Result struct {
	Order         *order.Order     `json:"order"`
	Payment       *payment.Payment `json:"payment"`
	Declined      bool             `json:"declined"`
	DeclineReason string           `json:"decline_reason,omitempty"`
}

type Service interface {
	Checkout(ctx context.Context, sessionID string, customer order.CustomerInfo, method, cardNumber string) (*Result, error)
}

type service struct {
	carts     *cart.Store
	orders    order.Service
	payments  payment.Service
	publisher events.Publisher
	validate  *validator.Validate
}

func NewService(carts *cart.Store, orders order.Service, payments payment.Service, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		carts:     carts,
		orders:    orders,
		payments:  payments,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// Checkout runs the whole flow: cart snapshot, form validation, order
// creation, payment, and on success clearing the cart. Any infrastructure
// failure aborts the remaining steps; whatever was already committed is
// left in place for later reconciliation.
func (s *service) Checkout(ctx context.Context, sessionID string, customer order.CustomerInfo, method, cardNumber string) (*Result, error) {
	items := s.carts.Get(sessionID)
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	total := s.carts.Total(sessionID)

	if err := s.validateForm(customer, method, cardNumber); err != nil {
		return nil, err
	}

	o, err := s.orders.CreateOrder(ctx, customer, items, total)
	if err != nil {
		return nil, fmt.Errorf("checkout: failed to create order: %w", err)
	}

	p, err := s.payments.ProcessPayment(ctx, o.ID, method, total, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("checkout: failed to process payment for order %d: %w", o.ID, err)
	}
	o.Payment = p

	if p.Status == payment.StatusFailed {
		log.Warn().Int64("order_id", o.ID).Str("reason", p.Notes).Msg("checkout: payment declined, cart kept for retry")
		return &Result{Order: o, Payment: p, Declined: true, DeclineReason: p.Notes}, nil
	}

	s.carts.Clear(sessionID)

	// Best-effort notification; a broker hiccup must not undo the checkout.
	event := events.OrderCreated{
		OrderID:       o.ID,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: p.Method,
		PaymentStatus: p.Status.String(),
		CreatedAt:     o.OrderDate,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		log.Error().Err(err).Int64("order_id", o.ID).Msg("checkout: failed to publish order created event")
	}

	log.Info().Int64("order_id", o.ID).Stringer("payment_status", p.Status).Msg("checkout: completed")
	return &Result{Order: o, Payment: p}, nil
}

func (s *service) validateForm(customer order.CustomerInfo, method, cardNumber string) error {
	fields := make(map[string]string)

	if err := s.validate.Struct(customer); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return fmt.Errorf("checkout: failed to validate customer info: %w", err)
		}
		for _, fe := range invalid {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}

	switch method {
	case "":
		fields["PaymentMethod"] = "Please select a payment method"
	case payment.MethodCashOnDelivery:
		// nothing else to check
	case payment.MethodVisaCard:
		// Only presence and shape are checked here. A well-formed number on
		// the wrong network goes through to the processor so the decline is
		// recorded against the order.
		if cardNumber == "" {
			fields["CardNumber"] = "Card number is required for Visa payment"
		} else if !payment.WellFormedCardNumber(cardNumber) {
			fields["CardNumber"] = "Card number must be 13-19 digits"
		}
	default:
		fields["PaymentMethod"] = fmt.Sprintf("Unsupported payment method: %s", method)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email address"
	case "max":
		return fmt.Sprintf("%s is too long", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
