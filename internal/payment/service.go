package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrMissingCardNumber    = errors.New("card number is required for Visa Card payment")
)

type Service interface {
	// ProcessPayment authorizes the amount for the order and persists the
	// outcome. A declined card is not an error: the returned Payment
	// carries Status Failed and an explanatory note. An error return means
	// nothing was recorded.
	ProcessPayment(ctx context.Context, orderID int64, method string, amount float64, cardNumber string) (*Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*Payment, error)
	ValidateVisaCard(cardNumber string) bool
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ProcessPayment(ctx context.Context, orderID int64, method string, amount float64, cardNumber string) (*Payment, error) {
	log.Info().Int64("order_id", orderID).Str("method", method).Msg("service: processing payment")

	var (
		status        Status
		transactionID string
		notes         string
	)

	switch method {
	case MethodVisaCard:
		if cardNumber == "" {
			return nil, ErrMissingCardNumber
		}

		stripped := stripCardNumber(cardNumber)
		if !isWellFormedCardNumber(stripped) {
			status = StatusFailed
			notes = "Invalid card format"
			log.Warn().Int64("order_id", orderID).Msg("service: invalid card format")
		} else if strings.HasPrefix(stripped, "4") {
			// Simulated authorization: cards starting with 4 are approved.
			txnID, err := newTransactionID()
			if err != nil {
				return nil, err
			}
			status = StatusCompleted
			transactionID = txnID
			notes = "Payment processed successfully"
			log.Info().Int64("order_id", orderID).Msg("service: payment successful")
		} else {
			status = StatusFailed
			notes = "Payment declined by bank"
			log.Warn().Int64("order_id", orderID).Msg("service: payment declined")
		}

	case MethodCashOnDelivery:
		txnID, err := newTransactionID()
		if err != nil {
			return nil, err
		}
		status = StatusPending
		transactionID = txnID
		notes = "Cash payment will be collected on delivery"
		log.Info().Int64("order_id", orderID).Msg("service: COD payment registered")

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	p := &Payment{
		OrderID:       orderID,
		Method:        method,
		Status:        status,
		TransactionID: transactionID,
		Amount:        amount,
		PaymentDate:   time.Now().UTC(),
		Notes:         notes,
	}

	if err := s.repo.CreatePayment(ctx, p); err != nil {
		if errors.Is(err, ErrPaymentExists) {
			return nil, ErrPaymentExists
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("service: failed to record payment")
		return nil, fmt.Errorf("service: failed to record payment: %w", err)
	}

	return p, nil
}

func (s *service) GetPaymentByOrderID(ctx context.Context, orderID int64) (*Payment, error) {
	p, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch payment for order %d: %w", orderID, err)
	}
	return p, nil
}

// ValidateVisaCard is a pure format check: after stripping spaces and
// dashes the number must be all digits, 13 to 19 of them, starting with 4.
// It never contacts a network and says nothing about fraud.
func (s *service) ValidateVisaCard(cardNumber string) bool {
	stripped := stripCardNumber(cardNumber)
	return isWellFormedCardNumber(stripped) && strings.HasPrefix(stripped, "4")
}

// WellFormedCardNumber reports whether the number, after stripping spaces
// and dashes, is 13 to 19 digits. It deliberately ignores the network
// prefix: a well-formed non-Visa number is a decline, not a format error.
func WellFormedCardNumber(cardNumber string) bool {
	return isWellFormedCardNumber(stripCardNumber(cardNumber))
}

func isWellFormedCardNumber(stripped string) bool {
	if len(stripped) < 13 || len(stripped) > 19 {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func stripCardNumber(cardNumber string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(cardNumber)
}

func newTransactionID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("service: failed to generate transaction id: %w", err)
	}
	return id.String(), nil
}
