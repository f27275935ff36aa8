package payment

import "time"

type Status string

const (
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusPending   Status = "Pending"
)

func (s Status) String() string {
	return string(s)
}

// Supported payment methods. Anything else is rejected before a row is
// written.
const (
	MethodVisaCard       = "Visa Card"
	MethodCashOnDelivery = "Cash On Delivery"
)

type Payment struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	Method  string `json:"method"`
	Status  Status `json:"status"`
	// TransactionID is empty exactly when the payment failed.
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	Notes         string    `json:"notes,omitempty"`
}
