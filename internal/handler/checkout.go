package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/checkout"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/session"
)

type CheckoutHandler struct {
	svc checkout.Service
}

func NewCheckoutHandler(svc checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutRequest struct {
	Customer      order.CustomerInfo `json:"customer"`
	PaymentMethod string             `json:"payment_method"`
	CardNumber    string             `json:"card_number,omitempty"`
}

// Checkout handles POST /checkout. A declined payment is a 402 with the
// decline note; validation problems are a 422 with field messages; an
// empty cart is a 400. Infrastructure failures surface as a generic 500.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sid := session.FromContext(r.Context())

	res, err := h.svc.Checkout(r.Context(), sid, req.Customer, req.PaymentMethod, req.CardNumber)
	if err != nil {
		var vErr *checkout.ValidationError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondWithError(w, http.StatusBadRequest, "Your cart is empty.")
		case errors.As(err, &vErr):
			respondWithJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation failed",
				"fields": vErr.Fields,
			})
		default:
			respondWithMappedError(w, err)
		}
		return
	}

	if res.Declined {
		respondWithJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":    "Payment failed: " + res.DeclineReason,
			"order_id": res.Order.ID,
		})
		return
	}

	respondWithJSON(w, http.StatusCreated, res)
}
