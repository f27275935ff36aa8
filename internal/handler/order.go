package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
)

// OrderHandler serves invoices and the order-management endpoints.
type OrderHandler struct {
	orders   order.Service
	payments payment.Service
}

func NewOrderHandler(orders order.Service, payments payment.Service) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments}
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetAllOrders(r.Context())
	if err != nil {
		respondWithMappedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.UpdateOrderStatus(r.Context(), id, order.Status(req.Status)); err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *OrderHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.payments.GetPaymentByOrderID(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}
