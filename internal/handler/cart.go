package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/cart"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/session"
)

// CartHandler exposes the visitor's session cart. Product details are
// snapshotted from the catalog when a line is added.
type CartHandler struct {
	carts   *cart.Store
	catalog catalog.Service
}

func NewCartHandler(carts *cart.Store, catalogSvc catalog.Service) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalogSvc}
}

type cartResponse struct {
	Items     []cart.Item `json:"items"`
	Total     float64     `json:"total"`
	ItemCount int         `json:"item_count"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid := session.FromContext(r.Context())

	respondWithJSON(w, http.StatusOK, cartResponse{
		Items:     h.carts.Get(sid),
		Total:     h.carts.Total(sid),
		ItemCount: h.carts.ItemCount(sid),
	})
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 1 {
		respondWithError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	sid := session.FromContext(r.Context())
	h.carts.Add(sid, cart.Item{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    req.Quantity,
		ImageURL:    product.ImageURL,
	})

	respondWithJSON(w, http.StatusOK, cartResponse{
		Items:     h.carts.Get(sid),
		Total:     h.carts.Total(sid),
		ItemCount: h.carts.ItemCount(sid),
	})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(w, r, "productID")
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sid := session.FromContext(r.Context())
	h.carts.UpdateQuantity(sid, productID, req.Quantity)

	respondWithJSON(w, http.StatusOK, cartResponse{
		Items:     h.carts.Get(sid),
		Total:     h.carts.Total(sid),
		ItemCount: h.carts.ItemCount(sid),
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(w, r, "productID")
	if !ok {
		return
	}

	sid := session.FromContext(r.Context())
	h.carts.Remove(sid, productID)

	respondWithJSON(w, http.StatusOK, cartResponse{
		Items:     h.carts.Get(sid),
		Total:     h.carts.Total(sid),
		ItemCount: h.carts.ItemCount(sid),
	})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid := session.FromContext(r.Context())
	h.carts.Clear(sid)

	w.WriteHeader(http.StatusNoContent)
}
