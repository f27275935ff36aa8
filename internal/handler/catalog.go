package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/catalog"
)

// CatalogHandler serves the storefront listing plus the admin CRUD
// endpoints for products and categories.
type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListProducts handles GET /products. Supported query parameters:
// featured, category_id, sort (price_asc|price_desc), page.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("featured") == "true" {
		products, err := h.svc.ListFeatured(r.Context())
		if err != nil {
			respondWithMappedError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, products)
		return
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		page = n
	}

	var categoryID *int64
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "category_id must be an integer")
			return
		}
		categoryID = &id
	}

	productPage, err := h.svc.ListPage(r.Context(), categoryID, q.Get("sort"), page)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, productPage)
}

// ListAllProducts returns the unpaginated listing the admin screens use.
func (h *CatalogHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListAll(r.Context())
	if err != nil {
		respondWithMappedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		respondWithMappedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.CreateProduct(r.Context(), &p); err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = id

	if err := h.svc.UpdateProduct(r.Context(), &p); err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		respondWithMappedError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.CreateCategory(r.Context(), &c); err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var c catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = id

	if err := h.svc.UpdateCategory(r.Context(), &c); err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

// DeleteCategory removes a category together with all of its products.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		respondWithMappedError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id < 1 {
		respondWithError(w, http.StatusBadRequest, param+" must be a positive integer")
		return 0, false
	}
	return id, true
}
