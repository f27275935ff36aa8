package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/cart"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/checkout"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/session"
)

type Services struct {
	Catalog  catalog.Service
	Carts    *cart.Store
	Orders   order.Service
	Payments payment.Service
	Checkout checkout.Service
}

func NewRouter(svcs Services) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(session.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	catalogHandler := NewCatalogHandler(svcs.Catalog)
	cartHandler := NewCartHandler(svcs.Carts, svcs.Catalog)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout)
	orderHandler := NewOrderHandler(svcs.Orders, svcs.Payments)

	r.Get("/products", catalogHandler.ListProducts)
	r.Get("/products/{id}", catalogHandler.GetProduct)
	r.Get("/categories", catalogHandler.ListCategories)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{productID}", cartHandler.UpdateItem)
		r.Delete("/items/{productID}", cartHandler.RemoveItem)
	})

	r.Post("/checkout", checkoutHandler.Checkout)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{id}", orderHandler.GetOrder)
		r.Put("/{id}/status", orderHandler.UpdateStatus)
		r.Get("/{id}/payment", orderHandler.GetPayment)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/products", catalogHandler.ListAllProducts)
		r.Post("/products", catalogHandler.CreateProduct)
		r.Put("/products/{id}", catalogHandler.UpdateProduct)
		r.Delete("/products/{id}", catalogHandler.DeleteProduct)
		r.Post("/categories", catalogHandler.CreateCategory)
		r.Put("/categories/{id}", catalogHandler.UpdateCategory)
		r.Delete("/categories/{id}", catalogHandler.DeleteCategory)
	})

	return r
}
