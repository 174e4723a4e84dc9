// Package httpapi wires the storefront services to a chi router. The
// pattern follows a conventional layered HTTP service: handlers decode and
// validate payloads, services own the business rules, repositories own SQL.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mkuzmin-dev/storefront/internal/identity"
)

type Deps struct {
	Identity IdentityService
	Verifier identity.Verifier
	Cart     CartService
	Orders   OrderService
	Ledger   *LedgerHandler
	Address  *AddressHandler
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	auth := NewAuthHandler(deps.Identity)
	r.Post("/auth/register", auth.handleRegister)
	r.Post("/auth/login", auth.handleLogin)

	cartH := NewCartHandler(deps.Cart)
	orderH := NewOrderHandler(deps.Orders)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(deps.Verifier))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartH.handleGetCart)
			r.Post("/items", cartH.handleAddItem)
			r.Put("/items/{productID}", cartH.handleUpdateItem)
			r.Delete("/items/{productID}", cartH.handleRemoveItem)
			r.Delete("/", cartH.handleClear)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderH.handleCheckout)
			r.Get("/", orderH.handleListMyOrders)
			r.Get("/{orderID}", orderH.handleGetOrder)
			r.Post("/{orderID}/cancel", orderH.handleCancel)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", deps.Address.handleCreate)
			r.Get("/", deps.Address.handleList)
			r.Get("/{addressID}", deps.Address.handleGet)
			r.Delete("/{addressID}", deps.Address.handleDelete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/orders", orderH.handleAdminList)
			r.Put("/orders/{orderID}/status", orderH.handleSetStatus)
			r.Get("/orders/{orderID}/items", deps.Ledger.handleGetOrderItems)
			r.Get("/orders/{orderID}/totals", deps.Ledger.handleGetOrderTotals)
			r.Get("/items/{itemID}", deps.Ledger.handleGetItem)
			r.Put("/items/{itemID}/quantity", deps.Ledger.handleUpdateItemQuantity)
			r.Delete("/items/{itemID}", deps.Ledger.handleDeleteItem)
			r.Get("/products/{productID}/items", deps.Ledger.handleGetItemsByProduct)
			r.Get("/sales/stats", deps.Ledger.handleGetSalesStats)
		})
	})

	return r
}
