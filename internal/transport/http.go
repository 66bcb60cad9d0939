package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gerai/storefront/internal/admin"
	"github.com/gerai/storefront/internal/cart"
	"github.com/gerai/storefront/internal/handler"
	"github.com/gerai/storefront/internal/identity"
	"github.com/gerai/storefront/internal/order"
	"github.com/gerai/storefront/internal/payment"
)

type Deps struct {
	Carts        cart.Service
	Orders       order.Service
	Orchestrator *payment.Orchestrator
	Fulfillment  *admin.Controller
	Identity     identity.Resolver
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	cartHandler := handler.NewCartHandler(deps.Carts)
	orderHandler := handler.NewOrderHandler(deps.Orders)
	paymentHandler := handler.NewPaymentHandler(deps.Orchestrator)
	adminHandler := handler.NewAdminHandler(deps.Fulfillment)

	// The gateway webhook authenticates via its own signature, not a user
	// credential, so it sits outside the auth middleware.
	r.Post("/payments/notifications", paymentHandler.Notification)

	r.Group(func(r chi.Router) {
		r.Use(handler.Auth(deps.Identity))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/items/{key}/decrement", cartHandler.DecrementItem)
			r.Delete("/items/{key}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", orderHandler.Checkout)
		r.Get("/orders", orderHandler.ListOrders)
		r.Get("/orders/{id}", orderHandler.GetOrderByID)

		r.Post("/payments/{id}/outcome", paymentHandler.Outcome)

		r.Route("/admin/orders/{id}", func(r chi.Router) {
			r.Post("/confirm-payment", adminHandler.ConfirmPayment)
			r.Post("/ship", adminHandler.Ship)
			r.Post("/deliver", adminHandler.Deliver)
			r.Post("/cancel", adminHandler.Cancel)
		})
	})

	return r
}
