package httpapi

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/foliadelivery/storefront/internal/middleware"
)

type Handlers struct {
	Cart     *CartHandler
	Combo    *ComboHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Catalog  *CatalogHandler
	CEP      *CEPHandler
}

func NewRouter(h Handlers, logger *log.Logger, corsAllowOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(corsAllowOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/additionals", h.Catalog.ListAdditionals)
		r.Get("/combo/{category}", h.Catalog.ListComboProducts)
	})

	r.Get("/api/cep/{cep}", h.CEP.Lookup)

	r.Route("/api/cart", func(r chi.Router) {
		r.Post("/", h.Cart.CreateCart)

		r.Route("/{cartId}", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)

			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{productId}", h.Cart.UpdateQuantity)
			r.Delete("/items/{productId}", h.Cart.RemoveItem)

			r.Route("/combo", func(r chi.Router) {
				r.Post("/", h.Combo.StartCombo)
				r.Get("/", h.Combo.GetState)
				r.Delete("/", h.Combo.Cancel)
				r.Put("/items/{productId}", h.Combo.SetQuantity)
				r.Post("/next", h.Combo.Next)
				r.Post("/edit", h.Combo.Edit)
				r.Post("/confirm", h.Combo.Confirm)
			})

			r.Post("/checkout", h.Checkout.StartCheckout)
		})
	})

	r.Route("/api/checkout/{checkoutId}", func(r chi.Router) {
		r.Get("/", h.Checkout.GetCheckout)
		r.Post("/customer", h.Checkout.SubmitCustomer)
		r.Post("/back", h.Checkout.Back)
		r.Post("/address", h.Checkout.SubmitAddress)
		r.Post("/confirm", h.Checkout.ConfirmPaid)
		r.Post("/retry", h.Checkout.Retry)
		r.Delete("/", h.Checkout.CloseCheckout)
	})

	r.Route("/api/orders/pending", func(r chi.Router) {
		r.Get("/", h.Orders.ListPending)
		r.Get("/count", h.Orders.CountPending)
		r.Get("/watch", h.Orders.WatchPending)
		r.Delete("/{transactionId}", h.Orders.RemovePending)
	})

	return r
}
