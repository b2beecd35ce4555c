package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/checkout"
)

// gatewayCallTimeout bounds the charge-creation request; the payment
// provider is slow on cold PIX keys.
const gatewayCallTimeout = 30 * time.Second

type CheckoutHandler struct {
	carts     *cart.Registry
	checkouts *checkout.Registry
}

func NewCheckoutHandler(carts *cart.Registry, checkouts *checkout.Registry) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, checkouts: checkouts}
}

func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(chi.URLParam(r, "cartId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	session, err := h.checkouts.Start(c)
	if err != nil {
		var belowMin *checkout.BelowMinimumError
		if errors.As(err, &belowMin) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":     "order below minimum value",
				"minimum":   belowMin.Minimum,
				"remaining": belowMin.Remaining,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start checkout")
		return
	}

	writeJSON(w, http.StatusCreated, session.State())
}

func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (h *CheckoutHandler) SubmitCustomer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var data checkout.CustomerData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := session.SubmitCustomer(data); err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if err := session.Back(); err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (h *CheckoutHandler) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var data checkout.AddressData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), gatewayCallTimeout)
	defer cancel()

	if err := session.SubmitAddress(ctx, data); err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (h *CheckoutHandler) ConfirmPaid(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := session.ConfirmPaid(ctx); err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (h *CheckoutHandler) Retry(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if err := session.Retry(); err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (h *CheckoutHandler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	session.Close()
	h.checkouts.Drop(session.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) loadSession(w http.ResponseWriter, r *http.Request) (*checkout.Checkout, bool) {
	session, err := h.checkouts.Get(chi.URLParam(r, "checkoutId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "checkout session not found")
		return nil, false
	}
	return session, true
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
